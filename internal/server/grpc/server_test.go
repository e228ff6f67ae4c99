package grpc

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dmitrijs2005/krishiauth/internal/logging"
)

type fakeStore struct {
	down atomic.Bool
}

func (f *fakeStore) Ping(context.Context) error {
	if f.down.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func checkStatus(t *testing.T, s *GRPCServer, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := s.health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		t.Fatalf("Check(%q) error: %v", service, err)
	}
	return resp.GetStatus()
}

func TestProbe_TracksStore(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	s := NewGRPCServer("127.0.0.1:0", logging.Nop{}, store, time.Hour)

	if got := checkStatus(t, s, CredentialsService); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("before first probe: got %v want NOT_SERVING", got)
	}
	if got := checkStatus(t, s, ""); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("overall: got %v want SERVING", got)
	}

	s.probe(context.Background())
	if got := checkStatus(t, s, CredentialsService); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("store up: got %v want SERVING", got)
	}

	store.down.Store(true)
	s.probe(context.Background())
	if got := checkStatus(t, s, CredentialsService); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("store down: got %v want NOT_SERVING", got)
	}

	// The process itself keeps serving.
	if got := checkStatus(t, s, ""); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("overall after store loss: got %v want SERVING", got)
	}
}

func TestServe_HealthOverTheWire(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	listen, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	s := NewGRPCServer(listen.Addr().String(), logging.Nop{}, &fakeStore{}, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, listen) }()

	conn, err := grpc.NewClient(listen.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	client := healthpb.NewHealthClient(conn)

	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: CredentialsService})
		if err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("credentials service never became SERVING (last err %v)", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	_ = conn.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:99999", logging.Nop{}, &fakeStore{}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Run(ctx); err == nil {
		t.Fatal("expected error from Run on bad address, got nil")
	}
}

// Package grpc serves the standard gRPC health service. The credentials
// service is reported SERVING only while the durable store answers pings.
package grpc

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dmitrijs2005/krishiauth/internal/logging"
	"github.com/dmitrijs2005/krishiauth/internal/server/metrics"
)

// CredentialsService is the health service name of the durable store.
const CredentialsService = "krishiauth.credentials"

const (
	defaultProbeInterval = 10 * time.Second
	probeTimeout         = 3 * time.Second
)

// StoreChecker reports whether the durable store answers.
type StoreChecker interface {
	Ping(ctx context.Context) error
}

type GRPCServer struct {
	address  string
	store    StoreChecker
	interval time.Duration
	health   *health.Server
	logger   logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, store StoreChecker, probeInterval time.Duration) *GRPCServer {
	if probeInterval <= 0 {
		probeInterval = defaultProbeInterval
	}

	hs := health.NewServer()
	hs.SetServingStatus(CredentialsService, healthpb.HealthCheckResponse_NOT_SERVING)

	return &GRPCServer{
		address:  a,
		store:    store,
		interval: probeInterval,
		health:   hs,
		logger:   l.With("module", "grpc_server"),
	}
}

// probe pings the store once and publishes the result.
func (s *GRPCServer) probe(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.store.Ping(pctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		s.logger.Debug(ctx, "durable store probe failed", "error", err)
	}

	s.health.SetServingStatus(CredentialsService, status)
	metrics.SetStoreAvailable(status == healthpb.HealthCheckResponse_SERVING)
}

func (s *GRPCServer) watchStore(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.probe(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	probeCtx, stopProbe := context.WithCancel(ctx)
	probeDone := make(chan struct{})
	go func() {
		defer close(probeDone)
		s.watchStore(probeCtx)
	}()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	err := srv.Serve(listen)
	stopProbe()
	<-probeDone
	return err
}

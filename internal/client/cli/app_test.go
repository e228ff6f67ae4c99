package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/krishiauth/internal/client/client"
	"github.com/dmitrijs2005/krishiauth/internal/client/config"
)

type fakeAPI struct {
	users    map[string]string
	token    string
	err      error
	lastPass []byte
}

func (f *fakeAPI) Register(_ context.Context, username string, password []byte) error {
	f.lastPass = password
	if f.err != nil {
		return f.err
	}
	if _, ok := f.users[username]; ok {
		return &client.APIError{Status: 400, Message: "User already exists"}
	}
	f.users[username] = string(password)
	return nil
}

func (f *fakeAPI) Login(_ context.Context, username string, password []byte) (string, error) {
	f.lastPass = password
	if f.err != nil {
		return "", f.err
	}
	if f.users[username] != string(password) {
		return "", &client.APIError{Status: 401, Message: "Incorrect password"}
	}
	return f.token, nil
}

func (f *fakeAPI) WhoAmI(_ context.Context, token string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if token != f.token {
		return "", &client.APIError{Status: 401, Message: "Unauthenticated"}
	}
	return "alice", nil
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	readPassword = func(int) ([]byte, error) { return []byte(pw), nil }
}

func newTestApp(api client.Client, input string) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	return newApp(api, strings.NewReader(input), &out), &out
}

func TestRun_GlobalFlagsOnlyBeforeCommand(t *testing.T) {
	app, out := newTestApp(&fakeAPI{token: "tok-1"}, "")

	require.NoError(t, app.Run(context.Background(), []string{"-a", "http://h:1", "-w=3", "-config", "f.json", "whoami", "-t", "tok-1"}))
	assert.Equal(t, "alice\n", out.String())

	// After the subcommand -a is a whoami flag, which whoami does not define.
	err := app.Run(context.Background(), []string{"whoami", "-t", "tok-1", "-a", "http://h:1"})
	require.ErrorIs(t, err, ErrUsage)
}

func TestRun_UnknownGlobalFlag(t *testing.T) {
	app, _ := newTestApp(&fakeAPI{}, "")

	err := app.Run(context.Background(), []string{"-a", "-x", "register"})
	require.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, err.Error(), "-x")
}

func TestRun_Usage(t *testing.T) {
	app, _ := newTestApp(&fakeAPI{}, "")

	require.ErrorIs(t, app.Run(context.Background(), nil), ErrUsage)
	require.ErrorIs(t, app.Run(context.Background(), []string{"-a", "http://h:1"}), ErrUsage)
	require.ErrorIs(t, app.Run(context.Background(), []string{"logout"}), ErrUsage)
}

func TestRegister_WipesPassword(t *testing.T) {
	stubPassword(t, "pw1")
	api := &fakeAPI{users: map[string]string{}}
	app, out := newTestApp(api, "alice\n")

	require.NoError(t, app.Run(context.Background(), []string{"register"}))

	assert.Equal(t, "pw1", api.users["alice"])
	assert.Equal(t, []byte{0, 0, 0}, api.lastPass)
	assert.Contains(t, out.String(), "User alice registered")
}

func TestRegister_Duplicate(t *testing.T) {
	stubPassword(t, "pw1")
	api := &fakeAPI{users: map[string]string{"alice": "pw0"}}
	app, _ := newTestApp(api, "alice\n")

	err := app.Run(context.Background(), []string{"register"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "User already exists")
}

func TestRegister_EmptyUsername(t *testing.T) {
	stubPassword(t, "pw1")
	api := &fakeAPI{users: map[string]string{}}
	app, _ := newTestApp(api, "  \n")

	require.Error(t, app.Run(context.Background(), []string{"register"}))
	assert.Empty(t, api.users)
}

func TestLogin_PrintsToken(t *testing.T) {
	stubPassword(t, "pw1")
	api := &fakeAPI{users: map[string]string{"alice": "pw1"}, token: "tok-1"}
	app, out := newTestApp(api, "alice\n")

	require.NoError(t, app.Run(context.Background(), []string{"-a", "http://h:1", "login"}))

	assert.True(t, strings.HasSuffix(out.String(), "tok-1\n"))
}

func TestLogin_WrongPassword(t *testing.T) {
	stubPassword(t, "bad")
	api := &fakeAPI{users: map[string]string{"alice": "pw1"}, token: "tok-1"}
	app, _ := newTestApp(api, "alice\n")

	err := app.Run(context.Background(), []string{"login"})
	require.ErrorIs(t, err, client.ErrUnauthorized)
}

func TestLogin_ServerDown(t *testing.T) {
	stubPassword(t, "pw1")
	api := &fakeAPI{err: client.ErrUnavailable}
	app, _ := newTestApp(api, "alice\n")

	err := app.Run(context.Background(), []string{"login"})
	require.ErrorIs(t, err, client.ErrUnavailable)
	assert.Contains(t, err.Error(), "server unavailable")
}

func TestLogin_PasswordReadError(t *testing.T) {
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	readPassword = func(int) ([]byte, error) { return nil, errors.New("not a terminal") }

	app, _ := newTestApp(&fakeAPI{}, "alice\n")
	require.Error(t, app.Run(context.Background(), []string{"login"}))
}

func TestWhoAmI_FlagToken(t *testing.T) {
	app, out := newTestApp(&fakeAPI{token: "tok-1"}, "")

	require.NoError(t, app.Run(context.Background(), []string{"whoami", "-t", "tok-1"}))
	assert.Equal(t, "alice\n", out.String())
}

func TestWhoAmI_PromptedToken(t *testing.T) {
	app, out := newTestApp(&fakeAPI{token: "tok-1"}, "tok-1\n")

	require.NoError(t, app.Run(context.Background(), []string{"whoami"}))
	assert.True(t, strings.HasSuffix(out.String(), "alice\n"))
}

func TestWhoAmI_BadToken(t *testing.T) {
	app, _ := newTestApp(&fakeAPI{token: "tok-1"}, "")

	err := app.Run(context.Background(), []string{"whoami", "-t", "forged"})
	require.ErrorIs(t, err, client.ErrUnauthorized)
}

func TestWhoAmI_UnknownFlag(t *testing.T) {
	app, _ := newTestApp(&fakeAPI{}, "")

	require.ErrorIs(t, app.Run(context.Background(), []string{"whoami", "-x"}), ErrUsage)
}

func TestNewApp_BadURL(t *testing.T) {
	_, err := NewApp(&config.Config{ServerURL: "localhost:8000"})
	require.Error(t, err)

	app, err := NewApp(&config.Config{ServerURL: "http://localhost:8000"})
	require.NoError(t, err)
	require.NotNil(t, app)
}

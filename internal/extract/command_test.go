package extract

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("command extractor tests need a POSIX shell")
	}
}

func TestCommandSuccess(t *testing.T) {
	requireShell(t)
	c := NewCommand("/bin/sh", "-c", `cat >/dev/null; echo '{"ok":true}'`)

	out, err := c.Extract(context.Background(), Credentials{Email: "u@e.c", Password: "pw", ExcludeNickname: "n"})
	require.NoError(t, err)
	require.JSONEq(t, `{"ok":true}`, string(out))
}

func TestCommandFailureUsesStderr(t *testing.T) {
	requireShell(t)
	c := NewCommand("/bin/sh", "-c", `cat >/dev/null; echo 'auth failed' >&2; exit 3`)

	_, err := c.Extract(context.Background(), Credentials{Email: "u@e.c", Password: "pw", ExcludeNickname: "n"})
	require.EqualError(t, err, "auth failed")
}

func TestCommandInvalidJSON(t *testing.T) {
	requireShell(t)
	c := NewCommand("/bin/sh", "-c", `cat >/dev/null; echo 'not json'`)

	_, err := c.Extract(context.Background(), Credentials{Email: "u@e.c", Password: "pw", ExcludeNickname: "n"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid JSON")
}

func TestCommandCancelled(t *testing.T) {
	requireShell(t)
	c := NewCommand("/bin/sh", "-c", `cat >/dev/null; sleep 30`)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Extract(ctx, Credentials{Email: "u@e.c", Password: "pw", ExcludeNickname: "n"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSimulatedHonoursContext(t *testing.T) {
	s := &Simulated{Delay: time.Minute}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.Extract(ctx, Credentials{Email: "u@e.c"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSimulatedOutcomes(t *testing.T) {
	s := &Simulated{}

	out, err := s.Extract(context.Background(), Credentials{Email: "u@e.c", Password: "pw", ExcludeNickname: "n"})
	require.NoError(t, err)
	require.True(t, len(out) > 0)

	_, err = s.Extract(context.Background(), Credentials{Email: "u@e.c", Password: "should_fail", ExcludeNickname: "n"})
	require.Error(t, err)
}

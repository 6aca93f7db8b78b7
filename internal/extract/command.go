package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// Command runs the extraction as an external process: credentials go
// in as JSON on stdin, the result comes back as JSON on stdout, and a
// non-zero exit is a failure described by the last stderr line. The
// process is killed when ctx is cancelled, which keeps shutdown from
// blocking on a stuck run.
type Command struct {
	Path string
	Args []string
}

// NewCommand builds a command-backed extractor.
func NewCommand(path string, args ...string) *Command {
	return &Command{Path: path, Args: args}
}

func (c *Command) Extract(ctx context.Context, creds Credentials) (json.RawMessage, error) {
	input, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("marshal credentials: %w", err)
	}

	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Stdin = bytes.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if msg := lastLine(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s", msg)
		}
		return nil, fmt.Errorf("extractor exited: %w", err)
	}

	out := bytes.TrimSpace(stdout.Bytes())
	if !json.Valid(out) {
		return nil, fmt.Errorf("extractor produced invalid JSON")
	}
	return json.RawMessage(out), nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

package permission

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Granter records permission grants.
type Granter interface {
	Grant(name string) error
}

// Requester asks the user for a permission on a terminal.
type Requester struct {
	Granter Granter
	In      io.Reader
	Out     io.Writer
	Logger  *slog.Logger
}

// Request prompts once for the named permission and records a grant if the
// user accepts. It reports whether the permission was granted. Declining is
// not an error; callers observe the outcome through the next Granted check.
func (r *Requester) Request(ctx context.Context, name, rationale string) (bool, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if rationale != "" {
		fmt.Fprintln(r.Out, rationale)
	}
	fmt.Fprintf(r.Out, "Grant %s? [y/N]: ", name)

	answer, err := readLine(ctx, r.In)
	if err != nil {
		logger.Debug("no answer to permission request", "permission", name, "error", err)
		fmt.Fprintln(r.Out)
		return false, nil
	}

	if !accepted(answer) {
		logger.Info("permission denied by user", "permission", name)
		fmt.Fprintln(r.Out, "Permission not granted.")
		return false, nil
	}

	if err := r.Granter.Grant(name); err != nil {
		return false, fmt.Errorf("failed to record grant for %s: %w", name, err)
	}
	logger.Info("permission granted by user", "permission", name)
	fmt.Fprintln(r.Out, "Permission granted.")
	return true, nil
}

func accepted(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func readLine(ctx context.Context, in io.Reader) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err == io.EOF && line != "" {
			err = nil
		}
		ch <- result{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		return res.line, res.err
	}
}

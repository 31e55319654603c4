// Package procexec is the uniform substrate every codec-touching
// component routes through to invoke external binaries (ffmpeg, ffprobe,
// yt-dlp, imagemagick, scenedetect): spec.md §4.1.
package procexec

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/allypost/dlhub/internal/corerr"
)

// Result carries the outcome of Run.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Success reports whether the process exited zero.
func (r Result) Success() bool { return r.ExitCode == 0 }

// Run invokes program with args, waiting for it to exit. It never
// inherits the caller's stdin/stdout/stderr. The returned error
// distinguishes "could not start" (corerr.ErrPermanent — binary missing
// or not executable) from "started but exited non-zero" (also
// corerr.ErrPermanent, but Result is populated so the caller can inspect
// stderr).
func Run(ctx context.Context, program string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, program, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("procexec: stdout pipe for %s: %w", program, err))
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("procexec: stderr pipe for %s: %w", program, err))
	}

	if err := cmd.Start(); err != nil {
		if ctx.Err() != nil {
			return Result{}, corerr.Wrap(corerr.ErrCancelled, ctx.Err())
		}
		return Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("procexec: starting %s: %w", program, err))
	}

	outBytes, outErr := readAll(stdout)
	errBytes, errErr := readAll(stderr)

	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return Result{}, corerr.Wrap(corerr.ErrCancelled, ctx.Err())
	}

	res := Result{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   outBytes,
		Stderr:   errBytes,
	}

	if outErr != nil || errErr != nil {
		return res, corerr.Wrap(corerr.ErrTransient, fmt.Errorf("procexec: reading output of %s: %w", program, errors.Join(outErr, errErr)))
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			if exitErr.ProcessState != nil && !exitErr.ProcessState.Exited() {
				// killed by signal (e.g. our own SIGTERM/SIGKILL on cancellation)
				return res, corerr.Wrap(corerr.ErrTransient, fmt.Errorf("procexec: %s killed: %w", program, waitErr))
			}
			return res, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("procexec: %s exited %d: %s", program, res.ExitCode, res.Stderr))
		}
		return res, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("procexec: waiting for %s: %w", program, waitErr))
	}

	return res, nil
}

func readAll(r io.Reader) ([]byte, error) {
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return buf, nil
			}
			return buf, err
		}
	}
}

// StreamStdoutLines runs program, handing each stdout line to onLine as it
// arrives (bounded memory: one line at a time), discarding stderr. It
// waits for the process to exit after the stream drains and fails if the
// exit code is non-zero.
func StreamStdoutLines(ctx context.Context, onLine func(string), program string, args ...string) error {
	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Stderr = nil

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("procexec: stdout pipe for %s: %w", program, err))
	}

	if err := cmd.Start(); err != nil {
		return corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("procexec: starting %s: %w", program, err))
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		onLine(scanner.Text())
	}
	scanErr := scanner.Err()

	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return corerr.Wrap(corerr.ErrCancelled, ctx.Err())
	}
	if scanErr != nil {
		return corerr.Wrap(corerr.ErrTransient, fmt.Errorf("procexec: scanning stdout of %s: %w", program, scanErr))
	}
	if waitErr != nil {
		return corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("procexec: %s exited with error: %w", program, waitErr))
	}
	return nil
}

// Resolve returns the configured binary path for a component. A non-empty
// override is returned with true whether or not it is found on disk. An
// empty override returns ("", false), signalling the owning component to
// mark itself !can_run(); Resolve does not search PATH (ResolveOnPath
// does that for a named binary).
func Resolve(override string) (string, bool) {
	if override != "" {
		if _, err := exec.LookPath(override); err == nil {
			return override, true
		}
		// Treat an explicit absolute path that merely isn't executable yet
		// (e.g. relative to cwd) as still authoritative; exec will surface
		// the real error at call time.
		return override, true
	}
	return "", false
}

// ResolveOnPath looks up name on PATH, returning ("", false) if absent.
func ResolveOnPath(name string) (string, bool) {
	p, err := exec.LookPath(name)
	if err != nil {
		return "", false
	}
	return p, true
}

package graph

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/scottjrodgers/what-not-how/model"
)

// DefaultRenderTimeout bounds one run of the external renderer.
const DefaultRenderTimeout = 60 * time.Second

// Renderer runs mermaid-cli or d2 to turn a definition file into SVG.
type Renderer struct {
	MermaidPath string        // defaults to "mmdc"
	D2Path      string        // defaults to "d2"
	Timeout     time.Duration // defaults to DefaultRenderTimeout
}

// RenderError describes a failed renderer run.
type RenderError struct {
	Tool     string
	ExitCode int // -1 when the process did not exit normally
	Stderr   string
	Err      error
}

func (e *RenderError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Tool, e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *RenderError) Unwrap() error { return e.Err }

// Command returns the program and arguments that render in to out.
func (r *Renderer) Command(tool, in, out string) (string, []string, error) {
	switch tool {
	case model.ToolMermaid, "":
		bin := r.MermaidPath
		if bin == "" {
			bin = "mmdc"
		}
		return bin, []string{"-i", in, "-o", out}, nil
	case model.ToolD2:
		bin := r.D2Path
		if bin == "" {
			bin = "d2"
		}
		return bin, []string{in, out}, nil
	}
	return "", nil, &UnknownToolError{Tool: tool}
}

// Render runs the renderer for tool on the definition file in, writing
// the SVG to out. It returns the renderer's standard output.
func (r *Renderer) Render(ctx context.Context, tool, in, out string) (string, error) {
	bin, args, err := r.Command(tool, in, out)
	if err != nil {
		return "", err
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultRenderTimeout
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, bin, args...)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		rerr := &RenderError{Tool: tool, ExitCode: -1, Stderr: stderr.String(), Err: err}
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			rerr.Err = fmt.Errorf("timed out after %s: %w", timeout, context.DeadlineExceeded)
			return stdout.String(), rerr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			rerr.ExitCode = exitErr.ExitCode()
		}
		return stdout.String(), rerr
	}
	return stdout.String(), nil
}

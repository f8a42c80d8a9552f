package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"time"
)

// x11SocketDir is where X servers create their unix sockets.
var x11SocketDir = "/tmp/.X11-unix"

var displayRe = regexp.MustCompile(`^:(\d+)(?:\.\d+)?$`)

// xvfb is a virtual X display for headful Chrome.
type xvfb struct {
	display string
	cmd     *exec.Cmd
	exited  chan error
	logger  *slog.Logger
}

// displaySocket returns the socket path of an X display such as ":99".
func displaySocket(display string) (string, error) {
	m := displayRe.FindStringSubmatch(display)
	if m == nil {
		return "", fmt.Errorf("invalid display %q", display)
	}
	return filepath.Join(x11SocketDir, "X"+m[1]), nil
}

// startXvfb runs Xvfb on display and returns once the display accepts
// clients. It fails when Xvfb exits first or ctx ends.
func startXvfb(ctx context.Context, display string, logger *slog.Logger) (*xvfb, error) {
	sock, err := displaySocket(display)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command("Xvfb", display, "-screen", "0", "1920x1080x24", "-ac", "-nolisten", "tcp")
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start xvfb: %w", err)
	}
	x := &xvfb{display: display, cmd: cmd, exited: make(chan error, 1), logger: logger}
	go func() { x.exited <- cmd.Wait() }()

	if err := waitForSocket(ctx, sock, x.exited); err != nil {
		x.stop()
		return nil, err
	}
	logger.Info("browser: xvfb started", "display", display, "pid", cmd.Process.Pid)
	return x, nil
}

// waitForSocket polls for path until it exists, exited yields or ctx ends.
func waitForSocket(ctx context.Context, path string, exited <-chan error) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		select {
		case err := <-exited:
			if err == nil {
				err = errors.New("exit status 0")
			}
			return fmt.Errorf("xvfb exited before %s appeared: %w", path, err)
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", path, ctx.Err())
		case <-ticker.C:
		}
	}
}

// stop kills Xvfb and reaps it. A nil receiver or an already exited
// process is fine.
func (x *xvfb) stop() {
	if x == nil {
		return
	}
	_ = x.cmd.Process.Kill()
	select {
	case <-x.exited:
	case <-time.After(5 * time.Second):
		x.logger.Warn("browser: xvfb did not exit", "display", x.display)
		return
	}
	x.logger.Info("browser: xvfb stopped", "display", x.display)
}

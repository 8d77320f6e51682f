// Package mpv drives a detached mpv process over its JSON IPC socket and
// exposes it as an opaque playback pipeline. mpv owns decoding, rendering
// and buffering; the engine only hands over URLs and reads the clock.
package mpv

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/diniamo/gopv"
	"github.com/google/uuid"
)

const (
	ipcReadyTimeout = 10 * time.Second
	quitGrace       = 500 * time.Millisecond
	eventInterval   = 500 * time.Millisecond
)

// Options configures the mpv driver.
type Options struct {
	// Binary is the mpv executable name or path. Defaults to "mpv".
	Binary string
	// LoadUserConfig lets mpv read the user's own mpv.conf. Off by default
	// so user keybindings and scripts cannot interfere with the session.
	LoadUserConfig bool
	// ExtraArgs are appended verbatim to the mpv command line.
	ExtraArgs []string
	Logger    *slog.Logger
}

// Driver implements the playback pipeline over one mpv process per load.
type Driver struct {
	opts   Options
	binary string
	logger *slog.Logger

	mu         sync.Mutex
	client     *gopv.Client
	cmd        *exec.Cmd
	socketPath string
	released   bool
	endedFired bool

	cancel context.CancelFunc

	onEnded     func()
	onError     func(error)
	onBuffering func(bool)
}

// New creates a driver, verifying the mpv binary is reachable.
func New(opts Options) (*Driver, error) {
	binary := opts.Binary
	if binary == "" {
		binary = "mpv"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return nil, fmt.Errorf("mpv not found: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Driver{opts: opts, binary: binary, logger: opts.Logger}, nil
}

// OnEnded registers the end-of-stream callback.
func (d *Driver) OnEnded(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onEnded = fn
}

// OnError registers the unrecoverable-error callback.
func (d *Driver) OnError(fn func(error)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onError = fn
}

// OnBuffering registers the stall callback, fed from mpv's
// paused-for-cache property.
func (d *Driver) OnBuffering(fn func(starved bool)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onBuffering = fn
}

// Load launches mpv for the given URL, positioned at startSeconds and
// paused. It returns once the IPC connection is established; Play starts
// actual playback.
func (d *Driver) Load(ctx context.Context, url string, startSeconds float64) error {
	d.teardownProcess()

	socketPath := filepath.Join(os.TempDir(), fmt.Sprintf("halcyon-mpv-%s.sock", uuid.NewString()[:8]))
	args := buildArgs(socketPath, url, startSeconds, d.opts.LoadUserConfig, d.opts.ExtraArgs)

	cmd := exec.Command(d.binary, args...)
	// Fully detached from the terminal so mpv cannot steal input or
	// corrupt the caller's display.
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		_ = os.Remove(socketPath)
		return fmt.Errorf("start mpv: %w", err)
	}

	if err := waitForSocket(ctx, socketPath); err != nil {
		_ = cmd.Process.Kill()
		_ = os.Remove(socketPath)
		return fmt.Errorf("mpv IPC at %s: %w", socketPath, err)
	}

	client, err := gopv.Connect(socketPath, d.emitError)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = os.Remove(socketPath)
		return fmt.Errorf("connect mpv IPC at %s: %w", socketPath, err)
	}

	monCtx, cancel := context.WithCancel(context.Background())
	d.mu.Lock()
	d.client = client
	d.cmd = cmd
	d.socketPath = socketPath
	d.released = false
	d.endedFired = false
	d.cancel = cancel
	d.mu.Unlock()

	go d.monitorEvents(monCtx)
	go d.monitorProcess(cmd)

	d.logger.Debug("mpv loaded", "socket", socketPath, "start", startSeconds)
	return nil
}

// Play unpauses playback.
func (d *Driver) Play(ctx context.Context) error {
	return d.setProperty("pause", false)
}

// Pause pauses playback.
func (d *Driver) Pause(ctx context.Context) error {
	return d.setProperty("pause", true)
}

// Seek jumps to an absolute position in seconds.
func (d *Driver) Seek(ctx context.Context, seconds float64) error {
	return d.setProperty("time-pos", seconds)
}

// SetRate changes the playback speed.
func (d *Driver) SetRate(ctx context.Context, rate float64) error {
	return d.setProperty("speed", rate)
}

// CurrentTime reads the playback clock in seconds.
func (d *Driver) CurrentTime(ctx context.Context) (float64, error) {
	client, err := d.liveClient()
	if err != nil {
		return 0, err
	}
	result, err := client.Request("get_property", "time-pos")
	if err != nil {
		return 0, fmt.Errorf("mpv time-pos: %w", err)
	}
	pos, ok := result.(float64)
	if !ok {
		// mpv reports null before the first frame is decoded.
		return 0, nil
	}
	return pos, nil
}

// Release tears the mpv process down. Safe to call more than once.
func (d *Driver) Release(ctx context.Context) error {
	d.teardownProcess()
	return nil
}

func (d *Driver) setProperty(name string, value any) error {
	client, err := d.liveClient()
	if err != nil {
		return err
	}
	if _, err := client.Request("set_property", name, value); err != nil {
		return fmt.Errorf("mpv set %s: %w", name, err)
	}
	return nil
}

func (d *Driver) liveClient() (*gopv.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.client == nil || d.released {
		return nil, fmt.Errorf("mpv not loaded")
	}
	return d.client, nil
}

// monitorEvents polls mpv for end-of-file and cache stalls, feeding the
// registered callbacks.
func (d *Driver) monitorEvents(ctx context.Context) {
	ticker := time.NewTicker(eventInterval)
	defer ticker.Stop()

	var starved bool
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			client, err := d.liveClient()
			if err != nil {
				return
			}

			if result, err := client.Request("get_property", "paused-for-cache"); err == nil {
				if val, ok := result.(bool); ok && val != starved {
					starved = val
					d.mu.Lock()
					fn := d.onBuffering
					d.mu.Unlock()
					if fn != nil {
						fn(starved)
					}
				}
			}

			if result, err := client.Request("get_property", "eof-reached"); err == nil {
				if val, ok := result.(bool); ok && val {
					d.fireEnded()
					return
				}
			}
		}
	}
}

// monitorProcess waits on the mpv process and surfaces unexpected exits.
func (d *Driver) monitorProcess(cmd *exec.Cmd) {
	err := cmd.Wait()

	d.mu.Lock()
	released := d.released || d.cmd != cmd
	d.mu.Unlock()
	if released {
		return
	}

	if err != nil {
		d.emitError(fmt.Errorf("mpv exited unexpectedly: %w", err))
	}
	d.teardownProcess()
}

func (d *Driver) fireEnded() {
	d.mu.Lock()
	if d.endedFired {
		d.mu.Unlock()
		return
	}
	d.endedFired = true
	fn := d.onEnded
	d.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (d *Driver) emitError(err error) {
	d.mu.Lock()
	fn := d.onError
	released := d.released
	d.mu.Unlock()
	if fn != nil && !released {
		fn(err)
	}
}

// teardownProcess asks mpv to quit, kills it after a grace period, and
// removes the socket. Idempotent per loaded process.
func (d *Driver) teardownProcess() {
	d.mu.Lock()
	if d.released || d.client == nil {
		d.released = true
		d.mu.Unlock()
		return
	}
	d.released = true
	client := d.client
	cmd := d.cmd
	socketPath := d.socketPath
	cancel := d.cancel
	d.client = nil
	d.cmd = nil
	d.socketPath = ""
	d.cancel = nil
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	// Ask nicely first; mpv exiting closes the IPC connection and gopv
	// cleans its reader up on EOF, so the client is never closed here.
	quitDone := make(chan struct{})
	go func() {
		_, _ = client.Request("quit")
		close(quitDone)
	}()
	select {
	case <-quitDone:
	case <-time.After(quitGrace):
	}

	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	if socketPath != "" {
		_ = os.Remove(socketPath)
	}
}

// buildArgs assembles the mpv command line. The URL is always last.
func buildArgs(socketPath, url string, startSeconds float64, loadUserConfig bool, extra []string) []string {
	args := []string{
		"--input-ipc-server=" + socketPath,
		"--idle=yes",
		"--no-ytdl",
		"--pause",
		"--msg-level=all=warn",
	}
	if !loadUserConfig {
		args = append(args, "--no-config")
	}
	if startSeconds > 0 {
		args = append(args, fmt.Sprintf("--start=%f", startSeconds))
	}
	args = append(args, extra...)
	args = append(args, url)
	return args
}

// waitForSocket polls for the IPC socket mpv creates on startup.
func waitForSocket(ctx context.Context, path string) error {
	timeout := time.After(ipcReadyTimeout)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout:
			return fmt.Errorf("timeout after %v", ipcReadyTimeout)
		case <-ticker.C:
			if _, err := os.Stat(path); err == nil {
				// The socket file appears slightly before mpv accepts
				// connections on it.
				time.Sleep(200 * time.Millisecond)
				return nil
			}
		}
	}
}

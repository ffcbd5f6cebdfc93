package audio

import (
	"context"
	"fmt"
	"os/exec"
	"sync"

	"github.com/work-piyush006/lifesync-ai/internal/logger"
)

// Playback is one active playback loop. Stop is idempotent and must be safe
// to call on every session exit path, including after the loop already ended.
type Playback interface {
	Stop() error
}

// Player starts looping playback of one audio file. Every Start returns its
// own Playback handle: two alarms ringing at the same instant each hold an
// independent loop, and stopping one never silences the other.
type Player interface {
	Start(ctx context.Context, path string) (Playback, error)
}

// ExecPlayer shells out to an external player command, restarting it each
// time it exits until the returned handle's Stop cancels the loop.
type ExecPlayer struct {
	// command is the player binary, invoked as "<command> <file>".
	command string
}

// NewExecPlayer creates a player that shells out to the provided command.
func NewExecPlayer(command string) *ExecPlayer {
	return &ExecPlayer{command: command}
}

// Start verifies the command is runnable and begins a playback loop.
// A missing player binary is reported to the caller so the session can fall
// back instead of ringing silently.
func (p *ExecPlayer) Start(ctx context.Context, path string) (Playback, error) {
	if _, err := exec.LookPath(p.command); err != nil {
		return nil, fmt.Errorf("player command %q: %w", p.command, err)
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	pb := &execPlayback{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go p.loop(loopCtx, path, pb.done)

	return pb, nil
}

// loop re-runs the player command until the context is canceled.
func (p *ExecPlayer) loop(ctx context.Context, path string, done chan struct{}) {
	defer close(done)

	for {
		cmd := exec.CommandContext(ctx, p.command, path)

		err := cmd.Run()
		if ctx.Err() != nil {
			return
		}

		if err != nil {
			// The command failed on its own; give up rather than spin.
			logger.ErrorKV(ctx, "Playback command failed", "path", path, "error", err)
			return
		}
	}
}

// execPlayback controls one running loop of an ExecPlayer.
type execPlayback struct {
	// mu protects cancel against concurrent Stop calls.
	mu sync.Mutex
	// cancel tears down the loop; nil once stopped.
	cancel context.CancelFunc
	// done is closed when the loop goroutine exits.
	done chan struct{}
}

// Stop cancels the loop and waits for the command to exit.
// Idempotent: stopping twice is a no-op.
func (pb *execPlayback) Stop() error {
	pb.mu.Lock()
	cancel := pb.cancel
	pb.cancel = nil
	pb.mu.Unlock()

	if cancel == nil {
		return nil
	}

	cancel()
	<-pb.done

	return nil
}

// NopPlayer is a silent Player for tests and headless configurations.
// It tracks how many handles are live so tests can observe overlap.
type NopPlayer struct {
	// mu protects the recorded state.
	mu sync.Mutex
	// active counts handles started and not yet stopped.
	active int
	// lastPath records the most recent Start argument.
	lastPath string
	// startErr forces Start to fail for fallback tests.
	startErr error
}

// NewNopPlayer creates a silent player.
func NewNopPlayer() *NopPlayer {
	return &NopPlayer{}
}

// FailStartWith makes the next Start calls return the provided error.
func (p *NopPlayer) FailStartWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startErr = err
}

// Start records the playback request and hands out a handle.
func (p *NopPlayer) Start(_ context.Context, path string) (Playback, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.startErr != nil {
		return nil, p.startErr
	}

	p.active++
	p.lastPath = path

	return &nopPlayback{player: p}, nil
}

// Playing reports whether any playback handle is still live.
func (p *NopPlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.active > 0
}

// ActivePlaybacks returns the number of live handles.
func (p *NopPlayer) ActivePlaybacks() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.active
}

// LastPath returns the most recently started source path.
func (p *NopPlayer) LastPath() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.lastPath
}

// nopPlayback is one silent handle; Stop decrements the live count once.
type nopPlayback struct {
	// mu protects stopped.
	mu sync.Mutex
	// player owns the live count.
	player *NopPlayer
	// stopped guards against double decrement.
	stopped bool
}

// Stop releases the handle. Idempotent.
func (pb *nopPlayback) Stop() error {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	if pb.stopped {
		return nil
	}

	pb.stopped = true

	pb.player.mu.Lock()
	pb.player.active--
	pb.player.mu.Unlock()

	return nil
}

var (
	_ Player = (*ExecPlayer)(nil)
	_ Player = (*NopPlayer)(nil)
)

package output

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/example/go-voice-clone/internal/audio"
)

// ErrNoPlayer is returned when no audio player command can be found.
var ErrNoPlayer = errors.New("no audio player found")

// Player plays a waveform in the background.
type Player interface {
	// Play stops whatever is playing and starts w without waiting for it.
	Play(ctx context.Context, w audio.Waveform) error
	Stop()
	Close() error
}

type process interface {
	Kill() error
	Wait() error
}

type execProcess struct{ cmd *exec.Cmd }

func (p execProcess) Kill() error { return p.cmd.Process.Kill() }
func (p execProcess) Wait() error { return p.cmd.Wait() }

var (
	lookPath     = exec.LookPath
	startProcess = startProcessImpl
)

func startProcessImpl(name string, args []string) (process, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return execProcess{cmd: cmd}, nil
}

// playerCandidates lists commands tried in order when none is configured. The
// file path is appended to each.
func playerCandidates() [][]string {
	common := [][]string{
		{"paplay"},
		{"aplay", "-q"},
		{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
	}
	if runtime.GOOS == "darwin" {
		return append([][]string{{"afplay"}}, common...)
	}
	return common
}

// ExecPlayer plays audio by writing a temporary WAV file and running an
// external command on it.
type ExecPlayer struct {
	command []string

	mu      sync.Mutex
	current process
	done    chan struct{}
}

// NewExecPlayer uses command (split on whitespace) when given, otherwise the
// first installed candidate player.
func NewExecPlayer(command string) (*ExecPlayer, error) {
	if fields := strings.Fields(command); len(fields) > 0 {
		if _, err := lookPath(fields[0]); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrNoPlayer, fields[0], err)
		}
		return &ExecPlayer{command: fields}, nil
	}

	for _, c := range playerCandidates() {
		if _, err := lookPath(c[0]); err == nil {
			return &ExecPlayer{command: c}, nil
		}
	}
	return nil, fmt.Errorf("%w: install paplay, aplay or ffplay, set --player, or use --no-sound", ErrNoPlayer)
}

// Command returns the player command without the file argument.
func (p *ExecPlayer) Command() []string {
	return append([]string(nil), p.command...)
}

func (p *ExecPlayer) Play(_ context.Context, w audio.Waveform) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	data, err := audio.EncodeWAV(w.Samples, w.SampleRate)
	if err != nil {
		return fmt.Errorf("encode playback audio: %w", err)
	}
	f, err := os.CreateTemp("", "voiceclone-play-*.wav")
	if err != nil {
		return fmt.Errorf("create playback file: %w", err)
	}
	path := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write playback file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("write playback file: %w", err)
	}

	args := append(p.command[1:len(p.command):len(p.command)], path)
	proc, err := startProcess(p.command[0], args)
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("start player %q: %w", p.command[0], err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := proc.Wait(); err != nil {
			slog.Debug("player exited", "player", p.command[0], "error", err)
		}
		os.Remove(path)
	}()
	p.current, p.done = proc, done
	return nil
}

// Stop kills the current playback, if any, and waits for it to exit.
func (p *ExecPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *ExecPlayer) stopLocked() {
	if p.current == nil {
		return
	}
	select {
	case <-p.done:
	default:
		_ = p.current.Kill()
		<-p.done
	}
	p.current, p.done = nil, nil
}

func (p *ExecPlayer) Close() error {
	p.Stop()
	return nil
}

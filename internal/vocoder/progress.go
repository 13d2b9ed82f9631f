package vocoder

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// Progress describes vocoding after a chunk has finished.
type Progress struct {
	Chunk   int // chunks done, starting at 1
	Chunks  int
	Samples int // samples generated so far
	Elapsed time.Duration
}

// Rate returns the generation rate in kHz.
func (p Progress) Rate() float64 {
	if p.Elapsed <= 0 {
		return 0
	}
	return float64(p.Samples) / p.Elapsed.Seconds() / 1000
}

// ProgressSink receives a report after every vocoded chunk. It is called
// synchronously from Infer.
type ProgressSink interface {
	Progress(Progress)
}

// NopProgress discards reports.
type NopProgress struct{}

func (NopProgress) Progress(Progress) {}

// LogProgress logs reports at debug level.
type LogProgress struct {
	Logger *slog.Logger
}

func (l LogProgress) Progress(p Progress) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("vocoder progress",
		"chunk", p.Chunk,
		"chunks", p.Chunks,
		"samples", p.Samples,
		"rate_khz", fmt.Sprintf("%.1f", p.Rate()),
	)
}

// TerminalProgress redraws a one-line progress bar on W using carriage
// returns and ends the line after the last chunk.
type TerminalProgress struct {
	W     io.Writer
	Width int
}

func (t TerminalProgress) Progress(p Progress) {
	if t.W == nil {
		return
	}
	width := t.Width
	if width <= 0 {
		width = 16
	}
	done := 0
	if p.Chunks > 0 {
		done = min(width, p.Chunk*width/p.Chunks)
	}
	bar := strings.Repeat("█", done) + strings.Repeat("░", width-done)

	fmt.Fprintf(t.W, "\r| %s %d/%d | Batch Size: 1 | Gen Rate: %.1fkHz | ", bar, p.Chunk, p.Chunks, p.Rate())
	if p.Chunk >= p.Chunks {
		fmt.Fprintln(t.W)
	}
}

package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Prompter asks questions on an output stream and reads one line per answer.
// Reading happens on a background goroutine so a blocked read does not keep
// Ask from honouring cancellation.
type Prompter struct {
	out   io.Writer
	lines chan lineResult
}

type lineResult struct {
	line string
	err  error
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{out: out, lines: make(chan lineResult)}
	go p.read(bufio.NewReader(in))
	return p
}

func (p *Prompter) read(r *bufio.Reader) {
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			if line != "" && err == io.EOF {
				p.lines <- lineResult{line: line}
			}
			p.lines <- lineResult{err: err}
			close(p.lines)
			return
		}
		p.lines <- lineResult{line: line}
	}
}

// Ask prints question and returns the next answer with surrounding
// whitespace and quote characters removed. It returns io.EOF once the input
// is exhausted.
func (p *Prompter) Ask(ctx context.Context, question string) (string, error) {
	if question != "" {
		fmt.Fprintln(p.out, question)
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-p.lines:
		if !ok {
			return "", io.EOF
		}
		if res.err != nil {
			return "", res.err
		}
		return CleanAnswer(res.line), nil
	}
}

// CleanAnswer strips whitespace and quote characters from both ends of s, as
// left by shells and drag-and-drop of file paths.
func CleanAnswer(s string) string {
	s = strings.TrimSpace(s)
	for {
		trimmed := strings.TrimSpace(strings.Trim(s, `"'`))
		if trimmed == s {
			return s
		}
		s = trimmed
	}
}

package session

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand/v2"

	"github.com/example/go-voice-clone/internal/audio"
	"github.com/example/go-voice-clone/internal/vocoder"
	"github.com/example/go-voice-clone/internal/voice"
)

// Chunking used by Validate; deliberately tiny to keep the check fast.
const (
	validateTarget  = 200
	validateOverlap = 50
)

// ValidateOptions carries the constants the self-test needs from the models.
type ValidateOptions struct {
	EncoderRate   int
	EmbeddingSize int
	// Out receives progress lines. May be nil.
	Out io.Writer
}

// Validate runs every stage once on synthetic input: the embedding of one
// second of silence, a two-utterance synthesis with a random and a zero
// embedding, and vocoding of the joined spectrograms. Any failure wraps
// ErrValidation.
func Validate(ctx context.Context, p Pipeline, opts ValidateOptions) error {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
	}

	fmt.Fprintln(out, "Running a test of your configuration...")

	fmt.Fprintln(out, "\tTesting the encoder...")
	embed, err := p.Encoder.Embed(ctx, audio.Silence(opts.EncoderRate, opts.EncoderRate))
	if err != nil {
		return fail("encoder: %v", err)
	}
	if embed.Dim() != opts.EmbeddingSize {
		return fail("encoder produced %d values, want %d", embed.Dim(), opts.EmbeddingSize)
	}
	if !embed.IsUnit(1e-3) {
		return fail("encoder embedding norm %.4f, want 1", embed.Norm())
	}

	fmt.Fprintln(out, "\tTesting the synthesizer...")
	req, err := voice.NewGenerationRequest(
		[]string{"test 1", "test 2"},
		[]voice.SpeakerEmbedding{randomUnit(opts.EmbeddingSize), voice.ZeroEmbedding(opts.EmbeddingSize)},
	)
	if err != nil {
		return fail("request: %v", err)
	}
	mels, err := p.Synth.Synthesize(ctx, req)
	if err != nil {
		return fail("synthesizer: %v", err)
	}
	if len(mels) != 2 {
		return fail("synthesizer returned %d spectrograms, want 2", len(mels))
	}

	fmt.Fprintln(out, "\tTesting the vocoder...")
	mel, err := voice.ConcatMels(mels...)
	if err != nil {
		return fail("concatenate spectrograms: %v", err)
	}
	wav, err := p.Vocoder.Infer(ctx, mel, validateTarget, validateOverlap, vocoder.NopProgress{})
	if err != nil {
		return fail("vocoder: %v", err)
	}
	if wav.Len() == 0 {
		return fail("vocoder produced no samples")
	}

	fmt.Fprint(out, "All test passed! You can now synthesize speech.\n\n")
	return nil
}

func randomUnit(dim int) voice.SpeakerEmbedding {
	e := make(voice.SpeakerEmbedding, dim)
	var sq float64
	for i := range e {
		v := rand.Float64()
		e[i] = float32(v)
		sq += v * v
	}
	if sq == 0 {
		e[0] = 1
		return e
	}
	norm := float32(1 / math.Sqrt(sq))
	for i := range e {
		e[i] *= norm
	}
	return e
}

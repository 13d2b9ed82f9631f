package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var runFFmpeg = runFFmpegImpl

// decodeWithFFmpeg has ffmpeg transcode to a mono float WAV at the source
// rate. Resampling to the encoder rate happens later, in one place.
func decodeWithFFmpeg(ctx context.Context, path string, opts LoadOptions) (Waveform, error) {
	exe := opts.FFmpegPath
	if exe == "" {
		exe = "ffmpeg"
	}

	args := []string{
		"-nostdin", "-v", "error",
		"-i", path,
		"-map_metadata", "-1",
		"-ac", "1",
		"-f", "wav", "-acodec", "pcm_f32le",
		"-",
	}

	raw, err := runFFmpeg(ctx, exe, args)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return Waveform{}, fmt.Errorf("ffmpeg executable %q not found; only .wav is supported without it: %w", exe, err)
		}
		return Waveform{}, err
	}
	if len(raw) == 0 {
		return Waveform{}, ErrEmptyAudio
	}

	w, err := DecodeWAV(raw)
	if err != nil {
		return Waveform{}, fmt.Errorf("parse ffmpeg output: %w", err)
	}
	return w, nil
}

func runFFmpegImpl(ctx context.Context, exe string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, exe, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("ffmpeg: %s: %w", msg, err)
		}
		return nil, fmt.Errorf("ffmpeg: %w", err)
	}
	return stdout.Bytes(), nil
}

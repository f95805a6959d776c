package transcoder

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
)

// Options selects the single transformation the service performs: a
// fixed-height scale with the width computed to preserve aspect ratio.
type Options struct {
	Height              int
	PreserveAspectRatio bool
}

// DefaultOptions is the pipeline's fixed 360p resize.
var DefaultOptions = Options{Height: 360, PreserveAspectRatio: true}

// FFmpeg invokes the external ffmpeg binary on one input file.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
}

func NewFFmpeg(ffmpegPath, ffprobePath string) *FFmpeg {
	return &FFmpeg{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
	}
}

// scaleFilter builds the -vf argument. -2 keeps the auto-computed width
// divisible by two, which h264 requires.
func scaleFilter(opts Options) string {
	if opts.PreserveAspectRatio {
		return fmt.Sprintf("scale=-2:%d", opts.Height)
	}
	return fmt.Sprintf("scale=%d:%d", opts.Height*16/9, opts.Height)
}

func transcodeArgs(inputPath, outputPath string, opts Options) []string {
	return []string{
		"-i", inputPath,
		"-vf", scaleFilter(opts),
		"-y",
		outputPath,
	}
}

// Start launches the transcode and returns a channel that delivers the
// single terminal outcome: nil on success, an error on failure. Exactly
// one value is sent per invocation. Cancel the context to abort.
func (f *FFmpeg) Start(ctx context.Context, inputPath, outputPath string, opts Options) <-chan error {
	done := make(chan error, 1)

	go func() {
		cmd := exec.CommandContext(ctx, f.ffmpegPath, transcodeArgs(inputPath, outputPath, opts)...)

		var stderr bytes.Buffer
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			if ctx.Err() != nil {
				done <- fmt.Errorf("ffmpeg: %w", ctx.Err())
				return
			}

			detail := lastLine(stderr.String())
			log.Error().Str("input", inputPath).Str("detail", detail).Msg("ffmpeg failed")
			done <- fmt.Errorf("ffmpeg: %w: %s", err, detail)
			return
		}

		done <- nil
	}()

	return done
}

// ExtractFrame grabs a single frame one second in, for thumbnailing.
func (f *FFmpeg) ExtractFrame(ctx context.Context, inputPath, framePath string) error {
	cmd := exec.CommandContext(ctx, f.ffmpegPath,
		"-ss", "00:00:01",
		"-i", inputPath,
		"-frames:v", "1",
		"-y",
		framePath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg frame: %w: %s", err, lastLine(stderr.String()))
	}

	return nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}

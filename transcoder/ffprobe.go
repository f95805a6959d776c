package transcoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
)

type ffProbeFormat struct {
	StreamsCount int32   `json:"nb_streams"`
	Format       string  `json:"format_name"`
	Duration     float64 `json:"duration,string"`
	Size         int64   `json:"size,string"`
}

type ffProbe struct {
	Format ffProbeFormat `json:"format"`
}

// Probe runs ffprobe on the file and returns its duration in seconds.
func (f *FFmpeg) Probe(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, f.ffprobePath,
		"-v", "error",
		"-i", path,
		"-print_format", "json",
		"-show_format",
	)

	var (
		stdout bytes.Buffer
		stderr bytes.Buffer
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe: %w: %s", err, lastLine(stderr.String()))
	}

	var out ffProbe
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return 0, fmt.Errorf("ffprobe output: %w", err)
	}

	return out.Format.Duration, nil
}

package fetch

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"media-fetch-service/internal/entity"
)

// SpotDL runs the secondary fetch engine, used for one content provider
// that the primary engine cannot serve.
type SpotDL struct {
	binaryPath string
}

func NewSpotDL(binaryPath string) *SpotDL {
	if binaryPath == "" {
		binaryPath = "spotdl"
	}
	return &SpotDL{binaryPath: binaryPath}
}

func (e *SpotDL) Fetch(ctx context.Context, rec *entity.JobRecord, dir string) error {
	args := []string{rec.SourceURL, "--output", filepath.Join(dir, "{title}.{output-ext}")}
	// collections are capped; single tracks fetch exactly one item
	if !strings.Contains(rec.SourceURL, "track") {
		args = append(args, "--limit", "10")
	}

	cmd := exec.CommandContext(ctx, e.binaryPath, args...)
	setProcessGroup(cmd)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("spotdl failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

package fetch

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"media-fetch-service/internal/entity"
)

// YtDlp runs the primary fetch engine as an external process.
type YtDlp struct {
	binaryPath string
}

func NewYtDlp(binaryPath string) *YtDlp {
	if binaryPath == "" {
		binaryPath = "yt-dlp"
	}
	return &YtDlp{binaryPath: binaryPath}
}

// Fetch downloads the job's media into dir. The error carries the process
// stderr so callers can classify the failure.
func (e *YtDlp) Fetch(ctx context.Context, rec *entity.JobRecord, dir string) error {
	opts := Options{
		Format:        rec.FormatSelector,
		AudioOnly:     rec.ContentKind == entity.KindAudio,
		Playlist:      rec.IsBatch,
		SocketTimeout: 60,
	}
	if r := Resolve(rec.SourceURL); r != nil && r.Transform != nil {
		r.Transform(&opts)
	}

	cmd := exec.CommandContext(ctx, e.binaryPath, buildArgs(rec.SourceURL, dir, opts)...)
	setProcessGroup(cmd)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("yt-dlp failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func buildArgs(url, dir string, o Options) []string {
	args := []string{
		"--quiet",
		"--no-warnings",
		"--socket-timeout", strconv.Itoa(o.SocketTimeout),
		"--paths", dir,
		"--output", "%(title)s.%(ext)s",
	}
	if o.Format != "" {
		args = append(args, "--format", o.Format)
	}
	if o.Retries > 0 {
		args = append(args, "--retries", strconv.Itoa(o.Retries))
	}
	if o.NoFlat {
		args = append(args, "--no-flat-playlist")
	}
	if o.AudioOnly {
		args = append(args, "--extract-audio", "--audio-format", "mp3", "--audio-quality", "192K")
	}
	if o.Playlist {
		args = append(args, "--yes-playlist")
	} else {
		args = append(args, "--no-playlist")
	}
	return append(args, url)
}

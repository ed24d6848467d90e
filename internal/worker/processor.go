package worker

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"media-fetch-service/internal/archive"
	"media-fetch-service/internal/entity"
	"media-fetch-service/internal/fetch"
	"media-fetch-service/internal/notify"
)

// Engine is the narrow port to an external fetch engine: given a job and a
// target directory, download the media or fail.
type Engine interface {
	Fetch(ctx context.Context, rec *entity.JobRecord, dir string) error
}

// DefaultSizeLimit is the per-file threshold above which the oversize
// compression policy kicks in.
const DefaultSizeLimit = 25 * 1024 * 1024

var mediaExts = map[string]bool{
	".mp4":  true,
	".webm": true,
	".mp3":  true,
	".ogg":  true,
	".m4a":  true,
}

// audio-only subset produced by the secondary engine
var audioExts = map[string]bool{
	".mp3": true,
	".ogg": true,
	".m4a": true,
}

type ProcessorConfig struct {
	DownloadRoot string
	SizeLimit    int64
}

// Processor runs one processing job to its terminal state. Whatever
// happens inside Execute, the working directory is removed and the
// admission slot released before it returns.
type Processor struct {
	primary   Engine
	secondary Engine
	store     RecordStore
	notifier  notify.Notifier
	slots     *Admission

	root      string
	sizeLimit int64
}

func NewProcessor(primary, secondary Engine, store RecordStore, notifier notify.Notifier, slots *Admission, cfg ProcessorConfig) *Processor {
	limit := cfg.SizeLimit
	if limit <= 0 {
		limit = DefaultSizeLimit
	}
	return &Processor{
		primary:   primary,
		secondary: secondary,
		store:     store,
		notifier:  notifier,
		slots:     slots,
		root:      cfg.DownloadRoot,
		sizeLimit: limit,
	}
}

// Execute runs rec to completion or failure. No error crosses this
// boundary: every failure becomes a terminal failed record plus a
// notification.
func (p *Processor) Execute(ctx context.Context, rec *entity.JobRecord) {
	start := time.Now()
	dir := filepath.Join(p.root, rec.ID)

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[executor] job_id=%s panic=%v", rec.ID, r)
			p.fail(ctx, rec, entity.FailFetch, fmt.Sprintf("internal error: %v", r))
		}
		if err := os.RemoveAll(dir); err != nil {
			log.Printf("[executor] job_id=%s workdir cleanup error=%v", rec.ID, err)
		}
		p.slots.Release(rec.ID)
	}()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		p.fail(ctx, rec, entity.FailFetch, "could not create working directory: "+err.Error())
		return
	}

	p.notifier.Started(ctx, rec)

	eng := p.primary
	exts := mediaExts
	if fetch.UsesSecondary(rec.SourceURL) {
		eng = p.secondary
		exts = audioExts
	}

	if err := eng.Fetch(ctx, rec, dir); err != nil {
		kind := entity.FailFetch
		if fetch.IsAccessRestricted(err) {
			kind = entity.FailAccessRestricted
		}
		p.fail(ctx, rec, kind, err.Error())
		return
	}
	if ctx.Err() != nil {
		// the deadline fired as the fetch was finishing
		return
	}

	files := scanMedia(dir, exts)
	if len(files) == 0 {
		p.fail(ctx, rec, entity.FailNoOutput, "no output produced")
		return
	}

	sendable := files
	if len(sendable) > entity.MaxResultFiles {
		sendable = sendable[:entity.MaxResultFiles]
	}

	infos := make([]entity.FileInfo, 0, len(sendable))
	for _, f := range sendable {
		info := entity.FileInfo{Name: f.name, Size: f.size}

		if f.size > p.sizeLimit {
			zipPath, zipSize, err := archive.CompressFile(f.path)
			if err != nil || zipSize > p.sizeLimit {
				if err != nil {
					log.Printf("[executor] job_id=%s compress %s error=%v", rec.ID, f.name, err)
				}
				// one oversized file does not fail the whole job
				p.notifier.TooLarge(ctx, rec, info)
				continue
			}
			info.Name = filepath.Base(zipPath)
			info.Compressed = true
			info.CompressedSize = zipSize
		}

		infos = append(infos, info)
	}

	if len(files) > entity.MaxResultFiles {
		p.notifier.Truncated(ctx, rec, len(files), entity.MaxResultFiles)
	}

	if rec.Complete(infos, len(files), time.Now().UTC()) {
		p.store.Upsert(ctx, rec)
		p.notifier.Completed(ctx, rec)
	}

	log.Printf("[executor] job_id=%s status=%s files=%d duration_ms=%d",
		rec.ID, rec.Status, len(infos), time.Since(start).Milliseconds())
}

// fail records a terminal failure. Once the job context is dead the
// deadline supervisor owns the record, so nothing is written here.
func (p *Processor) fail(ctx context.Context, rec *entity.JobRecord, kind entity.FailureKind, msg string) {
	if ctx.Err() != nil {
		return
	}
	if !rec.Fail(kind, msg, time.Now().UTC()) {
		return
	}
	p.store.Upsert(ctx, rec)
	p.notifier.Failed(ctx, rec)
	log.Printf("[executor] job_id=%s status=failed kind=%s error=%q", rec.ID, kind, rec.Error)
}

type mediaFile struct {
	path string
	name string
	size int64
}

// scanMedia walks dir for files with a known media extension, in lexical
// path order so result sets are deterministic.
func scanMedia(dir string, exts map[string]bool) []mediaFile {
	var files []mediaFile

	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !exts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, mediaFile{path: path, name: d.Name(), size: info.Size()})
		return nil
	})

	sort.Slice(files, func(i, j int) bool { return files[i].path < files[j].path })
	return files
}

package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CompressFile writes a deflate zip next to path containing that single
// file and returns the archive path and size.
func CompressFile(path string) (string, int64, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer src.Close()

	zipPath := path + ".zip"
	out, err := os.Create(zipPath)
	if err != nil {
		return "", 0, fmt.Errorf("create %s: %w", zipPath, err)
	}

	zw := zip.NewWriter(out)
	w, err := zw.Create(filepath.Base(path))
	if err == nil {
		_, err = io.Copy(w, src)
	}
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(zipPath)
		return "", 0, fmt.Errorf("compress %s: %w", path, err)
	}

	info, err := os.Stat(zipPath)
	if err != nil {
		return "", 0, err
	}
	return zipPath, info.Size(), nil
}

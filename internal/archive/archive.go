// Package archive bundles downloaded judgments into a zip file.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// BuildZip writes the named files into a zip archive under destDir and
// returns the archive path. The archive name carries a timestamp so
// consecutive runs never clobber each other. Duplicate entry names get a
// numeric suffix before the extension.
func BuildZip(files []string, destDir string, now time.Time) (string, error) {
	if len(files) == 0 {
		return "", fmt.Errorf("no files to archive")
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}

	name := fmt.Sprintf("cbosa_judgments_%s.zip", now.Format("20060102_150405"))
	path := filepath.Join(destDir, name)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}
	zw := zip.NewWriter(out)

	seen := make(map[string]int, len(files))
	for _, file := range files {
		if err := addFile(zw, file, seen); err != nil {
			zw.Close()
			out.Close()
			os.Remove(path)
			return "", err
		}
	}

	if err := zw.Close(); err != nil {
		out.Close()
		return "", fmt.Errorf("finalize archive: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close archive: %w", err)
	}
	return path, nil
}

func addFile(zw *zip.Writer, file string, seen map[string]int) error {
	in, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open %s: %w", file, err)
	}
	defer in.Close()

	entry := uniqueName(filepath.Base(file), seen)
	w, err := zw.Create(entry)
	if err != nil {
		return fmt.Errorf("add %s: %w", entry, err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("write %s: %w", entry, err)
	}
	return nil
}

func uniqueName(base string, seen map[string]int) string {
	seen[base]++
	if seen[base] == 1 {
		return base
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return fmt.Sprintf("%s_%d%s", stem, seen[base], ext)
}

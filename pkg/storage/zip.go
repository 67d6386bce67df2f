package storage

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ZipDir packages the contents of srcDir into a zip archive at zipPath.
// The archive itself is skipped when it lives inside srcDir.
func (s *Storage) ZipDir(srcDir, zipPath string) error {
	out, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("error creating archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	absZip, err := filepath.Abs(zipPath)
	if err != nil {
		absZip = zipPath
	}

	err = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if abs, absErr := filepath.Abs(path); absErr == nil && abs == absZip {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}

		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	})
	if err != nil {
		zw.Close()
		return fmt.Errorf("error packaging directory: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("error finalizing archive: %w", err)
	}
	return nil
}

// Package bundle packs a results directory into a single .tar.zst archive so
// one run's artifacts can be shared or uploaded as one file.
package bundle

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Extension is the archive suffix for bundles.
const Extension = ".tar.zst"

// DefaultName returns the archive name for a results directory,
// e.g. results-20260615-143045.tar.zst.
func DefaultName(resultsDir string, ts time.Time) string {
	base := filepath.Base(filepath.Clean(resultsDir))
	return fmt.Sprintf("%s-%s%s", base, ts.Format("20060102-150405"), Extension)
}

// Create writes a zstd-compressed tarball of every regular file directly in
// resultsDir to outPath. Subdirectories are skipped: a results directory is
// flat, and anything nested in it was not written by this tool.
func Create(resultsDir, outPath string) error {
	entries, err := os.ReadDir(resultsDir)
	if err != nil {
		return fmt.Errorf("reading results directory %s: %w", resultsDir, err)
	}

	var files []os.DirEntry
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, entry)
	}
	if len(files) == 0 {
		return fmt.Errorf("nothing to bundle in %s", resultsDir)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating archive %s: %w", outPath, err)
	}

	if err := writeArchive(out, resultsDir, files); err != nil {
		out.Close()
		os.Remove(outPath) // don't leave a truncated archive behind
		return err
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("closing archive %s: %w", outPath, err)
	}

	return nil
}

func writeArchive(w io.Writer, dir string, files []os.DirEntry) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}
	tw := tar.NewWriter(zw)

	for _, entry := range files {
		if err := addFile(tw, dir, entry); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finishing tar stream: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finishing zstd stream: %w", err)
	}

	return nil
}

func addFile(tw *tar.Writer, dir string, entry os.DirEntry) error {
	info, err := entry.Info()
	if err != nil {
		return fmt.Errorf("stat %s: %w", entry.Name(), err)
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("building tar header for %s: %w", entry.Name(), err)
	}
	hdr.Name = entry.Name()

	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("writing tar header for %s: %w", entry.Name(), err)
	}

	f, err := os.Open(filepath.Join(dir, entry.Name()))
	if err != nil {
		return fmt.Errorf("opening %s: %w", entry.Name(), err)
	}
	defer f.Close()

	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("archiving %s: %w", entry.Name(), err)
	}

	return nil
}

// Extract unpacks an archive created by Create into destDir, creating the
// directory if needed. Entry names are flattened to their base name so a
// crafted archive cannot write outside destDir.
func Extract(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", archivePath, err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("creating zstd reader: %w", err)
	}
	defer zr.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("creating destination %s: %w", destDir, err)
	}

	tr := tar.NewReader(zr)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar stream: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		if err := extractFile(tr, filepath.Join(destDir, filepath.Base(hdr.Name))); err != nil {
			return err
		}
	}
}

func extractFile(tr *tar.Reader, path string) error {
	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if _, err := io.Copy(dst, tr); err != nil {
		dst.Close()
		return fmt.Errorf("extracting %s: %w", path, err)
	}

	if err := dst.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}

	return nil
}

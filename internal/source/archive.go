package source

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
)

// ArchiveExtensions are the recognized archive suffixes, checked in order.
var ArchiveExtensions = []string{".tgz", ".tar.gz"}

// FindArchive returns the archive to extract from dir. When more than one
// candidate exists the first in lexical order wins and the rest are logged.
func FindArchive(dir string, log *slog.Logger) (string, error) {
	log = orDiscard(log)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", &SourceNotFoundError{Path: dir, What: "archive", Err: err}
	}

	var candidates []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if hasArchiveExt(e.Name()) {
			candidates = append(candidates, e.Name())
		}
	}
	if len(candidates) == 0 {
		return "", &SourceNotFoundError{Path: dir, What: "archive"}
	}
	sort.Strings(candidates)
	for _, extra := range candidates[1:] {
		log.Warn("ignoring additional archive", "name", extra)
	}
	return filepath.Join(dir, candidates[0]), nil
}

func hasArchiveExt(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range ArchiveExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Extract unpacks a gzip-compressed tar archive into dest. Every member is
// logged with its modification time before it is written. Only regular files
// and directories are materialized; members escaping dest are rejected.
//
// It returns the paths of the files written, in archive order.
func Extract(ctx context.Context, archive, dest string, log *slog.Logger) ([]string, error) {
	log = orDiscard(log)

	f, err := os.Open(archive)
	if err != nil {
		return nil, &SourceNotFoundError{Path: archive, What: "archive", Err: err}
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("extract %s: gzip: %w", archive, err)
	}
	defer zr.Close()

	log.Info("Extracting source files …", "archive", filepath.Base(archive))

	root, err := filepath.Abs(dest)
	if err != nil {
		return nil, fmt.Errorf("extract: resolve %s: %w", dest, err)
	}

	var written []string
	tr := tar.NewReader(zr)
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return written, fmt.Errorf("extract %s: %w", archive, err)
		}

		log.Info("archive member", "name", hdr.Name, "last_modified", hdr.ModTime.Format(time.ANSIC))

		target := filepath.Join(root, filepath.Clean("/"+hdr.Name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return written, fmt.Errorf("extract %s: member %q escapes destination", archive, hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return written, fmt.Errorf("extract: mkdir %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := writeMember(tr, target, hdr.FileInfo().Mode()); err != nil {
				return written, fmt.Errorf("extract: %s: %w", hdr.Name, err)
			}
			written = append(written, target)
		default:
			log.Warn("skipping archive member", "name", hdr.Name, "type", string(hdr.Typeflag))
		}
	}
	return written, nil
}

func writeMember(r io.Reader, target string, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	perm := mode.Perm()
	if perm == 0 {
		perm = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// ListCSV logs and returns the CSV files found directly in dir.
func ListCSV(dir string, log *slog.Logger) ([]string, error) {
	log = orDiscard(log)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &SourceNotFoundError{Path: dir, What: "csv", Err: err}
	}
	var out []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(strings.ToLower(e.Name()), "csv") {
			continue
		}
		log.Info(fmt.Sprintf("%s … ✓", e.Name()))
		out = append(out, e.Name())
	}
	return out, nil
}

func orDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}

// Package archive implements the archiving variant of the collector: the
// raw result files are staged, zipped, merged back into the target
// directory and finally removed.
package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cgviz/qcmpost/internal/collect"
	"go.uber.org/zap"
)

// DefaultRawDir is the staging subdirectory.
const DefaultRawDir = "raw"

// DefaultAuxiliary are the files copied back next to the merged outputs.
var DefaultAuxiliary = []string{"qcmKpis.*.json", "*.obj", "*.mtl"}

var (
	// ErrNoArchive is returned when Options.Archive is empty.
	ErrNoArchive = errors.New("archive: destination not set")
	// ErrArchiveInRaw is returned when the zip destination lies inside the
	// raw directory, which is removed at the end of the run.
	ErrArchiveInRaw = errors.New("archive: destination inside raw directory")
)

// Options configure ProcessAll.
type Options struct {
	// RawDir is the staging subdirectory name. Empty means DefaultRawDir.
	RawDir string
	// Archive is the zip destination. Relative paths resolve against the
	// process working directory.
	Archive string
	// Auxiliary are glob patterns of raw files copied back to the target.
	// Nil means DefaultAuxiliary.
	Auxiliary []string
	Collect   collect.Options
	Logger    *zap.Logger
}

// ProcessAll stages every file of dir into dir/raw, zips raw into
// opts.Archive, merges the pov and trace files into dir, copies the
// auxiliary files back and removes raw. Steps are not transactional: on
// error the raw directory is left for inspection.
func ProcessAll(dir string, opts Options) error {
	if opts.Archive == "" {
		return ErrNoArchive
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	rawName := opts.RawDir
	if rawName == "" {
		rawName = DefaultRawDir
	}
	aux := opts.Auxiliary
	if aux == nil {
		aux = DefaultAuxiliary
	}
	copts := opts.Collect
	if copts.Logger == nil {
		copts.Logger = log
	}
	raw := filepath.Join(dir, rawName)
	if err := checkDest(raw, opts.Archive); err != nil {
		return err
	}

	log.Info("staging raw files", zap.String("dir", dir), zap.String("raw", raw))
	moved, err := Stage(dir, raw)
	if err != nil {
		return err
	}
	log.Info("staged", zap.Int("files", len(moved)))

	log.Info("zipping raw files", zap.String("archive", opts.Archive))
	n, err := Zip(raw, opts.Archive)
	if err != nil {
		return err
	}
	log.Info("zipped", zap.Int("entries", n))

	for _, f := range collect.Families {
		log.Info("collecting", zap.Stringer("family", f))
		paths, err := collect.Run(raw, dir, f, copts)
		if err != nil {
			return err
		}
		log.Info("collected", zap.Stringer("family", f), zap.Int("files", len(paths)))
	}

	log.Info("copying auxiliary files", zap.Strings("patterns", aux))
	copied, err := CopyMatching(raw, dir, aux)
	if err != nil {
		return err
	}
	log.Info("copied", zap.Int("files", len(copied)))

	log.Info("removing raw files", zap.String("raw", raw))
	if err := os.RemoveAll(raw); err != nil {
		return fmt.Errorf("archive: remove %s: %w", raw, err)
	}
	return nil
}

// checkDest fails with ErrArchiveInRaw when dest is raw or below it.
func checkDest(raw, dest string) error {
	rawAbs, err := filepath.Abs(raw)
	if err != nil {
		return fmt.Errorf("archive: resolve %s: %w", raw, err)
	}
	destAbs, err := filepath.Abs(dest)
	if err != nil {
		return fmt.Errorf("archive: resolve %s: %w", dest, err)
	}
	rel, err := filepath.Rel(rawAbs, destAbs)
	if err != nil {
		return nil // different volumes
	}
	if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
		return fmt.Errorf("%w: %s", ErrArchiveInRaw, dest)
	}
	return nil
}

// Stage creates raw if needed and moves every regular file directly in dir
// into it. The directory is listed once, so files appearing later are not
// moved. It returns the moved names.
func Stage(dir, raw string) ([]string, error) {
	if err := os.MkdirAll(raw, 0777); err != nil {
		return nil, fmt.Errorf("archive: create %s: %w", raw, err)
	}
	fis, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("archive: list %s: %w", dir, err)
	}
	var moved []string
	for _, fi := range fis {
		if !fi.Type().IsRegular() {
			continue
		}
		from := filepath.Join(dir, fi.Name())
		to := filepath.Join(raw, fi.Name())
		if err := os.Rename(from, to); err != nil {
			return moved, fmt.Errorf("archive: move %s: %w", from, err)
		}
		moved = append(moved, fi.Name())
	}
	return moved, nil
}

// CopyMatching copies the regular files in src matching any of patterns
// into dst. A file matching several patterns is copied once. It returns
// the copied names.
func CopyMatching(src, dst string, patterns []string) ([]string, error) {
	seen := map[string]bool{}
	var copied []string
	for _, pat := range patterns {
		names, err := collect.Glob(src, pat)
		if err != nil {
			return copied, fmt.Errorf("archive: scan %s: %w", src, err)
		}
		for _, name := range names {
			if seen[name] {
				continue
			}
			seen[name] = true
			if err := copyFile(filepath.Join(src, name), filepath.Join(dst, name)); err != nil {
				return copied, err
			}
			copied = append(copied, name)
		}
	}
	return copied, nil
}

func copyFile(from, to string) error {
	r, err := os.Open(from)
	if err != nil {
		return fmt.Errorf("archive: copy %s: %w", from, err)
	}
	defer r.Close()
	w, err := os.OpenFile(to, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return fmt.Errorf("archive: copy %s: %w", from, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("archive: copy %s: %w", from, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("archive: copy %s: %w", from, err)
	}
	return nil
}

package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Zip writes every regular file under src into a new zip archive at dest.
// Entry names are relative to src. It returns the number of entries.
func Zip(src, dest string) (int, error) {
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0666)
	if err != nil {
		return 0, fmt.Errorf("archive: create %s: %w", dest, err)
	}
	zw := zip.NewWriter(f)
	n, err := addTree(zw, src)
	if err != nil {
		zw.Close()
		f.Close()
		return n, err
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return n, fmt.Errorf("archive: finish %s: %w", dest, err)
	}
	if err := f.Close(); err != nil {
		return n, fmt.Errorf("archive: close %s: %w", dest, err)
	}
	return n, nil
}

func addTree(zw *zip.Writer, src string) (int, error) {
	var n int
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if err := addFile(zw, path, filepath.ToSlash(rel)); err != nil {
			return err
		}
		n++
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("archive: zip %s: %w", src, err)
	}
	return n, nil
}

func addFile(zw *zip.Writer, path, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	r, err := os.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()
	_, err = io.Copy(w, r)
	return err
}

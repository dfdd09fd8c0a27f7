// Package pack handles the bacpac container: extraction, repackaging,
// manifest checksum repair and runtime-data cleanup. It knows nothing about
// the schema merge itself.
package pack

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ModelFileName is the schema content member every package must carry.
const ModelFileName = "model.xml"

var (
	// ErrBadArchive means the input file is not a valid zip container.
	ErrBadArchive = errors.New("not a valid package archive")
	// ErrModelMissing means the archive extracted fine but holds no model.xml.
	ErrModelMissing = errors.New("model.xml not found in package")
)

// Extract unpacks the package into destDir/<name>_extracted and returns the
// path of the extracted model.xml together with the extraction directory.
// Every member is written out, including zero-byte and binary files.
func Extract(archivePath, destDir string) (modelPath, extractDir string, err error) {
	if _, err := os.Stat(archivePath); err != nil {
		return "", "", fmt.Errorf("package %s: %w", archivePath, err)
	}

	base := filepath.Base(archivePath)
	extractDir = filepath.Join(destDir, strings.TrimSuffix(base, filepath.Ext(base))+"_extracted")
	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return "", "", err
	}

	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s", ErrBadArchive, archivePath)
	}
	defer r.Close()

	for _, f := range r.File {
		if err := extractMember(f, extractDir); err != nil {
			return "", extractDir, err
		}
	}

	modelPath, err = findModel(extractDir)
	if err != nil {
		return "", extractDir, err
	}
	return modelPath, extractDir, nil
}

func extractMember(f *zip.File, destDir string) error {
	target := filepath.Join(destDir, filepath.FromSlash(f.Name))
	// Reject members that would escape the extraction root.
	if rel, err := filepath.Rel(destDir, target); err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("%w: illegal member path %q", ErrBadArchive, f.Name)
	}

	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to extract %s: %w", f.Name, err)
	}
	return dst.Close()
}

// findModel locates model.xml at the extraction root, falling back to a walk
// for packages that nest their content.
func findModel(extractDir string) (string, error) {
	direct := filepath.Join(extractDir, ModelFileName)
	if _, err := os.Stat(direct); err == nil {
		return direct, nil
	}

	var found string
	err := filepath.WalkDir(extractDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == ModelFileName {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", ErrModelMissing
	}
	return found, nil
}

// Create zips the whole srcDir tree into archivePath. The archive is written
// to a temporary file beside the target and renamed into place, so a reader
// never observes a partially written package.
func Create(srcDir, archivePath string) error {
	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(archivePath), filepath.Base(archivePath)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	zw := zip.NewWriter(tmp)
	err = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:   filepath.ToSlash(rel),
			Method: zip.Deflate,
		})
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(w, src)
		return err
	})
	if err != nil {
		zw.Close()
		tmp.Close()
		return fmt.Errorf("failed to package %s: %w", srcDir, err)
	}

	if err := zw.Close(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, archivePath)
}

package pack

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ManifestFileName is the companion file carrying the content checksum.
const ManifestFileName = "Origin.xml"

var (
	// ErrManifestMissing means the extracted package has no Origin.xml.
	ErrManifestMissing = errors.New("manifest Origin.xml not found")
	// ErrChecksumField means the manifest has no recognizable checksum field
	// for the model content; the file is left untouched.
	ErrChecksumField = errors.New("checksum field not found in manifest")
)

var checksumPattern = regexp.MustCompile(`(<Checksum Uri="/model\.xml">)[A-Fa-f0-9]+(</Checksum>)`)

// FileDigest computes the SHA-256 digest of a file as uppercase hex, the
// representation the package manifest stores.
func FileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return strings.ToUpper(fmt.Sprintf("%x", h.Sum(nil))), nil
}

// RepairManifest recomputes the model file's digest and patches the checksum
// field inside the manifest in extractDir. All other manifest bytes are
// preserved exactly. A missing manifest or missing field is reported as an
// error without any partial write; callers treat it as a warning because the
// package can still ship with a stale checksum.
func RepairManifest(extractDir, modelPath string) (string, error) {
	manifestPath := filepath.Join(extractDir, ManifestFileName)
	if _, err := os.Stat(manifestPath); err != nil {
		return "", fmt.Errorf("%w: %s", ErrManifestMissing, manifestPath)
	}

	digest, err := FileDigest(modelPath)
	if err != nil {
		return "", err
	}

	content, err := os.ReadFile(manifestPath)
	if err != nil {
		return "", err
	}

	if !checksumPattern.Match(content) {
		return digest, ErrChecksumField
	}
	replaced := checksumPattern.ReplaceAll(content, []byte("${1}"+digest+"${2}"))

	if err := os.WriteFile(manifestPath, replaced, 0o644); err != nil {
		return digest, err
	}
	return digest, nil
}

package pack_test

import (
	"os"
	"path/filepath"
	"testing"

	"dac-sync/internal/pack"

	"github.com/stretchr/testify/require"
)

// SHA-256 of the ASCII string "hello", uppercased as the manifest stores it.
const helloDigest = "2CF24DBA5FB0A30E26E83B2AC5B9E29E1B161E5C1FA7425E73043362938B9824"

func TestFileDigest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.xml")
	writeFile(t, path, []byte("hello"))

	digest, err := pack.FileDigest(path)
	require.NoError(t, err)
	require.Equal(t, helloDigest, digest)
}

func TestRepairManifest_PatchesChecksumOnly(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.xml")
	writeFile(t, modelPath, []byte("hello"))

	prefix := `<?xml version="1.0"?><DacOrigin><Checksums>`
	suffix := `</Checksums><Operation>Export</Operation></DacOrigin>`
	manifest := prefix + `<Checksum Uri="/model.xml">0123456789ABCDEF0123456789ABCDEF</Checksum>` + suffix
	writeFile(t, filepath.Join(dir, "Origin.xml"), []byte(manifest))

	digest, err := pack.RepairManifest(dir, modelPath)
	require.NoError(t, err)
	require.Equal(t, helloDigest, digest)

	got, err := os.ReadFile(filepath.Join(dir, "Origin.xml"))
	require.NoError(t, err)
	require.Equal(t,
		prefix+`<Checksum Uri="/model.xml">`+helloDigest+`</Checksum>`+suffix,
		string(got))

	// Repair agrees with an independent recomputation.
	recomputed, err := pack.FileDigest(modelPath)
	require.NoError(t, err)
	require.Contains(t, string(got), recomputed)
}

func TestRepairManifest_MissingManifest(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.xml")
	writeFile(t, modelPath, []byte("hello"))

	_, err := pack.RepairManifest(dir, modelPath)
	require.ErrorIs(t, err, pack.ErrManifestMissing)
}

func TestRepairManifest_FieldNotFound(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.xml")
	writeFile(t, modelPath, []byte("hello"))

	manifest := `<DacOrigin><Checksum Uri="/other.xml">ABCD</Checksum></DacOrigin>`
	writeFile(t, filepath.Join(dir, "Origin.xml"), []byte(manifest))

	_, err := pack.RepairManifest(dir, modelPath)
	require.ErrorIs(t, err, pack.ErrChecksumField)

	// No partial write: the manifest is byte-identical.
	got, err := os.ReadFile(filepath.Join(dir, "Origin.xml"))
	require.NoError(t, err)
	require.Equal(t, manifest, string(got))
}

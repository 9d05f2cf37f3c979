package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathscout/pkg/finder"
)

func write(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestChecksum(t *testing.T) {
	p := write(t, t.TempDir(), "hello.txt", []byte("hello"))

	tests := map[string]string{
		"sha256": "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		"SHA1":   "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d",
		"md5":    "5d41402abc4b2a76b9719d911017c592",
		"crc32":  "3610a686",
	}
	for algo, want := range tests {
		got, err := Checksum(p, algo)
		require.NoError(t, err, algo)
		assert.Equal(t, want, got, algo)
	}

	_, err := Checksum(p, "whirlpool")
	assert.Error(t, err)

	_, err = Checksum(filepath.Join(t.TempDir(), "missing"), "sha256")
	assert.Error(t, err)
}

func TestIsBinary(t *testing.T) {
	dir := t.TempDir()

	text := write(t, dir, "a.txt", []byte("plain text\nwith lines\n"))
	bin := write(t, dir, "a.dat", []byte{0x7f, 'E', 'L', 'F', 0, 0, 1})
	empty := write(t, dir, "empty", nil)
	utf8 := write(t, dir, "u.txt", []byte("héllo wörld ✓"))
	byExt := write(t, dir, "logo.png", []byte("not really a png"))

	for path, want := range map[string]bool{text: false, bin: true, empty: false, utf8: false, byExt: true} {
		got, err := IsBinary(path)
		require.NoError(t, err)
		assert.Equal(t, want, got, filepath.Base(path))
	}
}

func TestAttach(t *testing.T) {
	dir := t.TempDir()
	p := write(t, dir, "hello.txt", []byte("hello"))

	r := finder.Result{RelativePath: "hello.txt", SourcePath: p, Loader: "local"}
	require.NoError(t, Attach(&r, Options{Checksum: "sha256", DetectBinary: true}))

	assert.EqualValues(t, 5, r.Metadata[KeySize])
	assert.Equal(t, false, r.Metadata[KeyBinary])
	assert.Equal(t, "sha256", r.Metadata[KeyChecksumAlgorithm])
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", r.Metadata[KeyChecksum])
	assert.NotEmpty(t, r.Metadata[KeyModTime])
	assert.NotContains(t, r.Metadata, KeySymlinkTarget)
}

func TestAttachSymlink(t *testing.T) {
	dir := t.TempDir()
	p := write(t, dir, "target.txt", []byte("abc"))
	link := filepath.Join(dir, "link.txt")
	if err := os.Symlink(p, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	r := finder.Result{RelativePath: "link.txt", SourcePath: link}
	require.NoError(t, Attach(&r, Options{}))
	assert.Equal(t, p, r.Metadata[KeySymlinkTarget])
	assert.EqualValues(t, 3, r.Metadata[KeySize])
}

func TestAttachChecksumError(t *testing.T) {
	p := write(t, t.TempDir(), "x", []byte("x"))
	r := finder.Result{SourcePath: p}

	err := Attach(&r, Options{Checksum: "bogus"})
	require.Error(t, err)
	assert.Contains(t, r.Metadata[KeyChecksumError], "bogus")
	assert.NotContains(t, r.Metadata, KeyChecksum)
}

func TestAttachAll(t *testing.T) {
	dir := t.TempDir()
	var results []finder.Result
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		results = append(results, finder.Result{RelativePath: name, SourcePath: write(t, dir, name, []byte(name))})
	}
	results = append(results, finder.Result{RelativePath: "gone", SourcePath: filepath.Join(dir, "gone")})

	err := AttachAll(results, Options{Checksum: "md5"}, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gone")

	for _, r := range results[:5] {
		assert.Len(t, r.Metadata[KeyChecksum], 32, r.RelativePath)
	}
	assert.Nil(t, results[5].Metadata)

	assert.NoError(t, AttachAll(results[:5], Options{}, 0))
}

package ignore

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestResolverHierarchy(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "ignored.txt\n*.md\n")
	writeFile(t, root, "nested/.gitignore", "!keep.md\n")

	r := NewResolver(root, nil)

	check := func(rel string) bool {
		t.Helper()
		ignored, err := r.ShouldIgnore(filepath.Join(root, filepath.FromSlash(rel)), rel)
		require.NoError(t, err)
		return ignored
	}

	assert.True(t, check("ignored.txt"))
	assert.True(t, check("nested/ignored.txt"))
	assert.True(t, check("README.md"))
	assert.False(t, check("nested/keep.md"))
	assert.True(t, check("nested/other.md"))
	assert.False(t, check("alpha.txt"))
}

func TestResolverDeeperOverridesShallower(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "!*.log\n")
	writeFile(t, root, "a/.gitignore", "*.log\n")
	writeFile(t, root, "a/b/.gitignore", "!debug.log\n")

	r := NewResolver(root, nil)
	cases := map[string]bool{
		"x.log":         false,
		"a/x.log":       true,
		"a/b/x.log":     true,
		"a/b/debug.log": false,
	}
	for rel, want := range cases {
		got, err := r.ShouldIgnore(filepath.Join(root, filepath.FromSlash(rel)), rel)
		require.NoError(t, err)
		assert.Equal(t, want, got, rel)
	}
}

func TestResolverReadsBothIgnoreFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "*.gen\nsecret.txt\n")
	writeFile(t, root, ".pathscoutignore", "!keep.gen\n")

	r := NewResolver(root, nil)
	rules, err := r.RulesFor("")
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, filepath.Join(root, ".gitignore"), rules[0].Source)
	assert.Equal(t, filepath.Join(root, ".pathscoutignore"), rules[2].Source)

	ignored, err := r.ShouldIgnore(filepath.Join(root, "keep.gen"), "keep.gen")
	require.NoError(t, err)
	assert.False(t, ignored)

	ignored, err = r.ShouldIgnore(filepath.Join(root, "secret.txt"), "secret.txt")
	require.NoError(t, err)
	assert.True(t, ignored)
}

func TestResolverCachesPerInstance(t *testing.T) {
	root := t.TempDir()
	gi := writeFile(t, root, ".gitignore", "*.tmp\n")

	r := NewResolver(root, nil)
	ignored, err := r.ShouldIgnore(filepath.Join(root, "a.tmp"), "a.tmp")
	require.NoError(t, err)
	require.True(t, ignored)

	require.NoError(t, os.WriteFile(gi, []byte(""), 0o644))

	ignored, err = r.ShouldIgnore(filepath.Join(root, "a.tmp"), "a.tmp")
	require.NoError(t, err)
	assert.True(t, ignored, "cached rules are reused within one resolver")

	fresh := NewResolver(root, nil)
	ignored, err = fresh.ShouldIgnore(filepath.Join(root, "a.tmp"), "a.tmp")
	require.NoError(t, err)
	assert.False(t, ignored, "a new resolver does not observe another's cache")
}

func TestResolverOutsideRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "*\n")

	r := NewResolver(filepath.Join(root, "sub"), nil)
	ignored, err := r.ShouldIgnore(filepath.Join(root, "x.txt"), "../x.txt")
	require.NoError(t, err)
	assert.False(t, ignored)
}

func TestResolverUnreadableIgnoreFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("directory-as-file read error is platform specific")
	}
	root := t.TempDir()
	// A directory named like an ignore file cannot be read as a file.
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".gitignore"), 0o755))

	r := NewResolver(root, nil)
	_, err := r.ShouldIgnore(filepath.Join(root, "a.txt"), "a.txt")
	assert.Error(t, err)
}

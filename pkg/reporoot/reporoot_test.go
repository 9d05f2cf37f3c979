package reporoot

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathscout/pkg/fserrors"
	"pathscout/pkg/pathsafe"
)

func mkdir(t *testing.T, parts ...string) string {
	t.Helper()
	p := filepath.Join(parts...)
	require.NoError(t, os.MkdirAll(p, 0o755))
	return p
}

func touch(t *testing.T, parts ...string) {
	t.Helper()
	p := filepath.Join(parts...)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, nil, 0o644))
}

// nestedRepos builds base/.git and base/sub/.git with a start at base/sub/pkg/cmd.
func nestedRepos(t *testing.T) (base, sub, start string) {
	t.Helper()
	base = t.TempDir()
	mkdir(t, base, ".git")
	sub = mkdir(t, base, "sub")
	mkdir(t, sub, ".git")
	start = mkdir(t, sub, "pkg", "cmd")
	return base, sub, start
}

func TestFindNearestMarker(t *testing.T) {
	base, sub, start := nestedRepos(t)

	got, err := FindRepositoryRoot(start, GitMarkers, Options{Boundary: base})
	require.NoError(t, err)
	assert.Equal(t, sub, got)
}

func TestFindOutermostMarker(t *testing.T) {
	base, _, start := nestedRepos(t)

	got, err := FindRepositoryRoot(start, GitMarkers, Options{Boundary: base, Outermost: true})
	require.NoError(t, err)
	assert.Equal(t, base, got)
}

func TestStartDirectoryItselfCounts(t *testing.T) {
	base, sub, _ := nestedRepos(t)

	got, err := FindRepositoryRoot(sub, GitMarkers, Options{Boundary: base})
	require.NoError(t, err)
	assert.Equal(t, sub, got)
}

func TestMarkerPriorityAndFiles(t *testing.T) {
	base := t.TempDir()
	touch(t, base, "go.mod")
	start := mkdir(t, base, "internal", "x")

	got, err := FindRepositoryRoot(start, []string{"package.json", "go.mod"}, Options{Boundary: base})
	require.NoError(t, err)
	assert.Equal(t, base, got)
}

func TestMaxDepthLimitsSearch(t *testing.T) {
	base := t.TempDir()
	mkdir(t, base, ".git")
	start := mkdir(t, base, "1", "2", "3", "4", "5")

	_, err := FindRepositoryRoot(start, GitMarkers, Options{Boundary: base, MaxDepth: 2})
	require.Error(t, err)
	require.True(t, errors.Is(err, fserrors.ErrRepositoryNotFound))

	var fe *fserrors.Error
	require.True(t, errors.As(err, &fe))
	assert.LessOrEqual(t, fe.Context["depthReached"].(int), 2)
	assert.Equal(t, GitMarkers, fe.Context["markers"])
	assert.Equal(t, base, fe.Context["boundary"])

	got, err := FindRepositoryRoot(start, GitMarkers, Options{Boundary: base, MaxDepth: 5})
	require.NoError(t, err)
	assert.Equal(t, base, got)
}

func TestBoundaryStopsAscent(t *testing.T) {
	base := t.TempDir()
	mkdir(t, base, ".git")
	boundary := mkdir(t, base, "work")
	start := mkdir(t, boundary, "project")

	_, err := FindRepositoryRoot(start, GitMarkers, Options{Boundary: boundary})
	assert.True(t, errors.Is(err, fserrors.ErrRepositoryNotFound))
}

func TestInvalidBoundary(t *testing.T) {
	base := t.TempDir()
	start := mkdir(t, base, "a")
	other := mkdir(t, base, "b")

	_, err := FindRepositoryRoot(start, GitMarkers, Options{Boundary: other})
	assert.True(t, errors.Is(err, fserrors.ErrInvalidBoundary))
}

func TestInvalidStartPath(t *testing.T) {
	base := t.TempDir()
	touch(t, base, "file.txt")

	_, err := FindRepositoryRoot(filepath.Join(base, "missing"), GitMarkers, Options{})
	assert.True(t, errors.Is(err, fserrors.ErrInvalidStartPath))

	_, err = FindRepositoryRoot(filepath.Join(base, "file.txt"), GitMarkers, Options{})
	assert.True(t, errors.Is(err, fserrors.ErrInvalidStartPath))

	_, err = FindRepositoryRoot("", GitMarkers, Options{})
	assert.True(t, errors.Is(err, fserrors.ErrInvalidStartPath))
}

func TestNoMarkers(t *testing.T) {
	_, err := FindRepositoryRoot(t.TempDir(), nil, Options{})
	assert.True(t, errors.Is(err, fserrors.ErrInvalidConfig))
}

func TestConstraintStopsAscent(t *testing.T) {
	base, sub, start := nestedRepos(t)

	got, err := FindRepositoryRoot(start, GitMarkers, Options{
		Boundary:   base,
		Outermost:  true,
		Constraint: &pathsafe.Constraint{Root: sub},
	})
	require.NoError(t, err)
	assert.Equal(t, sub, got)

	_, err = FindRepositoryRoot(start, GitMarkers, Options{
		Boundary:   base,
		Constraint: &pathsafe.Constraint{Root: filepath.Join(sub, "pkg")},
	})
	assert.True(t, errors.Is(err, fserrors.ErrRepositoryNotFound))
}

func TestDefaultBoundaryIsHomeWhenStartInsideIt(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("home directory is not taken from HOME on windows")
	}
	base := t.TempDir()
	mkdir(t, base, ".git")
	home := mkdir(t, base, "home")
	start := mkdir(t, home, "project", "src")
	t.Setenv("HOME", home)

	_, err := FindRepositoryRoot(start, GitMarkers, Options{MaxDepth: 20})
	require.Error(t, err)
	var fe *fserrors.Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, home, fe.Context["boundary"])
}

func TestDefaultBoundaryOutsideHome(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("home directory is not taken from HOME on windows")
	}
	base := t.TempDir()
	t.Setenv("HOME", mkdir(t, base, "home"))
	repo := mkdir(t, base, "other")
	mkdir(t, repo, ".git")
	start := mkdir(t, repo, "deep", "er")

	got, err := FindRepositoryRoot(start, GitMarkers, Options{})
	require.NoError(t, err)
	assert.Equal(t, repo, got)
}

func TestSymlinkLoopDetected(t *testing.T) {
	base := t.TempDir()
	a := mkdir(t, base, "a")
	loop := filepath.Join(a, "loop")
	if err := os.Symlink(a, loop); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	_, err := FindRepositoryRoot(loop, GitMarkers, Options{Boundary: base, FollowSymlinks: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, fserrors.ErrTraversalLoop))

	// Without following, the same walk simply finds nothing.
	_, err = FindRepositoryRoot(loop, GitMarkers, Options{Boundary: base})
	assert.True(t, errors.Is(err, fserrors.ErrRepositoryNotFound))
}

func TestPreset(t *testing.T) {
	m, ok := Preset("git")
	require.True(t, ok)
	assert.Equal(t, []string{".git"}, m)

	m[0] = "mutated"
	again, _ := Preset("git")
	assert.Equal(t, ".git", again[0])

	_, ok = Preset("svn")
	assert.False(t, ok)
	assert.Equal(t, []string{"git", "go", "monorepo", "node", "python"}, PresetNames())
}

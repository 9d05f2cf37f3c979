package reporoot

import "sort"

// Marker sets for common project layouts. Order is lookup priority.
var (
	GitMarkers      = []string{".git"}
	GoModuleMarkers = []string{"go.mod"}
	NodeMarkers     = []string{"package.json"}
	PythonMarkers   = []string{"pyproject.toml", "setup.py", "setup.cfg"}
	MonorepoMarkers = []string{"go.work", "pnpm-workspace.yaml", "lerna.json", "nx.json", "turbo.json"}
)

var presets = map[string][]string{
	"git":      GitMarkers,
	"go":       GoModuleMarkers,
	"node":     NodeMarkers,
	"python":   PythonMarkers,
	"monorepo": MonorepoMarkers,
}

// Preset returns a copy of the named marker set.
func Preset(name string) ([]string, bool) {
	m, ok := presets[name]
	if !ok {
		return nil, false
	}
	return append([]string(nil), m...), true
}

// PresetNames lists the known preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

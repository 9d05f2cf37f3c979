package version

import (
	"runtime"
	"runtime/debug"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfoString(t *testing.T) {
	info := Get()
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.True(t, strings.HasPrefix(info.String(), "pathscout version "+info.Version+" "))
	assert.Contains(t, info.String(), runtime.GOOS+"/"+runtime.GOARCH)
}

func TestFillFromBuildInfo(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "v1.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2024-01-02T03:04:05Z"},
		},
	}

	info := Info{Version: "dev", GitCommit: "none", BuildTime: "unknown"}
	fillFromBuildInfo(&info, bi)
	assert.Equal(t, Info{Version: "v1.4.0", GitCommit: "abc123", BuildTime: "2024-01-02T03:04:05Z"}, info)

	info = Info{Version: "2.0.0", GitCommit: "fff", BuildTime: "yesterday"}
	fillFromBuildInfo(&info, bi)
	assert.Equal(t, Info{Version: "2.0.0", GitCommit: "fff", BuildTime: "yesterday"}, info)

	info = Info{Version: "dev"}
	fillFromBuildInfo(&info, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
	assert.Equal(t, "dev", info.Version)
}

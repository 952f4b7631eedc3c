// version/version.go
package version

import (
	"net/http"
	"runtime"

	"github.com/dalemusser/caligben/httputil"
)

// Set at build time:
//
//	go build -ldflags "-X github.com/dalemusser/caligben/pantry/version.Version=1.0.0 \
//	                   -X github.com/dalemusser/caligben/pantry/version.Commit=abc123 \
//	                   -X github.com/dalemusser/caligben/pantry/version.BuildTime=2024-01-15T10:30:00Z"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info is the /version body.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Handler serves Get() as JSON.
func Handler() http.Handler {
	info := Get()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, info)
	})
}

// String is "dev" for unreleased builds, else "1.2.3 (abc123, built ...)".
func String() string {
	if Version == "dev" {
		return "dev"
	}
	return Version + " (" + Commit + ", built " + BuildTime + ")"
}

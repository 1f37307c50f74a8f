// Package buildinfo carries the version stamped into the shipyard binary.
//
// The version is reported by `shipyard --version`, by the server's /healthz
// endpoint and on every run document written by `shipyard publish`, so an
// extract can be traced back to the binary that produced it. Set it with
// ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/shipyard/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/shipyard/pkg/buildinfo.Commit=$(git rev-parse HEAD)" ./cmd/shipyard
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// ShortCommit returns the first 7 characters of Commit.
func ShortCommit() string {
	if len(Commit) > 7 {
		return Commit[:7]
	}
	return Commit
}

// Template returns the cobra version template.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s (%s, built %s)\n", Version, ShortCommit(), Date)
}

// UserAgent is the MongoDB app name used by publish.
func UserAgent() string {
	return "shipyard/" + Version
}

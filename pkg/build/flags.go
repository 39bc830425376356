// SPDX-License-Identifier: MIT
//
// Package build carries metadata stamped into the binary at compile time
// via -ldflags. The values default to "dev" so an un-stamped development
// build still reports something sensible.
package build

import "fmt"

// Populated by -ldflags at compile time, e.g.
//
//	-ldflags "-X musicviz/pkg/build.version=v0.3.0 -X musicviz/pkg/build.commit=$(git rev-parse --short HEAD)"
var (
	name    = "musicviz"
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Info describes the running binary.
type Info struct {
	Name    string
	Version string
	Commit  string
	Date    string
}

// Get returns the build information for the running binary.
func Get() Info {
	return Info{Name: name, Version: version, Commit: commit, Date: date}
}

// String renders the build information as a single version line.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (%s, built %s)", i.Name, i.Version, i.Commit, i.Date)
}

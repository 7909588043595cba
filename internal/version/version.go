// Package version holds build-time identifying strings, overridden
// via -ldflags at build time the way the teacher's version package is.
package version

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// String renders the one-line version banner used by "ncd version" and
// the CTLD_VERSION control-socket query.
func String() string {
	return Version + " (" + GitCommit + ", built " + BuildDate + ")"
}

package common

import "strconv"

const (
	major = 0
	minor = 1
	patch = 0

	// Version is a version of both bridge contracts returned by their
	// version methods.
	Version = major*1_000_000 + minor*1_000 + patch
)

// VersionString renders Version as major.minor.patch.
func VersionString(v int) string {
	return strconv.Itoa(v/1_000_000) + "." + strconv.Itoa(v/1_000%1_000) + "." + strconv.Itoa(v%1_000)
}

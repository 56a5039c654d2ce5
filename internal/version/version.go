// Package version holds the tool version, set at release time.
package version

// Version is the igdpass release version.
const Version = "0.2.0"

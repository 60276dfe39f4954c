// Package build carries version metadata stamped in at link time.
package build

var (
	Version = "dev"
	AppName = "taskflow"
)

package version

// version is set at build time via -ldflags.
var version = "dev"

func Version() string {
	return version
}

package version

// Version is overridden at build time with -ldflags "-X .../internal/version.Version=...".
var Version = "dev"

func UserAgent() string {
	return "scheduler/" + Version
}

package version

// Set at build time:
//
//	go build -ldflags "-X github.com/raidwatch/raidwatch/internal/version.Version=1.0.0 ..."
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// String returns a formatted version string
func String() string {
	if Version == "dev" {
		return "dev (commit: " + Commit + ")"
	}
	return Version + " (commit: " + Commit + ")"
}

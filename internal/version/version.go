package version

// Build information set by ldflags
var (
	Version = "dev"     // -X github.com/NiceneNerd/hypostasis/internal/version.Version=...
	Commit  = "unknown" // -X github.com/NiceneNerd/hypostasis/internal/version.Commit=...
	Date    = "unknown" // -X github.com/NiceneNerd/hypostasis/internal/version.Date=...
)

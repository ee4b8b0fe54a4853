package config

// GitBackend selects how the version stamper reads git metadata.
type GitBackend string

const (
	// GitBackendAuto uses the git binary when it is on PATH, the native reader otherwise.
	GitBackendAuto   GitBackend = "auto"
	GitBackendCLI    GitBackend = "cli"
	GitBackendNative GitBackend = "native"
)

var gitBackendNormalizer = newNormalizer(map[string]GitBackend{
	"auto":   GitBackendAuto,
	"cli":    GitBackendCLI,
	"git":    GitBackendCLI,
	"native": GitBackendNative,
	"go-git": GitBackendNative,
}, GitBackendAuto)

func NormalizeGitBackend(raw string) GitBackend {
	return gitBackendNormalizer.Normalize(raw)
}

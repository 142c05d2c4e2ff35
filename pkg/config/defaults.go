package config

import (
	"os"
	"path/filepath"
)

const (
	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

// NewDefaultConfig returns a fully-populated Config with the defaults every
// other configuration source overrides. Single source of truth for default
// values.
func NewDefaultConfig() *Config {
	tempRoot := filepath.Join(os.TempDir(), "assemblyhomology")

	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Listen: ":8080",
		},
		Storage: StorageConfig{
			Provider:    "inmemory",
			SQLitePath:  "",
			PostgresURL: "",
		},
		SketchStore: SketchStoreConfig{
			Provider: "local",
			CacheDir: filepath.Join(tempRoot, "sketch-cache"),
		},
		MinHash: MinHashConfig{
			MashPath: "",
		},
		TempDir: tempRoot,
	}
}

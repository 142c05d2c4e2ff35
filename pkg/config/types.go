// Package config loads service configuration with the precedence chain
// flags > environment > config file > defaults.
package config

// Config is the full service configuration.
type Config struct {
	Version     int               `toml:"version"`
	API         APIConfig         `toml:"api"`
	Storage     StorageConfig     `toml:"storage"`
	SketchStore SketchStoreConfig `toml:"sketch_store"`
	MinHash     MinHashConfig     `toml:"minhash"`

	// TempDir is the root under which per-request scratch directories and
	// uploaded sketches are created.
	TempDir string `toml:"temp_dir"`
}

// APIConfig configures the HTTP API server.
type APIConfig struct {
	// Listen is the address the API server binds, e.g. ":8080".
	Listen string `toml:"listen"`
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	// Provider is one of "inmemory", "sqlite", "postgres".
	Provider string `toml:"provider"`

	// SQLitePath is the SQLite database file (or ":memory:").
	SQLitePath string `toml:"sqlite_path"`

	// PostgresURL is a PostgreSQL connection string or URI.
	PostgresURL string `toml:"postgres_url"`
}

// SketchStoreConfig selects where namespace sketch databases live.
type SketchStoreConfig struct {
	// Provider is "local" or "minio".
	Provider string `toml:"provider"`

	// Endpoint is the MinIO/S3 endpoint host:port.
	Endpoint string `toml:"endpoint"`

	// AccessKey and SecretKey are the object storage credentials.
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`

	// UseSSL enables TLS for the object storage connection.
	UseSSL bool `toml:"use_ssl"`

	// CacheDir is where remote sketch databases are cached locally.
	CacheDir string `toml:"cache_dir"`
}

// MinHashConfig configures the MinHash implementations.
type MinHashConfig struct {
	// MashPath is the mash executable. Empty means find mash on the PATH.
	MashPath string `toml:"mash_path"`
}

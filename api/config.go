package api

// defaultMaxSketchBytes bounds uploaded query sketch files. Single-sequence
// sketches are small; 30MB leaves generous headroom for large sketch sizes.
const defaultMaxSketchBytes = 30 * 1024 * 1024

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// TempDir is where uploaded query sketches are spooled. Each request's
	// spool file is removed when the request completes.
	TempDir string

	// MaxSketchBytes caps the request body size for sketch uploads. Zero
	// means defaultMaxSketchBytes.
	MaxSketchBytes int
}

func (c Config) withDefaults() Config {
	if c.MaxSketchBytes == 0 {
		c.MaxSketchBytes = defaultMaxSketchBytes
	}
	return c
}

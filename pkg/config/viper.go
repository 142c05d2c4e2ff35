package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads config.toml (from
// configPath if given, otherwise the standard search locations), and binds
// environment variables with the ASSYHOM_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindFlags)
//  2. Environment variables (ASSYHOM_API_LISTEN, ASSYHOM_STORAGE_PROVIDER, ...)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configPath string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.assemblyhomology")
		v.AddConfigPath("/etc/assemblyhomology")
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults will apply. An explicitly
		// named file must exist.
		if configPath != "" || !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("ASSYHOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// BindFlags binds already-registered cobra flags to viper keys, connecting
// them to the precedence chain. Call from PreRunE after InitViper.
func BindFlags(v *viper.Viper, cmd *cobra.Command, flagToKey map[string]string) {
	for flagName, viperKey := range flagToKey {
		f := cmd.Flags().Lookup(flagName)
		if f == nil {
			continue
		}
		_ = v.BindPFlag(viperKey, f)
	}
}

// FromViper materializes a Config from the resolved viper state.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
		Storage: StorageConfig{
			Provider:    v.GetString("storage.provider"),
			SQLitePath:  v.GetString("storage.sqlite_path"),
			PostgresURL: v.GetString("storage.postgres_url"),
		},
		SketchStore: SketchStoreConfig{
			Provider:  v.GetString("sketch_store.provider"),
			Endpoint:  v.GetString("sketch_store.endpoint"),
			AccessKey: v.GetString("sketch_store.access_key"),
			SecretKey: v.GetString("sketch_store.secret_key"),
			UseSSL:    v.GetBool("sketch_store.use_ssl"),
			CacheDir:  v.GetString("sketch_store.cache_dir"),
		},
		MinHash: MinHashConfig{
			MashPath: v.GetString("minhash.mash_path"),
		},
		TempDir: v.GetString("temp_dir"),
	}
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of
// truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("api.listen", d.API.Listen)

	v.SetDefault("storage.provider", d.Storage.Provider)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_url", d.Storage.PostgresURL)

	v.SetDefault("sketch_store.provider", d.SketchStore.Provider)
	v.SetDefault("sketch_store.endpoint", d.SketchStore.Endpoint)
	v.SetDefault("sketch_store.access_key", d.SketchStore.AccessKey)
	v.SetDefault("sketch_store.secret_key", d.SketchStore.SecretKey)
	v.SetDefault("sketch_store.use_ssl", d.SketchStore.UseSSL)
	v.SetDefault("sketch_store.cache_dir", d.SketchStore.CacheDir)

	v.SetDefault("minhash.mash_path", d.MinHash.MashPath)

	v.SetDefault("temp_dir", d.TempDir)
}

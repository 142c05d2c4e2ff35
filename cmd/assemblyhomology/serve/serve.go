// Package servecmder provides the API server cobra command.
package servecmder

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scanon/AssemblyHomologyService/api"
	"github.com/scanon/AssemblyHomologyService/pkg/config"
	"github.com/scanon/AssemblyHomologyService/pkg/logger"
	"github.com/scanon/AssemblyHomologyService/pkg/service"
)

type serveCommander struct {
	listen string
	debug  bool
	cfg    *config.Config
	logger *zap.Logger
}

const serveLongDesc string = `Run the assembly homology API server.

The server exposes namespace listing and sketch search endpoints over HTTP.
Storage, sketch store, and MinHash implementation settings come from the
config file, ASSYHOM_* environment variables, and flags.`

const serveShortDesc string = "Run the assembly homology API server"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			v, err := config.InitViper(configPath)
			if err != nil {
				return err
			}
			config.BindFlags(v, cmd, map[string]string{
				"listen":   "api.listen",
				"sqlite":   "storage.sqlite_path",
				"provider": "storage.provider",
			})
			cmder.cfg = config.FromViper(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}

			return cmder.run(cmd)
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", defaults.API.Listen, "Address for API server to listen on")
	cmd.Flags().StringP("sqlite", "s", "", "Path to SQLite database (implies --provider sqlite)")
	cmd.Flags().String("provider", defaults.Storage.Provider, "Storage provider: inmemory, sqlite, postgres")

	return cmd
}

func (c *serveCommander) run(cmd *cobra.Command) error {
	c.logger = logger.NewServiceLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	// --sqlite alone is enough to select the sqlite provider.
	if c.cfg.Storage.SQLitePath != "" && !cmd.Flags().Changed("provider") {
		c.cfg.Storage.Provider = "sqlite"
	}

	svc, err := service.New(cmd.Context(), c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	server := api.NewServer(api.Config{
		ListenAddr: c.cfg.API.Listen,
		TempDir:    c.cfg.TempDir,
	}, svc.Engine, c.logger)

	return server.Run()
}

// Package homologycmder
package homologycmder

import (
	"github.com/spf13/cobra"

	loadcmder "github.com/scanon/AssemblyHomologyService/cmd/assemblyhomology/load"
	namespacecmder "github.com/scanon/AssemblyHomologyService/cmd/assemblyhomology/namespace"
	searchcmder "github.com/scanon/AssemblyHomologyService/cmd/assemblyhomology/search"
	servecmder "github.com/scanon/AssemblyHomologyService/cmd/assemblyhomology/serve"
)

const rootLongDesc string = `Assembly homology search over curated namespaces of sequence sketches.

Run services using:
  assemblyhomology serve       Run the API server

Query and manage data using:
  assemblyhomology search      Measure a query sketch against namespaces
  assemblyhomology namespace   Inspect stored namespaces
  assemblyhomology load        Load a namespace and its sequence metadata`

const rootShortDesc string = "Assembly Homology - sequence sketch matching"

func NewAssemblyHomologyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assemblyhomology",
		Short: rootShortDesc,
		Long:  rootLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to config.toml (default: standard search locations)")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(namespacecmder.NewNamespaceCmd())
	cmd.AddCommand(loadcmder.NewLoadCmd())

	return cmd
}

// Package namespacecmder provides commands for inspecting stored
// namespaces.
package namespacecmder

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scanon/AssemblyHomologyService/pkg/config"
	"github.com/scanon/AssemblyHomologyService/pkg/homology"
	"github.com/scanon/AssemblyHomologyService/pkg/logger"
	"github.com/scanon/AssemblyHomologyService/pkg/service"
)

var (
	idStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	textStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

const namespaceShortDesc string = "Inspect stored namespaces"

func NewNamespaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "namespace",
		Short: namespaceShortDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newGetCmd())

	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all namespaces",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(svc *service.Service, log *zap.Logger) error {
				namespaces, err := svc.Engine.Namespaces(cmd.Context())
				if err != nil {
					return err
				}
				for _, ns := range namespaces {
					printNamespace(cmd, ns)
				}
				if len(namespaces) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("no namespaces"))
				}
				return nil
			})
		},
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one namespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(svc *service.Service, log *zap.Logger) error {
				ns, err := svc.Engine.Namespace(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printNamespace(cmd, ns)
				return nil
			})
		},
	}
}

// withService builds the configured service for the duration of one command.
func withService(cmd *cobra.Command, fn func(*service.Service, *zap.Logger) error) error {
	debug, _ := cmd.Flags().GetBool("debug")
	configPath, _ := cmd.Flags().GetString("config")

	v, err := config.InitViper(configPath)
	if err != nil {
		return err
	}

	log := logger.NewLogger(debug)
	defer func() { _ = log.Sync() }()

	svc, err := service.New(cmd.Context(), config.FromViper(v), log)
	if err != nil {
		return err
	}
	defer svc.Close()

	return fn(svc, log)
}

func printNamespace(cmd *cobra.Command, ns homology.Namespace) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", idStyle.Render(ns.ID),
		dimStyle.Render(fmt.Sprintf("(load %s, modified %s)", ns.LoadID, ns.Modified.Format("2006-01-02"))))
	fmt.Fprintf(out, "  %s\n", textStyle.Render(fmt.Sprintf(
		"%s: kmer %d, sketch size %d, %d sequences",
		ns.Sketch.Implementation, ns.Sketch.Parameters.KmerSize,
		ns.Sketch.Parameters.SketchSize, ns.Sketch.Sequences)))
	if ns.Description != "" {
		fmt.Fprintf(out, "  %s\n", textStyle.Render(ns.Description))
	}
}

// Package searchcmder provides the search command: measure a query sketch
// against one or more namespaces directly from the configured store.
package searchcmder

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
	rankStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	distStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	seqStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	nsStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	nameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
)

type searchCommander struct {
	sketchPath string
	namespaces []string
	max        int
	notStrict  bool

	debug  bool
	cfg    *config.Config
	logger *zap.Logger
}

const searchLongDesc string = `Measure a query sketch against stored namespaces.

The sketch file must contain exactly one sketched sequence and must have been
built with the same MinHash implementation (and, in strict mode, the same
parameters) as the selected namespaces.

Example:
  assemblyhomology search query.msh --namespaces refseq
  assemblyhomology search query.msh --namespaces refseq,internal --max 25
  assemblyhomology search query.msh --namespaces refseq --not-strict`

const searchShortDesc string = "Measure a query sketch against namespaces"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <sketch-file>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			v, err := config.InitViper(configPath)
			if err != nil {
				return err
			}
			cmder.cfg = config.FromViper(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.sketchPath = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd)
		},
	}

	cmd.Flags().StringSliceVarP(&cmder.namespaces, "namespaces", "n", nil, "Namespace IDs to search (required)")
	cmd.Flags().IntVarP(&cmder.max, "max", "m", 10, "Number of matches to return (1-100)")
	cmd.Flags().BoolVar(&cmder.notStrict, "not-strict", false, "Tolerate sketch parameter drift where the implementation allows it")
	_ = cmd.MarkFlagRequired("namespaces")

	return cmd
}

func (c *searchCommander) run(cmd *cobra.Command) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	svc, err := service.New(cmd.Context(), c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	matches, err := svc.Engine.MeasureDistance(
		cmd.Context(), c.namespaces, c.sketchPath, c.max, !c.notStrict)
	if err != nil {
		return err
	}

	printMatches(cmd, matches)
	return nil
}

func printMatches(cmd *cobra.Command, matches *homology.SequenceMatches) {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%d matches (%s %s)",
		len(matches.Matches), matches.Implementation.Name, matches.Implementation.Version)))

	for i, match := range matches.Matches {
		name := match.Metadata.ScientificName
		if name == "" {
			name = match.Metadata.SourceID
		}
		fmt.Fprintf(out, "%s %s %s %s %s\n",
			rankStyle.Render(fmt.Sprintf("%d.", i+1)),
			distStyle.Render(fmt.Sprintf("%.6f", match.Distance.Distance)),
			seqStyle.Render(match.Distance.SequenceID),
			nsStyle.Render("["+match.NamespaceID+"]"),
			nameStyle.Render(name),
		)
	}

	for _, warning := range matches.Warnings {
		fmt.Fprintln(out, warningStyle.Render("warning: "+warning))
	}
}

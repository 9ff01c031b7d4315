// Package species lists the footprint classes the classifier can report.
package species

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/tphakala/pugmark/internal/conf"
	"github.com/tphakala/pugmark/internal/species"
)

// Command creates the species command.
func Command() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "species",
		Short: "List the known species",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := species.Load(conf.GetSettings().Classifier.SpeciesFile)
			if err != nil {
				return err
			}
			Render(cmd.OutOrStdout(), registry, verbose)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Include habitat and description")
	return cmd
}

// Render writes the registry as a table in class index order.
func Render(w io.Writer, registry *species.Registry, verbose bool) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)

	header := table.Row{"Class", "Name", "Scientific name", "Status"}
	if verbose {
		header = append(header, "Habitat", "Description")
	}
	tw.AppendHeader(header)

	for _, rec := range registry.All() {
		row := table.Row{rec.ID, rec.Name, rec.ScientificName, rec.ConservationStatus}
		if verbose {
			row = append(row, rec.Habitat, rec.Description)
		}
		tw.AppendRow(row)
	}

	configs := []table.ColumnConfig{{Number: 1, Align: text.AlignRight}}
	if verbose {
		configs = append(configs,
			table.ColumnConfig{Number: 5, WidthMax: 30},
			table.ColumnConfig{Number: 6, WidthMax: 50})
	}
	tw.SetColumnConfigs(configs)
	tw.SetCaption("%d species", registry.Len())
	tw.Render()
}

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/folio/internal/domain/port/driven"
)

func newCollectionsCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "collections",
		Short: "List collections with their record counts",
		Long: `Lists every catalog collection with the number of records the public site
would show and whether they come from the backend or the bundled data.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			collections := a.catalog.Collections()

			queries := make([]driven.Query, 0, len(collections))
			for _, c := range collections {
				queries = append(queries, driven.Query{Collection: c.Name, Order: c.Order})
			}
			results := a.loader.LoadAll(cmd.Context(), queries...)

			var stored map[string]int
			if a.counter != nil {
				counts, err := a.counter(cmd.Context())
				if err != nil {
					return err
				}
				stored = counts
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tLABEL\tRECORDS\tSOURCE\tSTORED")
			for _, c := range collections {
				result := results[c.Name]
				storedCol := "-"
				if stored != nil {
					storedCol = fmt.Sprint(stored[c.Name])
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", c.Name, c.Label, len(result.Records), result.Source, storedCol)
			}
			return tw.Flush()
		},
	}
}

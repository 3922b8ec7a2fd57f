package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"datavitals/internal/config"
	"datavitals/internal/render"
	"datavitals/pkg/cleaning"
	"datavitals/pkg/dataset"
	"datavitals/pkg/etl"
	"datavitals/pkg/sqlbuilder"
)

// demoEmployees is a small dirty table: padded names, a duplicate row,
// missing values and numbers stored as text.
func demoEmployees() *dataset.Dataset {
	return dataset.MustNew(
		dataset.Col("id", 1, 2, 2, 3, nil),
		dataset.Col("name", " Alice ", "Bob", "Bob", nil, "Eve"),
		dataset.Col("salary", "1000", "2000", "2000", "3000", "4000"),
	)
}

func newDemoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Clean, transform and query a built-in sample table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer a.startMetrics(cmd.Context(), config.MetricsConfig{}, "demo")()
			w := a.streams.Out

			raw := demoEmployees()
			fmt.Fprintln(w, "Raw data:")
			if err := render.Dataset(w, raw, render.FormatCSV); err != nil {
				return err
			}

			cleaned, err := a.clean(raw, cleaning.DefaultOptions())
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "\nCleaned data:")
			if err := render.Dataset(w, cleaned, render.FormatCSV); err != nil {
				return err
			}

			out, err := a.runETL(cleaned.ToRecords(), etl.Options{Transform: "double", Destination: etl.DestinationMemory})
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "\nETL output:")
			if err := render.Records(w, out, render.FormatJSONL); err != nil {
				return err
			}

			var stmt string
			if err := a.step("query", func() error {
				var err error
				stmt, err = sqlbuilder.BuildSelectDecoded(
					"employees",
					[]string{"id", "name", "salary"},
					map[string]any{"active": true},
					5,
				)
				return err
			}); err != nil {
				return err
			}
			fmt.Fprintln(w, "\nGenerated SQL:")
			_, err = fmt.Fprintln(w, stmt)
			return err
		},
	}
}

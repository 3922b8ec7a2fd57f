package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"datavitals/internal/config"
	"datavitals/internal/profile"
	"datavitals/internal/source"
	"datavitals/pkg/dataset"
)

func newProfileCmd(a *app) *cobra.Command {
	var (
		iof    ioFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Report column types, missing values and duplicates of raw input",
		Example: `  datavitals profile -i employees.csv
  datavitals profile -i https://example.com/export.json --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			defer a.startMetrics(ctx, config.MetricsConfig{}, "")()

			opt, err := parseOptions(iof.options)
			if err != nil {
				return err
			}

			var ds *dataset.Dataset
			if err := a.step("load", func() error {
				var err error
				ds, err = a.loadDataset(ctx, source.Parse(iof.input, a.streams.In), iof.format, opt)
				return err
			}); err != nil {
				return err
			}

			var rep profile.Report
			_ = a.step("profile", func() error {
				rep = profile.Build(ds)
				return nil
			})

			if asJSON {
				enc := json.NewEncoder(a.streams.Out)
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			if err := rep.WriteText(a.streams.Out); err != nil {
				return err
			}
			if keys := rep.KeyCandidates(); len(keys) > 0 {
				_, err = fmt.Fprintf(a.streams.Out, "\nkey candidates: %s\n", strings.Join(keys, ", "))
			}
			return err
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&iof.input, "input", "i", "-", "input file, http(s) URL or - for stdin")
	fl.StringVar(&iof.format, "format", "", "input format: csv, json or html (default: from extension, else csv)")
	fl.StringArrayVar(&iof.options, "option", nil, "parser option key=value (repeatable)")
	fl.BoolVar(&asJSON, "json", false, "emit the report as JSON")

	return cmd
}

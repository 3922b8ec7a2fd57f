package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"datavitals/internal/config"
	"datavitals/internal/source"
	"datavitals/pkg/cleaning"
	"datavitals/pkg/dataset"
	"datavitals/pkg/etl"
	"datavitals/pkg/records"
	"datavitals/pkg/sqlbuilder"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		cfgPath      string
		validateOnly bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a pipeline document (load, clean, etl, select)",
		Example: `  datavitals run --config pipeline.yaml
  datavitals run --config pipeline.json --validate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			p, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			issues := config.ValidatePipeline(p)
			for _, is := range issues {
				fmt.Fprintf(a.streams.Err, "%s: %s: %s\n", is.Severity, is.Path, is.Message)
			}
			if config.HasErrors(issues) {
				return errors.New("pipeline config is invalid")
			}
			if validateOnly {
				_, err := fmt.Fprintln(a.streams.Out, "ok")
				return err
			}

			defer a.startMetrics(ctx, p.Metrics, p.JobName())()
			log := a.log.With().Str("job", p.JobName()).Logger()
			log.Info().Str("config", cfgPath).Msg("pipeline started")

			var ds *dataset.Dataset
			if err := a.step("load", func() error {
				var err error
				ds, err = a.loadDataset(ctx, a.pipelineInput(p.Source), p.ParserKind(), p.Parser.Options)
				return err
			}); err != nil {
				return err
			}

			if p.Clean != nil {
				opts, err := cleaningOptions(*p.Clean)
				if err != nil {
					return err
				}
				if ds, err = a.clean(ds, opts); err != nil {
					return err
				}
			}

			if p.Query != nil {
				var stmt string
				if err := a.step("query", func() error {
					var err error
					stmt, err = sqlbuilder.BuildSelectDecoded(p.Query.Table, p.Query.Columns, p.Query.Where.Value, p.Query.Limit)
					return err
				}); err != nil {
					return err
				}
				log.Info().Str("sql", stmt).Msg("query built")
			}

			if p.ETL == nil {
				if err := a.writeDataset(p.Output.Path, ds, p.Output.Format); err != nil {
					return err
				}
				log.Info().Msg("pipeline finished")
				return nil
			}

			out, err := a.runETL(ds.ToRecords(), etl.Options{Transform: p.ETL.Transform, Destination: p.ETL.Destination})
			if err != nil {
				return err
			}
			if err := a.writeRecords(p.Output.Path, out, p.Output.Format); err != nil {
				return err
			}
			log.Info().Msg("pipeline finished")
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&cfgPath, "config", "c", "", "pipeline document (.json, .yaml or .yml)")
	fl.BoolVar(&validateOnly, "validate", false, "validate the document and exit")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func (a *app) pipelineInput(s config.Source) source.Input {
	switch s.Kind {
	case "url":
		return source.Input{URL: s.URL}
	case "stdin":
		return source.Input{Stdin: a.streams.In}
	}
	if s.File == nil {
		return source.Input{Stdin: a.streams.In}
	}
	return source.Input{Path: s.File.Path}
}

// cleaningOptions maps the document's clean section onto cleaning.Options.
// Unset flags keep the library defaults.
func cleaningOptions(c config.Clean) (cleaning.Options, error) {
	opts := cleaning.DefaultOptions()
	setIf := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	setIf(&opts.DropNulls, c.DropNulls)
	setIf(&opts.DropDuplicates, c.DropDuplicates)
	setIf(&opts.TrimStrings, c.TrimStrings)
	setIf(&opts.ConvertNumeric, c.ConvertNumeric)
	opts.NormalizeUnicode = c.NormalizeUnicode

	for col, raw := range c.Fill {
		v, err := records.Of(raw)
		if err != nil {
			return cleaning.Options{}, fmt.Errorf("clean.fill.%s: %w", col, err)
		}
		opts = opts.WithFill(col, v)
	}
	return opts, nil
}

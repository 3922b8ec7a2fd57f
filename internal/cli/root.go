// Package cli implements the datavitals command tree.
package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"datavitals/internal/logging"
)

// Streams are the process streams a command tree reads and writes.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// NewRootCmd builds the command tree bound to s.
func NewRootCmd(s Streams) *cobra.Command {
	a := &app{streams: s}

	root := &cobra.Command{
		Use:   "datavitals",
		Short: "Clean tabular data, transform records and build SELECT statements",
		Long: `datavitals bundles three small data utilities:

  clean   trim, fill, coerce numeric columns and drop null or duplicate rows
  etl     apply a named per-record transform ("double", "none")
  select  assemble a SQL SELECT string (never executed)

profile reports the vitals of raw input before cleaning.

run chains them from a JSON or YAML pipeline document; demo shows the
whole workflow on built-in sample data.

Metrics backend priority:
  1. --metrics-backend flag
  2. METRICS_BACKEND environment variable
  3. metrics.backend in the pipeline document (run only)
  4. none`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	root.SetIn(s.In)
	root.SetOut(s.Out)
	root.SetErr(s.Err)

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	pf.BoolVar(&a.flags.logJSON, "log-json", false, "emit JSON logs instead of console output")
	pf.StringVar(&a.flags.job, "job", "", "job name used for metrics (default: pipeline job or \"datavitals\")")
	pf.StringVar(&a.flags.metricsBackend, "metrics-backend", "", "metrics backend: pushgateway, datadog or none (overrides env METRICS_BACKEND)")
	pf.StringVar(&a.flags.pushgatewayURL, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	pf.StringVar(&a.flags.metricsTags, "metrics-tags", "", "extra Datadog tags, comma separated (overrides env METRICS_TAGS)")
	pf.DurationVar(&a.flags.httpTimeout, "http-timeout", 0, "timeout for http(s) inputs (default 30s)")

	root.AddCommand(newCleanCmd(a))
	root.AddCommand(newETLCmd(a))
	root.AddCommand(newSelectCmd(a))
	root.AddCommand(newProfileCmd(a))
	root.AddCommand(newRunCmd(a))
	root.AddCommand(newDemoCmd(a))

	return root
}

// Execute runs the command tree on the process streams.
func Execute() error {
	return NewRootCmd(Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}).Execute()
}

func (a *app) init(cmd *cobra.Command) error {
	cfg := logging.DefaultConfig()
	cfg.Level = a.flags.logLevel
	cfg.Pretty = !a.flags.logJSON
	cfg.Output = a.streams.Err

	a.log, a.runID = logging.WithRunID(logging.NewWithComponent(cfg, cmd.Name()))
	a.loader = newLoader(a.flags.httpTimeout)
	return nil
}

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"datavitals/internal/config"
	"datavitals/pkg/sqlbuilder"
)

func newSelectCmd(a *app) *cobra.Command {
	var (
		table     string
		columns   []string
		where     []string
		whereJSON string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Print a SQL SELECT statement",
		Long: `select assembles a SELECT statement and prints it. Nothing is executed.

String values are quoted verbatim without escaping: never run the output of
untrusted input against a database.`,
		Example: `  datavitals select --table employees --columns id,name --where active=true --limit 5
  datavitals select --table logs --where-json '{"level": "error"}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer a.startMetrics(cmd.Context(), config.MetricsConfig{}, "")()

			if len(where) > 0 && whereJSON != "" {
				return errors.New("--where and --where-json are mutually exclusive")
			}

			var cols any
			if cmd.Flags().Changed("columns") {
				cols = columns
			}

			var w any
			switch {
			case len(where) > 0:
				keys, vals, err := parseAssignments("where", where)
				if err != nil {
					return err
				}
				conds := make(sqlbuilder.Where, len(keys))
				for i, k := range keys {
					conds[i] = sqlbuilder.Condition{Column: k, Value: vals[i]}
				}
				w = conds
			case whereJSON != "":
				v, err := config.DecodeWhereJSON([]byte(whereJSON))
				if err != nil {
					return fmt.Errorf("--where-json: %w", err)
				}
				w = v
			}

			var lim any
			if cmd.Flags().Changed("limit") {
				lim = limit
			}

			var stmt string
			if err := a.step("query", func() error {
				var err error
				stmt, err = sqlbuilder.BuildSelectDecoded(table, cols, w, lim)
				return err
			}); err != nil {
				return err
			}

			_, err := fmt.Fprintln(a.streams.Out, stmt)
			return err
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&table, "table", "", "table name (required)")
	fl.StringSliceVar(&columns, "columns", nil, "columns to select, comma separated (default *)")
	fl.StringArrayVar(&where, "where", nil, "equality filter column=value (repeatable, kept in order)")
	fl.StringVar(&whereJSON, "where-json", "", "equality filters as a JSON object (kept in order)")
	fl.IntVar(&limit, "limit", 0, "row limit, must be positive when set")

	return cmd
}

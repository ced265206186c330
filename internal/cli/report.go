package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"championship-engine/internal/backend"
	"championship-engine/internal/engine"
	"championship-engine/internal/reporting"
)

func newReportCommand() *cobra.Command {
	var (
		championship string
		format       string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the standings of a championship",
		Example: `  standings report --championship gp-2024 --seed season.yaml
  standings report --championship gp-2024 --format csv --postgres-dsn postgres://localhost/champ`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if championship == "" {
				return errors.New("--championship is required")
			}
			f := reporting.Format(format)
			if !f.IsValid() {
				return fmt.Errorf("unknown format %q (want markdown or csv)", format)
			}

			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			b, err := backend.Open(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer b.Close()

			eng := engine.New(b.Tx, engine.WithLogger(logger))
			report, err := reporting.NewGenerator(eng).Generate(cmd.Context(), championship)
			if err != nil {
				return err
			}

			out, err := reporting.Render(report, f)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().StringVar(&championship, "championship", "", "championship id")
	cmd.Flags().StringVar(&format, "format", string(reporting.FormatMarkdown), "output format (markdown|csv)")
	cmd.Flags().String("seed", "", "YAML fixture to load before rendering")
	cmd.Flags().Bool("use-memory", false, "use the in-memory store")
	_ = cmd.Flags().MarkHidden("use-memory")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"markdown", "csv"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

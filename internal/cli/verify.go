package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"championship-engine/internal/backend"
	"championship-engine/internal/engine"
)

func newVerifyCommand() *cobra.Command {
	var (
		championship string
		repair       bool
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check dsq flags against active disqualifications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if championship == "" {
				return errors.New("--championship is required")
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

			report, err := engine.New(b.Tx, engine.WithLogger(logger)).VerifyDSQ(cmd.Context(), championship, repair)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "results: %d  matched: %d  divergent: %d  repaired: %d\n",
				report.TotalResults, report.MatchedResults, report.DivergentResults, report.Repaired)
			for _, d := range report.Divergences {
				fmt.Fprintf(out, "  result %s (race %s, team %s): dsq=%t with %d active disqualification(s)\n",
					d.ResultID, d.RaceID, d.TeamID, d.StoredDSQ, d.ActiveDisqualifications)
			}
			for _, c := range report.PositionClashes {
				fmt.Fprintf(out, "  race %s position %d shared by %d results: %v\n",
					c.RaceID, c.Position, len(c.ResultIDs), c.ResultIDs)
			}
			if report.DivergentResults > report.Repaired {
				return fmt.Errorf("%d divergent result(s)", report.DivergentResults-report.Repaired)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&championship, "championship", "", "championship id")
	cmd.Flags().BoolVar(&repair, "repair", false, "re-sync divergent dsq flags")
	cmd.Flags().String("seed", "", "YAML fixture to load before verifying")
	cmd.Flags().Bool("use-memory", false, "use the in-memory store")
	_ = cmd.Flags().MarkHidden("use-memory")

	return cmd
}

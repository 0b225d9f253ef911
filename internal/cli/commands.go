package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/godilite/product-analytics/internal/prioritization"
	"github.com/godilite/product-analytics/internal/report"
	"github.com/godilite/product-analytics/internal/stats"
)

func newABTestCmd(opts *options) *cobra.Command {
	var (
		alpha      float64
		start, end string
	)

	cmd := &cobra.Command{
		Use:   "abtest",
		Short: "Run a two-proportion z-test between the control and treatment groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := opts.open(ctx, false)
			if err != nil {
				return err
			}
			defer s.Close()

			from, to, err := s.window(ctx, start, end)
			if err != nil {
				return err
			}

			rep, err := s.service.RunABTest(ctx, from, to, alpha)
			if err != nil {
				return fmt.Errorf("a/b test: %w", err)
			}
			return report.RenderABTest(cmd.OutOrStdout(), rep)
		},
	}

	cmd.Flags().Float64Var(&alpha, "alpha", stats.DefaultAlpha, "significance level, in (0, 1)")
	cmd.Flags().StringVar(&start, "start", "", "window start (YYYY-MM-DD or RFC3339); defaults to the first event")
	cmd.Flags().StringVar(&end, "end", "", "window end (YYYY-MM-DD or RFC3339); defaults to the last event")
	return cmd
}

func newReportCmd(opts *options) *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the dashboard report: metrics, funnel, segments, revenue and cohorts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := opts.open(ctx, false)
			if err != nil {
				return err
			}
			defer s.Close()

			from, to, err := s.window(ctx, start, end)
			if err != nil {
				return err
			}

			full, err := s.service.GetFullReport(ctx, from, to)
			if err != nil {
				return fmt.Errorf("report: %w", err)
			}
			return report.RenderFullReport(cmd.OutOrStdout(), full)
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "window start (YYYY-MM-DD or RFC3339); defaults to the first event")
	cmd.Flags().StringVar(&end, "end", "", "window end (YYYY-MM-DD or RFC3339); defaults to the last event")
	return cmd
}

func newRiceCmd(opts *options) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "rice",
		Short: "Rank a feature backlog by RICE score",
		Long: `rice scores each feature as reach * impact * confidence% / effort.
Without --file the built-in sample backlog is ranked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			features := prioritization.DefaultBacklog()
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("open backlog: %w", err)
				}
				defer f.Close()

				if features, err = prioritization.ReadFeaturesCSV(f); err != nil {
					return fmt.Errorf("%s: %w", file, err)
				}
			}

			ranked, err := prioritization.Rank(features)
			if err != nil {
				return err
			}
			opts.logger.Debug("backlog ranked", zap.Int("features", len(ranked)))
			return report.RenderRICE(cmd.OutOrStdout(), ranked)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "backlog CSV with name,reach,impact,confidence,effort columns")
	return cmd
}

func newIngestCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Load --data into --db and report the row count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.Close()

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "loaded %d events from %s into %s\n", s.loaded, opts.dataPath, opts.dbPath)
			return err
		},
	}
}

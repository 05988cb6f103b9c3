package experiment

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dinerozz/tracking-backend/config"
	"github.com/dinerozz/tracking-backend/internal/entity"
	experimentService "github.com/dinerozz/tracking-backend/internal/service/experiment"
	"github.com/dinerozz/tracking-backend/server"
	"github.com/spf13/cobra"
)

// GetExperimentCmd groups the experiment administration commands.
func GetExperimentCmd(cfg *config.Config, logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "experiment",
		Short: "Manage A/B experiments",
	}

	cmd.AddCommand(newCreateCmd(cfg, logger))
	cmd.AddCommand(newListCmd(cfg, logger))
	cmd.AddCommand(newStatusCmd(cfg, logger))
	cmd.AddCommand(newResultsCmd(cfg, logger))

	return cmd
}

func withService(cfg *config.Config, logger *slog.Logger, fn func(experimentService.ExperimentService) error) error {
	if cfg.DB.Driver == config.DriverMemory {
		return fmt.Errorf("experiment commands need persistent storage, STORAGE_DRIVER is %q", cfg.DB.Driver)
	}
	deps, err := server.NewDependencies(cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	return fn(experimentService.NewExperimentService(deps.Experiments, deps.Clock, logger, deps.Metrics))
}

func newCreateCmd(cfg *config.Config, logger *slog.Logger) *cobra.Command {
	var (
		name     string
		variants string
		status   string
	)

	cmd := &cobra.Command{
		Use:   "create <slug>",
		Short: "Create an experiment",
		Long: `Create an experiment with weighted variants.

Examples:
  tracking-backend experiment create hero --variants "control,treatment"
  tracking-backend experiment create cta --variants "control:3,green:1" --status active`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := ParseVariants(variants)
			if err != nil {
				return err
			}

			req := entity.CreateExperimentRequest{
				Slug:     args[0],
				Name:     name,
				Status:   entity.ExperimentStatus(status),
				Variants: parsed,
			}

			return withService(cfg, logger, func(s experimentService.ExperimentService) error {
				exp, err := s.CreateExperiment(cmd.Context(), req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created experiment %s (%s) with %d variants.\n", exp.Slug, exp.Status, len(exp.Variants))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Human readable name")
	cmd.Flags().StringVar(&variants, "variants", "control,treatment", "Comma separated variant ids, optionally id:weight")
	cmd.Flags().StringVar(&status, "status", string(entity.ExperimentDraft), "Initial status")

	return cmd
}

func newListCmd(cfg *config.Config, logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List experiments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cfg, logger, func(s experimentService.ExperimentService) error {
				experiments, err := s.ListExperiments(cmd.Context())
				if err != nil {
					return err
				}
				if len(experiments) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No experiments yet.")
					return nil
				}
				return printExperiments(cmd.OutOrStdout(), experiments)
			})
		},
	}
}

func newStatusCmd(cfg *config.Config, logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:       "status <slug> <draft|active|completed>",
		Short:     "Change experiment status",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(entity.ExperimentDraft), string(entity.ExperimentActive), string(entity.ExperimentCompleted)},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cfg, logger, func(s experimentService.ExperimentService) error {
				exp, err := s.UpdateStatus(cmd.Context(), args[0], entity.ExperimentStatus(args[1]))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Experiment %s is now %s.\n", exp.Slug, exp.Status)
				return nil
			})
		},
	}
}

func newResultsCmd(cfg *config.Config, logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "results <slug>",
		Short: "Show per-variant results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cfg, logger, func(s experimentService.ExperimentService) error {
				results, err := s.GetResults(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printResults(cmd.OutOrStdout(), results)
			})
		},
	}
}

// ParseVariants reads "a,b" or "a:3,b:1". A missing weight means 1.
func ParseVariants(raw string) (entity.Variants, error) {
	var out entity.Variants
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, weightStr, hasWeight := strings.Cut(part, ":")
		weight := 1
		if hasWeight {
			w, err := strconv.Atoi(strings.TrimSpace(weightStr))
			if err != nil {
				return nil, fmt.Errorf("invalid weight for variant %q: %w", id, err)
			}
			weight = w
		}
		out = append(out, entity.Variant{ID: strings.TrimSpace(id), Weight: weight})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("need at least one variant. Example: --variants \"control,treatment\"")
	}
	return out, nil
}

func printExperiments(out io.Writer, experiments []entity.Experiment) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SLUG\tNAME\tSTATUS\tVARIANTS\tCREATED")
	for _, exp := range experiments {
		ids := make([]string, 0, len(exp.Variants))
		for _, v := range exp.Variants {
			ids = append(ids, fmt.Sprintf("%s:%d", v.ID, v.Weight))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			exp.Slug,
			exp.Name,
			strings.ToUpper(string(exp.Status)),
			strings.Join(ids, ","),
			exp.CreatedAt.Format("2006-01-02"),
		)
	}
	return w.Flush()
}

func printResults(out io.Writer, results *entity.ExperimentResults) error {
	fmt.Fprintf(out, "%s (%s)\n\n", results.Experiment.Slug, results.Experiment.Status)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VARIANT\tWEIGHT\tASSIGNED\tCONVERTED\tRATE\tVALUE")
	for _, v := range results.Variants {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.2f%%\t%.2f\n",
			v.VariantID, v.Weight, v.Assignments, v.Converted, v.ConversionRate, v.TotalValue)
	}
	return w.Flush()
}

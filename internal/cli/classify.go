package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/phishy/internal/application/predict"
	"github.com/bryanwahyu/phishy/internal/domain/features"
	"github.com/bryanwahyu/phishy/internal/infra/audit"
	"github.com/bryanwahyu/phishy/internal/infra/model/forest"
)

func newFeaturesCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "features <url>",
		Short: "Print the feature vector extracted from a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := features.ExtractChecked(args[0])
			if err != nil {
				cmd.PrintErrln("warning:", err)
			}
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(v)
			}
			for _, n := range features.Names() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-22s %g\n", n, v[n])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newClassifyCmd() *cobra.Command {
	var modelPath string
	cmd := &cobra.Command{
		Use:   "classify <url>...",
		Short: "Classify URLs with a local model artifact",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if modelPath == "" {
				modelPath = cfg.Model.Path
			}
			m, err := forest.LoadFile(modelPath)
			if err != nil {
				return err
			}

			svc := &predict.Service{Model: m, Audit: audit.Discard{}, Log: cliLogger(cmd, cfg)}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, u := range args {
				res, err := svc.Predict(cmd.Context(), u)
				if err != nil {
					return fmt.Errorf("%s: %w", u, err)
				}
				if err := enc.Encode(res); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&modelPath, "model", "", "Model artifact path (defaults to model.path from config)")
	return cmd
}

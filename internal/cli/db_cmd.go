package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/phishy/internal/application"
	appscans "github.com/bryanwahyu/phishy/internal/application/scans"
	"github.com/bryanwahyu/phishy/internal/infra/db/open"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cfg.Database.Migrate = true
			st, err := open.Connect(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			cmd.Printf("%s schema up to date\n", st.Driver)
			return nil
		},
	}
}

func newScansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scans",
		Short: "Inspect stored scan results",
	}
	cmd.AddCommand(newScansListCmd())
	cmd.AddCommand(newScansGetCmd())
	cmd.AddCommand(newScansClearCmd())
	return cmd
}

func scanService(cmd *cobra.Command) (*appscans.Service, func() error, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	st, err := open.Connect(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, err
	}
	svc := &appscans.Service{Repo: st.Scans, Clock: application.SystemClock{}, Log: cliLogger(cmd, cfg)}
	return svc, st.Close, nil
}

func newScansListCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored scan summaries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := scanService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			list, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(list)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SCAN TIME\tMALICIOUS\tOK\tVT\tML\tURL")
			for _, s := range list {
				fmt.Fprintf(tw, "%s\t%t\t%t\t%t\t%t\t%s\n",
					s.ScanTime.Format(time.RFC3339), s.IsMalicious, s.ScanSuccess, s.HasReputation, s.HasML, s.URL)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newScansGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <url>",
		Short: "Print the stored result for a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := scanService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			res, found, err := svc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no stored result for %s", args[0])
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
}

func newScansClearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored scan result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear without --yes")
			}
			svc, closeFn, err := scanService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.Clear(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("cleared")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	return cmd
}

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/phishy/internal/config"
	"github.com/bryanwahyu/phishy/internal/infra/model"
	"github.com/bryanwahyu/phishy/internal/infra/model/forest"
	"github.com/bryanwahyu/phishy/internal/infra/storage"
)

func newModelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Inspect and publish classifier artifacts",
	}
	cmd.AddCommand(newModelInspectCmd())
	cmd.AddCommand(newModelPushCmd())
	cmd.AddCommand(newModelPullCmd())
	return cmd
}

func newModelInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <path>",
		Short: "Validate an artifact and print its columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := forest.LoadFile(args[0])
			if err != nil {
				return err
			}
			cols := f.Columns()
			cmd.Printf("trees:   %d\n", f.Trees())
			cmd.Printf("columns: %d\n", len(cols))
			for i, c := range cols {
				cmd.Printf("  %2d %s\n", i, c)
			}
			return nil
		},
	}
}

func newModelPushCmd() *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "push <path>",
		Short: "Validate an artifact and upload it to object storage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if key == "" {
				key = cfg.Model.ObjectKey
			}
			if key == "" {
				return errors.New("no object key: pass --key or set model.objectKey")
			}
			// never publish an artifact the server would reject
			if _, err := forest.LoadFile(args[0]); err != nil {
				return fmt.Errorf("push %s: %w", args[0], err)
			}

			st, err := openStore(cmd, cfg, true)
			if err != nil {
				return err
			}
			url, err := st.Upload(cmd.Context(), args[0], key)
			if err != nil {
				return fmt.Errorf("push %s: %w", args[0], err)
			}
			cmd.Println(url)
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "Object key (defaults to model.objectKey)")
	return cmd
}

func newModelPullCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Download the published artifact into the local cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Model.ObjectKey == "" {
				return errors.New("model.objectKey is not set")
			}
			if out == "" {
				out = cfg.Model.Path
			}

			st, err := openStore(cmd, cfg, false)
			if err != nil {
				return err
			}
			fresh, err := model.Sync(cmd.Context(), st, cfg.Model.ObjectKey, out)
			if err != nil {
				return fmt.Errorf("pull %s: %w", cfg.Model.ObjectKey, err)
			}
			if !fresh {
				cmd.Println("up to date:", out)
				return nil
			}
			cmd.Println("downloaded:", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Destination path (defaults to model.path)")
	return cmd
}

func openStore(cmd *cobra.Command, cfg *config.Config, create bool) (*storage.Store, error) {
	if strings.TrimSpace(cfg.Minio.Endpoint) == "" {
		return nil, errors.New("minio.endpoint is not set")
	}
	return storage.New(cmd.Context(), storage.Options{
		Endpoint:     cfg.Minio.Endpoint,
		Region:       cfg.Minio.Region,
		Bucket:       cfg.Minio.BucketName,
		AccessKey:    cfg.Minio.AccessKey,
		SecretKey:    cfg.Minio.SecretKey,
		UseSSL:       cfg.Minio.UseSSL,
		CreateBucket: create,
	})
}

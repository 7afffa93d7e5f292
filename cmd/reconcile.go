package cmd

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"audio-archive/config"
	"audio-archive/pkg/objectstore"
	"audio-archive/repository"
	server2 "audio-archive/server"
	"audio-archive/service"
)

func reconcile(config *config.Config) *cobra.Command {
	var repair bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "compare recording rows against stored objects and report drift",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := server2.SetupLogger(config)

			repo := repository.NewRepo(config.DB)
			store := objectstore.NewMinioStore(config.Storage, config.MinIOBucket)
			archive := service.New(repo, store, config)

			report, err := archive.Reconcile(ctx, repair)
			if err != nil {
				return err
			}

			zerolog.Ctx(ctx).Info().
				Strs("orphans", report.Orphans).
				Strs("missing", report.Missing).
				Int("repaired", report.Repaired).
				Bool("repair", repair).
				Msg("reconcile finished")
			return nil
		},
	}

	cmd.Flags().BoolVar(&repair, "repair", false, "delete orphaned objects and trim missing segment keys")

	return cmd
}

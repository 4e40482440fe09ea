package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/erazemk/vrste/internal/catalog"
	"github.com/erazemk/vrste/internal/seed"
	"github.com/erazemk/vrste/internal/store"
)

func newSeedCmd(a *app) *cobra.Command {
	var author string
	cmd := &cobra.Command{
		Use:   "seed <file.yaml>...",
		Short: "Import species from YAML files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			entries, err := seed.ParseFiles(ctx, args)
			if err != nil {
				return err
			}

			database, err := openDatabase(ctx, a.cfg.DBPath)
			if err != nil {
				return err
			}
			defer database.Close()

			if author == "" {
				author = a.cfg.AdminUser
			}
			profile, err := store.GetProfileByUsername(ctx, database, author)
			if err != nil {
				return err
			}
			if profile == nil {
				return fmt.Errorf("no user named %q", author)
			}

			images, err := newImageStore(ctx, a.cfg, database)
			if err != nil {
				return err
			}
			svc := catalog.New(database, images, a.logger)

			res, err := seed.Import(ctx, svc, profile.ID, entries)
			a.logger.Info("seed finished", "files", len(args), "created", res.Created, "skipped", res.Skipped)
			return err
		},
	}
	cmd.Flags().StringVar(&author, "author", "", "username the species are credited to (default: the admin user)")
	return cmd
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/gnemet/SlideText/internal/config"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Extract presentations dropped into the stage directory",
	Long: `Watch the configured stage directory and extract every .pptx file
that appears in it. Results are stored when a database is configured and
processed files are moved to the archive directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return err
		}

		db, store, err := openStore(cfg)
		if err != nil {
			return err
		}
		if db != nil {
			defer db.Close()
		}

		o, closeAI, err := newObserver(ctx, cfg, store, nil)
		if err != nil {
			return err
		}
		defer closeAI()

		return o.Start(ctx)
	},
}

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Alextopher/cosmosnaps/internal/apod"
	"github.com/Alextopher/cosmosnaps/internal/config"
	"github.com/Alextopher/cosmosnaps/internal/epic"
	"github.com/Alextopher/cosmosnaps/internal/fetch"
	"github.com/Alextopher/cosmosnaps/internal/spacex"
)

const nasaKeyEnv = "NASA_API_KEY"

func newAPODCmd(a *app) *cobra.Command {
	var (
		count   int
		saveDir string
		apiKey  string
		hd      bool
	)

	cmd := &cobra.Command{
		Use:   "apod",
		Short: "Download random Astronomy Pictures of the Day",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := config.ResolveAPIKey(nasaKeyEnv, a.cfg.NASA.APIKey, apiKey)
			if err != nil {
				return err
			}
			if saveDir == "" {
				saveDir = a.cfg.Publish.APODDir
			}

			logger := a.logger.With("component", "apod")
			client := apod.NewClient(key, a.httpClient(), logger,
				apod.BaseURL(a.cfg.NASA.APODURL),
				apod.HD(hd),
			)

			outcomes, err := client.Fetch(cmd.Context(), saveDir, count)
			if err != nil {
				return err
			}
			a.report(logger, outcomes)
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 30, "number of random pictures to request (at most 100)")
	cmd.Flags().StringVar(&saveDir, "save_dir", "", "destination directory (default $APOD_DIR)")
	cmd.Flags().StringVar(&apiKey, "api_key", "", "NASA API key (default $NASA_API_KEY)")
	cmd.Flags().BoolVar(&hd, "hd", false, "download the high resolution image when available")

	return cmd
}

func newEPICCmd(a *app) *cobra.Command {
	var (
		count   int
		saveDir string
		apiKey  string
	)

	cmd := &cobra.Command{
		Use:   "epic",
		Short: "Download the most recent EPIC images of Earth",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := config.ResolveAPIKey(nasaKeyEnv, a.cfg.NASA.APIKey, apiKey)
			if err != nil {
				return err
			}
			if saveDir == "" {
				saveDir = a.cfg.Publish.EPICDir
			}

			logger := a.logger.With("component", "epic")
			client := epic.NewClient(key, a.httpClient(), logger,
				epic.BaseURL(a.cfg.NASA.EPICURL),
				epic.ArchiveURL(a.cfg.NASA.ArchiveURL),
			)

			outcomes, err := client.Fetch(cmd.Context(), saveDir, count)
			if err != nil {
				return err
			}
			a.report(logger, outcomes)
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", epic.MaxCount, "number of images to download (at most 10)")
	cmd.Flags().StringVar(&saveDir, "save_dir", "", "destination directory (default $EPIC_DIR)")
	cmd.Flags().StringVar(&apiKey, "api_key", "", "NASA API key (default $NASA_API_KEY)")

	return cmd
}

func newSpaceXCmd(a *app) *cobra.Command {
	var (
		launchID string
		saveDir  string
	)

	cmd := &cobra.Command{
		Use:   "spacex",
		Short: "Download photos or mission patches of a SpaceX launch",
		RunE: func(cmd *cobra.Command, args []string) error {
			if saveDir == "" {
				saveDir = a.cfg.Publish.SpaceXDir
			}

			logger := a.logger.With("component", "spacex")
			client := spacex.NewClient(a.httpClient(), logger,
				spacex.BaseURL(a.cfg.SpaceX.LaunchesURL),
				spacex.Fallback(a.cfg.SpaceX.FallbackLaunchID),
			)

			outcomes, err := client.Fetch(cmd.Context(), saveDir, launchID)
			if err != nil {
				return err
			}
			a.report(logger, outcomes)
			return nil
		},
	}

	cmd.Flags().StringVar(&launchID, "launch_id", "", "launch id (default: latest launch)")
	cmd.Flags().StringVar(&saveDir, "save_dir", "", "destination directory (default $SPACEX_DIR)")

	return cmd
}

// report logs the batch summary and records every download in the ledger.
// Per item failures were already logged by the downloader, and a ledger that
// cannot be written only produces a warning.
func (a *app) report(logger *slog.Logger, outcomes []fetch.Outcome) {
	ok, failed := fetch.Summarize(outcomes)
	logger.Info("batch finished", "downloaded", ok, "failed", failed)

	l := a.ledger()
	for _, o := range outcomes {
		if !o.OK() {
			continue
		}
		if err := l.RecordDownload(o.Record); err != nil {
			logger.Warn("failed to record download", "path", o.Record.LocalPath, "error", err)
		}
	}
}

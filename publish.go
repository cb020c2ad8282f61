package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alextopher/cosmosnaps/internal/channel"
	"github.com/Alextopher/cosmosnaps/internal/config"
	"github.com/Alextopher/cosmosnaps/internal/fetch"
	"github.com/Alextopher/cosmosnaps/internal/publish"
	"github.com/Alextopher/cosmosnaps/internal/schedule"
)

const (
	sendAttempts = 3
	sendBackoff  = 2 * time.Second
)

// newChannel connects to the configured messaging service. It returns the
// channel, the id to post to and the largest photo the service accepts.
// Every request to the service is bounded by timeout.
func newChannel(cfg config.Channel, timeout time.Duration) (publish.Channel, string, int, error) {
	switch cfg.Kind {
	case "telegram":
		if cfg.TelegramToken == "" || cfg.TelegramChannel == "" {
			return nil, "", 0, fmt.Errorf("%w: set TELEGRAM_BOT_TOKEN and TELEGRAM_CHANNEL_ID", config.ErrMissingCredential)
		}
		tg, err := channel.NewTelegram(cfg.TelegramToken, timeout)
		if err != nil {
			return nil, "", 0, err
		}
		return tg, cfg.TelegramChannel, channel.TelegramMaxPhotoSize, nil

	case "discord":
		if cfg.DiscordToken == "" || cfg.DiscordChannelID == "" {
			return nil, "", 0, fmt.Errorf("%w: set DISCORD_TOKEN and DISCORD_CHANNEL_ID", config.ErrMissingCredential)
		}
		dc, err := channel.NewDiscord(cfg.DiscordToken, timeout)
		if err != nil {
			return nil, "", 0, err
		}
		return dc, cfg.DiscordChannelID, channel.DiscordMaxPhotoSize, nil
	}

	return nil, "", 0, fmt.Errorf("config error: unknown CHANNEL_KIND %q", cfg.Kind)
}

func newPublishCmd(a *app) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Post a random downloaded image every POST_INTERVAL_HOURS",
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, channelID, maxBytes, err := a.newChannel(a.cfg.Channel, a.cfg.HTTP.Timeout)
			if err != nil {
				return err
			}
			if a.cfg.Publish.MaxPhotoBytes > 0 {
				maxBytes = a.cfg.Publish.MaxPhotoBytes
			}

			sources := []publish.Source{
				{Dir: a.cfg.Publish.APODDir, Kind: fetch.SourceAPOD},
				{Dir: a.cfg.Publish.EPICDir, Kind: fetch.SourceEPIC},
				{Dir: a.cfg.Publish.SpaceXDir, Kind: fetch.SourceSpaceX},
			}

			p := publish.New(
				channel.WithRetry(ch, sendAttempts, sendBackoff),
				channelID,
				sources,
				a.logger.With("component", "publisher"),
				publish.MaxBytes(maxBytes),
				publish.WithRecorder(a.ledger()),
			)

			opts := []schedule.Option{schedule.Name("publish")}
			if once {
				opts = append(opts, schedule.Limit(1))
			}

			runner, err := schedule.Every(a.cfg.Publish.Interval(), a.logger.With("component", "scheduler"), opts...)
			if err != nil {
				return err
			}

			var last error
			err = runner.Run(cmd.Context(), func(ctx context.Context) error {
				_, last = p.Publish(ctx)
				return last
			})
			if err != nil {
				return err
			}

			if once {
				return last
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "publish a single image and exit")

	return cmd
}

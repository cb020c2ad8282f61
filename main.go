// Command cosmosnaps downloads space imagery from NASA and SpaceX and posts
// random pictures from the local collection to a Telegram or Discord channel.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alextopher/cosmosnaps/internal/config"
	"github.com/Alextopher/cosmosnaps/internal/fetch"
	"github.com/Alextopher/cosmosnaps/internal/history"
	"github.com/Alextopher/cosmosnaps/internal/publish"
)

// app carries what every subcommand needs. It is filled in by the root
// command's PersistentPreRunE.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	logOutput io.Writer

	// newChannel builds the messaging channel for publish. Replaced in tests.
	newChannel func(cfg config.Channel, timeout time.Duration) (publish.Channel, string, int, error)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := &app{logOutput: os.Stderr, newChannel: newChannel}
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "cosmosnaps",
		Short:        "Fetch space imagery and post it to a channel",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			logger, err := newLogger(a.logOutput, cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}

			a.cfg, a.logger = cfg, logger
			return nil
		},
	}

	root.AddCommand(
		newAPODCmd(a),
		newEPICCmd(a),
		newSpaceXCmd(a),
		newPublishCmd(a),
		newHistoryCmd(a),
	)

	return root
}

// newLogger builds the process logger. format is "text" or "json".
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("config error: LOG_LEVEL: %w", err)
	}

	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}

	return nil, fmt.Errorf("config error: LOG_FORMAT must be text or json, got %q", format)
}

// httpClient is the shared downloader, configured from the HTTP section.
func (a *app) httpClient() *fetch.Client {
	return fetch.NewClient(
		a.logger.With("component", "fetch"),
		fetch.Timeout(a.cfg.HTTP.Timeout),
		fetch.RateLimit(a.cfg.HTTP.RateLimit, 1),
		fetch.UserAgent(a.cfg.HTTP.UserAgent),
	)
}

// recorder is the history store used by every command. Without HISTORY_DB
// nothing is recorded.
type recorder interface {
	RecordDownload(rec fetch.ImageRecord) error
	RecordPost(post publish.Post) error
}

// ledger opens the history database only for the duration of each write,
// so fetch commands and a running publisher can share it.
func (a *app) ledger() recorder {
	if a.cfg.History.Path == "" {
		return history.Discard{}
	}
	return history.NewFile(a.cfg.History.Path)
}

package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Alextopher/cosmosnaps/internal/fetch"
	"github.com/Alextopher/cosmosnaps/internal/history"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent posts and download counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.History.Path == "" {
				return errors.New("history is disabled, set HISTORY_DB")
			}

			l, err := history.OpenReadOnly(a.cfg.History.Path)
			if err != nil {
				return err
			}
			defer l.Close()

			counts, err := l.DownloadCounts()
			if err != nil {
				return err
			}
			posts, err := l.Posts(limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SOURCE\tDOWNLOADS")
			for _, kind := range []fetch.SourceKind{fetch.SourceAPOD, fetch.SourceEPIC, fetch.SourceSpaceX} {
				fmt.Fprintf(w, "%s\t%d\n", kind, counts[kind])
			}
			fmt.Fprintln(w)

			fmt.Fprintln(w, "TIME\tSOURCE\tPATH")
			for _, post := range posts {
				fmt.Fprintf(w, "%s\t%s\t%s\n", post.Time.Local().Format("2006-01-02 15:04"), post.Source, post.Path)
			}

			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of posts to show (0 for all)")

	return cmd
}

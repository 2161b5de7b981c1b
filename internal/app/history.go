package app

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gicowa/internal/output"
	"github.com/blackwell-systems/gicowa/internal/store"
)

func newHistoryCmd(a *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [command target]",
		Short: "Show past runs recorded with --persist",
		Long: `Show the runs of lastrepocommits and lastwatchedcommits that completed
with --persist, newest first. Pass a command identity to show only its runs.`,
		Example: `  # Every recorded run
  gicowa history

  # Runs of one command identity
  gicowa history lastwatchedcommits AurelienLourot --limit 5`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.sess.history(cmd.Context(), strings.Join(args, " "), limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to show (0 for all)")

	return cmd
}

func (s *session) history(_ context.Context, identity string, limit int) error {
	var runs []*store.Run

	if _, err := os.Stat(s.settings.HistoryPath); err == nil {
		st, err := store.New(s.settings.HistoryPath)
		if err != nil {
			return err
		}
		defer st.Close()

		runs, err = st.ListRuns(identity, limit)
		if err != nil && !errors.Is(err, store.ErrNotInitialized) {
			return err
		}

		if identity != "" && len(runs) == 0 {
			known, err := st.Identities()
			if err == nil && len(known) > 0 {
				s.console.Echo("No runs of " + identity + ". Recorded: " + strings.Join(known, ", "))
				return nil
			}
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	table := output.RenderRunTable(runs, s.app.Clock())
	s.console.Echo(strings.TrimSuffix(table, "\n"))
	return nil
}

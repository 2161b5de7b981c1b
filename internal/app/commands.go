package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gicowa/internal/hub"
	"github.com/blackwell-systems/gicowa/internal/output"
	"github.com/blackwell-systems/gicowa/internal/since"
	"github.com/blackwell-systems/gicowa/internal/timestamp"
)

var errSinceUsage = errors.New(`expected "since YYYY MM DD hh mm ss" or "sincelast"`)

func newWatchlistCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:     "watchlist <username>",
		Short:   "List repos watched by a user",
		Example: `  gicowa watchlist AurelienLourot`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.sess.watchlist(cmd.Context(), args[0])
		},
	}
}

func newLastRepoCommitsCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "lastrepocommits <repo> (since YYYY MM DD hh mm ss | sincelast)",
		Short: "List last commits on a repo",
		Long: `List the commits on a repository whose committer timestamp is after the
given UTC moment, preceded by the last push time if it is after that moment.

"sincelast" uses the moment this same command last completed (see --persist).
On the very first run there is no such moment and nothing is reported.`,
		Example: `  gicowa lastrepocommits AurelienLourot/github-commit-watcher since 2015 07 05 09 12 00
  gicowa --persist lastrepocommits AurelienLourot/github-commit-watcher sincelast`,
		Args: sinceArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			explicit, _ := parseSinceArgs(args)
			return a.sess.lastRepoCommits(cmd.Context(), args[0], explicit)
		},
	}
}

func newLastWatchedCommitsCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "lastwatchedcommits <username> (since YYYY MM DD hh mm ss | sincelast)",
		Short: "List last commits watched by a user",
		Long: `List the commits on every repository watched by a user whose committer
timestamp is after the given UTC moment. Each line is prefixed with the
repository name.`,
		Example: `  gicowa lastwatchedcommits AurelienLourot since 2015 07 05 09 12 00
  gicowa --persist --mailto me@example.com lastwatchedcommits AurelienLourot sincelast`,
		Args: sinceArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			explicit, _ := parseSinceArgs(args)
			return a.sess.lastWatchedCommits(cmd.Context(), args[0], explicit)
		},
	}
}

// sinceArgs validates "<target> since Y M D h m s" and "<target> sincelast".
func sinceArgs(cmd *cobra.Command, args []string) error {
	_, err := parseSinceArgs(args)
	return err
}

// parseSinceArgs returns the explicit boundary, or nil for "sincelast".
func parseSinceArgs(args []string) (*timestamp.Timestamp, error) {
	switch {
	case len(args) == 2 && args[1] == "sincelast":
		return nil, nil
	case len(args) >= 2 && args[1] == "since":
		ts, err := timestamp.FromArgs(args[2:])
		if err != nil {
			return nil, err
		}
		return &ts, nil
	}
	return nil, errSinceUsage
}

func (s *session) watchlist(ctx context.Context, username string) error {
	svc, err := s.hub()
	if err != nil {
		return err
	}

	s.console.Echo("watchlist " + username)
	repos, err := svc.WatchedRepositories(ctx, username)
	if err != nil {
		return err
	}
	for _, repo := range repos {
		s.console.Echo(s.console.Red(repo))
	}
	return nil
}

func (s *session) lastRepoCommits(ctx context.Context, repo string, explicit *timestamp.Timestamp) error {
	svc, err := s.hub()
	if err != nil {
		return err
	}

	req := since.Request{Command: "lastrepocommits", Target: repo, Explicit: explicit}
	return s.runSince(ctx, req, func(ctx context.Context, boundary time.Time) ([]string, error) {
		return repoLines(ctx, svc, s.console, repo, boundary, "")
	})
}

func (s *session) lastWatchedCommits(ctx context.Context, username string, explicit *timestamp.Timestamp) error {
	svc, err := s.hub()
	if err != nil {
		return err
	}

	req := since.Request{Command: "lastwatchedcommits", Target: username, Explicit: explicit}
	return s.runSince(ctx, req, func(ctx context.Context, boundary time.Time) ([]string, error) {
		repos, err := svc.WatchedRepositories(ctx, username)
		if err != nil {
			return nil, err
		}
		s.log.Printf("%s watches %d repos", username, len(repos))

		bar := output.NewProgress(s.app.Err, len(repos), "")
		defer bar.Finish()

		var lines []string
		for _, repo := range repos {
			bar.Increment(repo)
			repoReport, err := repoLines(ctx, svc, s.console, repo, boundary, s.console.Red(repo)+" - ")
			if err != nil {
				return nil, err
			}
			lines = append(lines, repoReport...)
		}
		return lines, nil
	})
}

// repoLines reports the last push of repo if it is not older than boundary,
// then every commit after boundary. Each line starts with prefix.
func repoLines(ctx context.Context, svc hub.Service, c *output.Console, repo string, boundary time.Time, prefix string) ([]string, error) {
	var lines []string

	pushed, err := svc.LastPush(ctx, repo)
	if err != nil {
		return nil, err
	}
	if !pushed.Before(boundary) {
		lines = append(lines, prefix+"Last commit pushed on "+c.Green(formatDate(pushed)))
	}

	commits, err := svc.CommitsSince(ctx, repo, boundary)
	if err != nil {
		return nil, err
	}
	for _, commit := range commits {
		lines = append(lines, fmt.Sprintf("%sCommitted on %s - %s - %s",
			prefix, c.Green(formatDate(commit.Date)), c.Blue(commit.Author), commit.Message))
	}

	return lines, nil
}

func formatDate(t time.Time) string {
	return t.UTC().Format(timestamp.Layout)
}

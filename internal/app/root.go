package app

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gicowa/internal/config"
	"github.com/blackwell-systems/gicowa/internal/hub"
	"github.com/blackwell-systems/gicowa/internal/mail"
	"github.com/blackwell-systems/gicowa/internal/memory"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// App holds the process-level collaborators of gicowa. Every field has a
// production default; tests replace them.
type App struct {
	Out io.Writer
	Err io.Writer

	// NewHub builds the hosting-service client from "login:password".
	NewHub func(credentials string) (hub.Service, error)

	// Deliver replaces SMTP delivery when non-nil.
	Deliver mail.DeliverFunc

	Clock    func() time.Time
	Hostname func() (string, error)

	// ForceColor skips terminal detection and colours output unless
	// --no-color is given.
	ForceColor bool

	sess *session
}

// New returns an App wired to the real terminal, GitHub and SMTP.
func New() *App {
	return &App{
		Out: os.Stdout,
		Err: os.Stderr,
		NewHub: func(credentials string) (hub.Service, error) {
			c, err := hub.New(credentials)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		Clock:    time.Now,
		Hostname: os.Hostname,
	}
}

// NewRootCmd builds the gicowa command tree around a.
func NewRootCmd(a *App) *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:   "gicowa",
		Short: "Watch GitHub commits easily",
		Long: `gicowa lists the repositories a GitHub user watches and the commits
pushed to them since a given moment, and can mail the report.

With --persist, gicowa remembers when each command last completed, so
"sincelast" picks up where the previous run stopped. This makes gicowa
a good fit for cron:

  gicowa --persist --mailto me@example.com lastwatchedcommits AurelienLourot sincelast`,
		Example: `  # List repos watched by a user
  gicowa watchlist AurelienLourot

  # Commits on a repo since an explicit UTC moment
  gicowa lastrepocommits AurelienLourot/github-commit-watcher since 2015 07 05 09 12 00

  # Commits on every watched repo since the previous run
  gicowa --persist lastwatchedcommits AurelienLourot sincelast`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.openSession(cmd.Flags(), configFile)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.sess.finish(cmd.Context(), cmd.Name())
		},
	}
	root.SetVersionTemplate("{{.Name}} version {{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default: $XDG_CONFIG_HOME/gicowa/config.toml)")
	flags.String(config.KeyCredentials, "", "your GitHub login and password (e.g. 'AurelienLourot:password')")
	flags.Bool(config.KeyNoColor, false, "disable color in output")
	flags.Bool(config.KeyColor, false, "force color even when stdout is not a terminal")
	flags.String(config.KeyMailTo, "", "e-mail address to which the output should be sent in any case")
	flags.String(config.KeyMailFrom, "", "e-mail server and credentials to send from (e.g. 'smtp.googlemail.com:465:me@gmail.com:password')")
	flags.String(config.KeyErrorTo, "", "e-mail address to which the output should be sent in case of an error")
	flags.Bool(config.KeyPersist, false, "keep track of the last commands run in the state file")
	flags.String(config.KeyState, "~/"+memory.DefaultFilename, "state file used by --persist and sincelast")
	flags.String(config.KeyHistory, "", "run history database (default: $XDG_CONFIG_HOME/gicowa/history.db)")
	flags.BoolP(config.KeyVerbose, "v", false, "log diagnostics to stderr")

	root.SuggestionsMinimumDistance = 2

	root.AddCommand(newWatchlistCmd(a))
	root.AddCommand(newLastRepoCommitsCmd(a))
	root.AddCommand(newLastWatchedCommitsCmd(a))
	root.AddCommand(newHistoryCmd(a))

	return root
}

// Run executes the command line args. A failing command is reported on
// the console and mailed to the error recipients before its error is
// returned.
func (a *App) Run(ctx context.Context, args []string) error {
	a.sess = nil

	root := NewRootCmd(a)
	root.SetArgs(args)
	root.SetOut(a.Out)
	root.SetErr(a.Err)

	err := root.ExecuteContext(ctx)
	if err != nil && a.sess != nil {
		a.sess.reportError(ctx, err)
	}
	return err
}

// Execute runs gicowa with the process arguments.
func Execute() error {
	return New().Run(context.Background(), os.Args[1:])
}

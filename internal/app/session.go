package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/blackwell-systems/gicowa/internal/config"
	"github.com/blackwell-systems/gicowa/internal/hub"
	"github.com/blackwell-systems/gicowa/internal/mail"
	"github.com/blackwell-systems/gicowa/internal/memory"
	"github.com/blackwell-systems/gicowa/internal/output"
	"github.com/blackwell-systems/gicowa/internal/since"
	"github.com/blackwell-systems/gicowa/internal/store"
)

// session is the state of one invocation: resolved settings, the console
// transcript, mail recipients, and the lazily loaded memory.
type session struct {
	app      *App
	settings *config.Settings
	console  *output.Console
	sender   *mail.Sender
	log      *log.Logger
	errorTo  string

	svc     hub.Service
	mem     *memory.Memory
	results []*since.Result
}

// openSession resolves the settings and sets a.sess as soon as a console
// exists, so that later setup failures are still reported.
func (a *App) openSession(flags *pflag.FlagSet, configFile string) error {
	settings, err := config.Load(flags, configFile)
	if err != nil {
		return err
	}

	if settings.HistoryPath == "" {
		dir, err := config.Dir()
		if err != nil {
			return fmt.Errorf("failed to get config directory: %w", err)
		}
		settings.HistoryPath = filepath.Join(dir, "history.db")
	}

	colored := !settings.NoColor && (settings.Color || a.ForceColor || output.IsColorEnabled())

	logger := log.New(io.Discard, "gicowa: ", 0)
	if settings.Verbose {
		logger.SetOutput(a.Err)
	}
	if settings.ConfigFile != "" {
		logger.Printf("read config from %s", settings.ConfigFile)
	}

	s := &session{
		app:      a,
		settings: settings,
		console:  output.NewConsole(a.Out, colored),
		sender:   mail.NewSender(mail.DefaultConfig()),
		log:      logger,
	}
	a.sess = s

	if settings.MailFrom != "" {
		cfg, err := mail.ParseFrom(settings.MailFrom)
		if err != nil {
			return err
		}
		s.sender = mail.NewSender(cfg)
	}
	if a.Deliver != nil {
		s.sender.SetDeliver(a.Deliver)
	}
	if settings.MailTo != "" {
		s.sender.AddRecipient(settings.MailTo)
	}
	s.errorTo = settings.ErrorTo

	return nil
}

// hub returns the hosting-service client, creating it on first use.
func (s *session) hub() (hub.Service, error) {
	if s.svc == nil {
		svc, err := s.app.NewHub(s.settings.Credentials)
		if err != nil {
			return nil, err
		}
		s.svc = svc
	}
	return s.svc, nil
}

// memory returns the state file contents, loading them on first use.
func (s *session) memory() (*memory.Memory, error) {
	if s.mem == nil {
		mem, err := memory.Load(s.settings.StatePath)
		if err != nil {
			return nil, err
		}
		s.log.Printf("loaded %d entries from %s", mem.Len(), s.settings.StatePath)
		s.mem = mem
	}
	return s.mem, nil
}

// runSince runs work through a since.Runner bound to the session memory.
func (s *session) runSince(ctx context.Context, req since.Request, work since.Work) error {
	mem, err := s.memory()
	if err != nil {
		return err
	}

	runner := since.New(mem, s.console)
	runner.SetClock(s.app.Clock)

	res, err := runner.Run(ctx, req, work)
	if err != nil {
		return err
	}
	s.log.Printf("%s: %d lines, next boundary %s", res.Identity, len(res.Lines), res.Now)
	s.results = append(s.results, res)
	return nil
}

// finish mails the transcript and persists state after a successful command.
func (s *session) finish(ctx context.Context, command string) error {
	if len(s.sender.Recipients()) > 0 {
		if s.console.LineCount() > 1 {
			if err := s.mail(ctx, command); err != nil {
				return err
			}
		} else {
			s.console.Echo("No e-mail sent.")
		}
	}

	if s.settings.Persist {
		return s.persist()
	}
	return nil
}

// mail sends the transcript so far, signed with the host name.
func (s *session) mail(ctx context.Context, subject string) error {
	host, err := s.app.Hostname()
	if err != nil {
		s.log.Printf("hostname: %v", err)
		host = "localhost"
	}

	body := s.console.Echoed() + "\nSent from " + host + ".\n"
	if err := s.sender.SendReport(ctx, subject, body); err != nil {
		return err
	}
	s.console.Echo("Sent by e-mail to " + strings.Join(s.sender.Recipients(), ", "))
	return nil
}

// persist writes the memory back to the state file and appends the
// completed runs to the history database.
func (s *session) persist() error {
	if s.mem != nil {
		if err := s.mem.Save(s.settings.StatePath); err != nil {
			return err
		}
		s.log.Printf("saved %d entries to %s", s.mem.Len(), s.settings.StatePath)
	}

	if len(s.results) == 0 {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.settings.HistoryPath), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	st, err := store.New(s.settings.HistoryPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.CreateSchema(); err != nil {
		return err
	}

	for _, res := range s.results {
		completed, err := res.Now.Instant()
		if err != nil {
			return err
		}
		run := &store.Run{
			Identity:    res.Identity,
			Since:       res.Since.String(),
			CompletedAt: completed,
			LineCount:   len(res.Lines),
		}
		if _, err := st.InsertRun(run); err != nil {
			return err
		}
		s.log.Printf("recorded run %s for %s", run.ID, run.Identity)
	}

	return nil
}

// reportError echoes err and mails the transcript to every recipient,
// including the --errorto address.
func (s *session) reportError(ctx context.Context, err error) {
	s.console.Echo("Oops, an error occured.\n" + err.Error() + "\n")

	if s.errorTo != "" {
		s.sender.AddRecipient(s.errorTo)
	}
	if len(s.sender.Recipients()) == 0 {
		return
	}
	if mailErr := s.mail(ctx, "error"); mailErr != nil {
		fmt.Fprintf(s.app.Err, "Failed to mail the error report: %v\n", mailErr)
	}
}

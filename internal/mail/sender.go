// Package mail delivers command reports by e-mail.
package mail

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	gomail "github.com/wneessen/go-mail"
)

// SubjectPrefix is prepended to every report subject.
const SubjectPrefix = "[gicowa] "

var (
	// ErrInvalidRecipient is returned when a destination address is rejected.
	ErrInvalidRecipient = errors.New("invalid recipient")

	// ErrBadMailFrom is returned for a malformed --mailfrom value.
	ErrBadMailFrom = errors.New("bad mailfrom syntax, expected server:port:sender:password")
)

// Config describes the outgoing server and the sender identity.
type Config struct {
	Server   string
	Port     int
	Sender   string
	Password string
}

// DefaultConfig sends unauthenticated mail through a local MTA.
func DefaultConfig() Config {
	return Config{
		Server: "localhost",
		Sender: "gicowa@localhost",
	}
}

// ParseFrom parses "server:port:sender:password". The password may itself
// contain colons.
func ParseFrom(spec string) (Config, error) {
	parts := strings.SplitN(spec, ":", 4)
	if len(parts) != 4 {
		return Config{}, ErrBadMailFrom
	}

	port, err := strconv.Atoi(parts[1])
	if err != nil || port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("%w: invalid port %q", ErrBadMailFrom, parts[1])
	}
	if parts[0] == "" || parts[2] == "" {
		return Config{}, ErrBadMailFrom
	}

	return Config{
		Server:   parts[0],
		Port:     port,
		Sender:   parts[2],
		Password: parts[3],
	}, nil
}

// DeliverFunc hands a composed message to the mail transport.
type DeliverFunc func(ctx context.Context, msg *gomail.Msg) error

// Sender accumulates recipients and delivers reports to them.
type Sender struct {
	cfg     Config
	dest    []string
	deliver DeliverFunc
}

// NewSender creates a Sender for cfg with no recipients.
func NewSender(cfg Config) *Sender {
	s := &Sender{cfg: cfg}
	s.deliver = s.dialAndSend
	return s
}

// SetDeliver replaces the SMTP transport (useful for testing).
func (s *Sender) SetDeliver(fn DeliverFunc) {
	s.deliver = fn
}

// AddRecipient adds addr unless it is already present.
func (s *Sender) AddRecipient(addr string) {
	for _, d := range s.dest {
		if d == addr {
			return
		}
	}
	s.dest = append(s.dest, addr)
}

// Recipients returns the destination addresses in insertion order.
func (s *Sender) Recipients() []string {
	return append([]string(nil), s.dest...)
}

// SendReport mails body to every recipient with subject "[gicowa] <subject>".
func (s *Sender) SendReport(ctx context.Context, subject, body string) error {
	if len(s.dest) == 0 {
		return nil
	}

	msg := gomail.NewMsg()
	if err := msg.From(s.cfg.Sender); err != nil {
		return fmt.Errorf("invalid sender %q: %w", s.cfg.Sender, err)
	}
	if err := msg.To(s.dest...); err != nil {
		return s.invalidRecipient(err)
	}
	msg.Subject(SubjectPrefix + subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	if err := s.deliver(ctx, msg); err != nil {
		var sendErr *gomail.SendError
		if errors.As(err, &sendErr) && sendErr.Reason == gomail.ErrSMTPRcptTo {
			return s.invalidRecipient(err)
		}
		return fmt.Errorf("failed to send mail: %w", err)
	}

	return nil
}

func (s *Sender) invalidRecipient(cause error) error {
	return fmt.Errorf("%w: %s addresses malformed? %v", ErrInvalidRecipient, strings.Join(s.dest, ", "), cause)
}

// dialAndSend uses plain SMTP without auth when no port or password is
// configured, and implicit TLS with PLAIN auth otherwise.
func (s *Sender) dialAndSend(ctx context.Context, msg *gomail.Msg) error {
	var opts []gomail.Option
	if s.cfg.Port == 0 || s.cfg.Password == "" {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
		if s.cfg.Port != 0 {
			opts = append(opts, gomail.WithPort(s.cfg.Port))
		}
	} else {
		opts = append(opts,
			gomail.WithPort(s.cfg.Port),
			gomail.WithSSL(),
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Sender),
			gomail.WithPassword(s.cfg.Password),
		)
	}

	client, err := gomail.NewClient(s.cfg.Server, opts...)
	if err != nil {
		return fmt.Errorf("configure SMTP client for %s: %w", s.cfg.Server, err)
	}

	return client.DialAndSendWithContext(ctx, msg)
}

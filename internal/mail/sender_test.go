package mail

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"
)

func TestParseFrom(t *testing.T) {
	cfg, err := ParseFrom("smtp.googlemail.com:465:someone@gmail.com:pass:word")
	require.NoError(t, err)
	assert.Equal(t, Config{
		Server:   "smtp.googlemail.com",
		Port:     465,
		Sender:   "someone@gmail.com",
		Password: "pass:word",
	}, cfg)
}

func TestParseFromErrors(t *testing.T) {
	for _, spec := range []string{
		"smtp.example.com",
		"smtp.example.com:465:someone@example.com",
		"smtp.example.com:port:someone@example.com:pw",
		"smtp.example.com:0:someone@example.com:pw",
		":465:someone@example.com:pw",
	} {
		_, err := ParseFrom(spec)
		assert.ErrorIs(t, err, ErrBadMailFrom, spec)
	}
}

func TestRecipientsAreASet(t *testing.T) {
	s := NewSender(DefaultConfig())
	s.AddRecipient("a@example.com")
	s.AddRecipient("b@example.com")
	s.AddRecipient("a@example.com")

	assert.Equal(t, []string{"a@example.com", "b@example.com"}, s.Recipients())
}

func TestSendReport(t *testing.T) {
	s := NewSender(DefaultConfig())
	s.AddRecipient("dest1@example.com")
	s.AddRecipient("dest2@example.com")

	var sent *gomail.Msg
	s.SetDeliver(func(_ context.Context, msg *gomail.Msg) error {
		sent = msg
		return nil
	})

	require.NoError(t, s.SendReport(context.Background(), "watchlist", "content\n"))
	require.NotNil(t, sent)

	assert.Equal(t, []string{"[gicowa] watchlist"}, sent.GetGenHeader(gomail.HeaderSubject))

	rcpts, err := sent.GetRecipients()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"dest1@example.com", "dest2@example.com"}, rcpts)
}

func TestSendReportWithoutRecipientsIsNoop(t *testing.T) {
	s := NewSender(DefaultConfig())
	s.SetDeliver(func(context.Context, *gomail.Msg) error {
		t.Fatal("deliver called without recipients")
		return nil
	})

	assert.NoError(t, s.SendReport(context.Background(), "watchlist", "content"))
}

func TestSendReportMalformedAddress(t *testing.T) {
	s := NewSender(DefaultConfig())
	s.AddRecipient("not an address")
	s.SetDeliver(func(context.Context, *gomail.Msg) error {
		t.Fatal("deliver called with a malformed address")
		return nil
	})

	err := s.SendReport(context.Background(), "watchlist", "content")
	require.ErrorIs(t, err, ErrInvalidRecipient)
	assert.Contains(t, err.Error(), "not an address addresses malformed?")
}

func TestSendReportRejectedByServer(t *testing.T) {
	s := NewSender(DefaultConfig())
	s.AddRecipient("nobody@example.com")
	s.SetDeliver(func(context.Context, *gomail.Msg) error {
		return &gomail.SendError{Reason: gomail.ErrSMTPRcptTo}
	})

	err := s.SendReport(context.Background(), "error", "content")
	assert.ErrorIs(t, err, ErrInvalidRecipient)
}

func TestSendReportTransportFailure(t *testing.T) {
	s := NewSender(DefaultConfig())
	s.AddRecipient("someone@example.com")
	boom := errors.New("connection refused")
	s.SetDeliver(func(context.Context, *gomail.Msg) error { return boom })

	err := s.SendReport(context.Background(), "watchlist", "content")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidRecipient)
}

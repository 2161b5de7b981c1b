package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/blackwell-systems/gicowa/internal/hub"
)

// fakeHub serves three watched repos, each pushed at 2015-10-11 20:22:24
// with one commit at 2015-10-11 20:15:00.
type fakeHub struct {
	watched map[string][]string
	pushed  time.Time
	commit  hub.Commit

	boundaries []time.Time
}

func newFakeHub() *fakeHub {
	return &fakeHub{
		watched: map[string][]string{
			"myUsername": {"mySubscription1", "mySubscription2", "mySubscription3"},
			"lonely":     nil,
		},
		pushed: time.Date(2015, 10, 11, 20, 22, 24, 0, time.UTC),
		commit: hub.Commit{
			Date:    time.Date(2015, 10, 11, 20, 15, 0, 0, time.UTC),
			Author:  "myCommitter",
			Message: "myMessage",
		},
	}
}

func (f *fakeHub) WatchedRepositories(_ context.Context, username string) ([]string, error) {
	repos, ok := f.watched[username]
	if !ok {
		return nil, fmt.Errorf("%w: %s user doesn't exist?", hub.ErrUserNotFound, username)
	}
	return repos, nil
}

func (f *fakeHub) CommitsSince(_ context.Context, fullName string, since time.Time) ([]hub.Commit, error) {
	f.boundaries = append(f.boundaries, since)
	if f.commit.Date.After(since) {
		return []hub.Commit{f.commit}, nil
	}
	return nil, nil
}

func (f *fakeHub) LastPush(_ context.Context, fullName string) (time.Time, error) {
	if fullName == "ghost/repo" {
		return time.Time{}, fmt.Errorf("%w: %s repo doesn't exist?", hub.ErrRepositoryNotFound, fullName)
	}
	return f.pushed, nil
}

var testNow = time.Date(2015, 10, 12, 8, 0, 0, 0, time.UTC)

// newTestApp returns an App writing to a buffer, with HOME and the XDG
// config dir inside a temp dir.
func newTestApp(t *testing.T, svc hub.Service) (*App, *bytes.Buffer) {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("NO_COLOR", "1")

	out := &bytes.Buffer{}
	a := &App{
		Out: out,
		Err: io.Discard,
		NewHub: func(string) (hub.Service, error) {
			return svc, nil
		},
		Clock:    func() time.Time { return testNow },
		Hostname: func() (string, error) { return "myHost", nil },
	}
	return a, out
}

func TestRootCommand(t *testing.T) {
	a, _ := newTestApp(t, newFakeHub())
	root := NewRootCmd(a)

	if root.Use != "gicowa" {
		t.Errorf("expected Use to be 'gicowa', got '%s'", root.Use)
	}
	if root.Short == "" || root.Long == "" {
		t.Error("expected Short and Long descriptions to be set")
	}
	if !root.SilenceUsage || !root.SilenceErrors {
		t.Error("expected SilenceUsage and SilenceErrors to be true")
	}
	if root.SuggestionsMinimumDistance != 2 {
		t.Errorf("SuggestionsMinimumDistance = %d, want 2", root.SuggestionsMinimumDistance)
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	a, _ := newTestApp(t, newFakeHub())
	root := NewRootCmd(a)

	found := make(map[string]bool)
	for _, cmd := range root.Commands() {
		found[cmd.Name()] = true
	}

	for _, expected := range []string{"watchlist", "lastrepocommits", "lastwatchedcommits", "history"} {
		if !found[expected] {
			t.Errorf("expected command '%s' to be registered", expected)
		}
	}
}

func TestRootCommandHasPersistentFlags(t *testing.T) {
	a, _ := newTestApp(t, newFakeHub())
	root := NewRootCmd(a)

	for _, name := range []string{"credentials", "no-color", "color", "mailto", "mailfrom", "errorto", "persist", "state", "history", "config", "verbose"} {
		flag := root.PersistentFlags().Lookup(name)
		if flag == nil {
			t.Errorf("expected --%s flag to be registered", name)
			continue
		}
		if flag.Usage == "" {
			t.Errorf("expected --%s flag to have usage text", name)
		}
	}
}

func TestVersion(t *testing.T) {
	a, out := newTestApp(t, newFakeHub())

	if err := a.Run(context.Background(), []string{"--version"}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := out.String(); got != "gicowa version "+Version+"\n" {
		t.Errorf("version output = %q", got)
	}
}

func TestBareInvocationShowsHelp(t *testing.T) {
	a, out := newTestApp(t, newFakeHub())

	if err := a.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "lastwatchedcommits") {
		t.Errorf("expected help listing the commands, got %q", out.String())
	}
}

func TestUnknownCommand(t *testing.T) {
	a, out := newTestApp(t, newFakeHub())

	err := a.Run(context.Background(), []string{"watchlst", "x"})
	if err == nil {
		t.Fatal("expected an error for an unknown command")
	}
	if strings.Contains(out.String(), "Oops") {
		t.Error("usage errors should not produce an error report")
	}
}

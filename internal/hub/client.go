// Package hub talks to the remote code-hosting service (GitHub).
package hub

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
)

const perPage = 100

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrRepositoryNotFound = errors.New("repository not found")
	ErrBadCredentials     = errors.New("bad credentials")
	ErrRateLimited        = errors.New("API rate limit exceeded")
	ErrOffline            = errors.New("no internet connection")
	ErrCredentialSyntax   = errors.New("bad credentials syntax, expected login:password")
)

// Commit is one commit reported by the service.
type Commit struct {
	Date    time.Time
	Author  string
	Message string
}

// Service is what the report commands need from the hosting service.
type Service interface {
	WatchedRepositories(ctx context.Context, username string) ([]string, error)
	CommitsSince(ctx context.Context, fullName string, since time.Time) ([]Commit, error)
	LastPush(ctx context.Context, fullName string) (time.Time, error)
}

// Client implements Service on top of the GitHub REST API.
type Client struct {
	gh            *github.Client
	authenticated bool
}

// New creates a Client. credentials is "login:password" (a personal access
// token works as the password); empty means anonymous access.
func New(credentials string) (*Client, error) {
	if credentials == "" {
		return &Client{gh: github.NewClient(nil)}, nil
	}

	login, password, ok := strings.Cut(credentials, ":")
	if !ok || login == "" {
		return nil, ErrCredentialSyntax
	}

	tp := &github.BasicAuthTransport{Username: login, Password: password}
	return &Client{gh: github.NewClient(tp.Client()), authenticated: true}, nil
}

// SetBaseURL points the client at another API root (useful for testing and
// GitHub Enterprise).
func (c *Client) SetBaseURL(raw string) error {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid API URL %q: %w", raw, err)
	}
	c.gh.BaseURL = u
	return nil
}

// WatchedRepositories returns the full names of the repositories username watches.
func (c *Client) WatchedRepositories(ctx context.Context, username string) ([]string, error) {
	opts := &github.ListOptions{PerPage: perPage}

	var names []string
	for {
		repos, resp, err := c.gh.Activity.ListWatched(ctx, username, opts)
		if err != nil {
			return nil, c.annotate(err, ErrUserNotFound, fmt.Sprintf("%s user doesn't exist?", username))
		}
		for _, repo := range repos {
			names = append(names, repo.GetFullName())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return names, nil
}

// CommitsSince returns the commits on fullName whose committer date is after since.
func (c *Client) CommitsSince(ctx context.Context, fullName string, since time.Time) ([]Commit, error) {
	owner, repo, err := splitFullName(fullName)
	if err != nil {
		return nil, err
	}

	opts := &github.CommitsListOptions{
		Since:       since,
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	var commits []Commit
	for {
		page, resp, err := c.gh.Repositories.ListCommits(ctx, owner, repo, opts)
		if err != nil {
			return nil, c.annotate(err, ErrRepositoryNotFound, fmt.Sprintf("%s repo doesn't exist?", fullName))
		}
		for _, rc := range page {
			committer := rc.GetCommit().GetCommitter()
			commits = append(commits, Commit{
				Date:    committer.GetDate().Time.UTC(),
				Author:  committer.GetName(),
				Message: rc.GetCommit().GetMessage(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return commits, nil
}

// LastPush returns when fullName was last pushed to.
func (c *Client) LastPush(ctx context.Context, fullName string) (time.Time, error) {
	owner, repo, err := splitFullName(fullName)
	if err != nil {
		return time.Time{}, err
	}

	r, _, err := c.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return time.Time{}, c.annotate(err, ErrRepositoryNotFound, fmt.Sprintf("%s repo doesn't exist?", fullName))
	}

	return r.GetPushedAt().Time.UTC(), nil
}

func splitFullName(fullName string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || repo == "" {
		return "", "", fmt.Errorf("%w: %s repo doesn't exist? (expected owner/name)", ErrRepositoryNotFound, fullName)
	}
	return owner, repo, nil
}

// annotate maps API failures to the package sentinels with a hint for the user.
func (c *Client) annotate(err error, notFound error, hint string) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) && !c.authenticated {
		return fmt.Errorf("%w? Use the --credentials option: %v", ErrRateLimited, err)
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", notFound, hint)
		case http.StatusUnauthorized:
			if c.authenticated {
				return fmt.Errorf("%w? %v", ErrBadCredentials, err)
			}
		case http.StatusForbidden:
			if !c.authenticated {
				return fmt.Errorf("%w? Use the --credentials option: %v", ErrRateLimited, err)
			}
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Errorf("%w? %v", ErrOffline, err)
	}

	return err
}

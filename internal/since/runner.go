// Package since runs report commands that need a "since" boundary.
//
// A Runner resolves the boundary (explicit fields, or the last recorded
// completion of the same command identity), runs the work with it, and on
// success records the moment the run started as the identity's new
// completion time.
package since

import (
	"context"
	"fmt"
	"time"

	"github.com/blackwell-systems/gicowa/internal/memory"
	"github.com/blackwell-systems/gicowa/internal/timestamp"
)

// Work produces report lines for everything newer than since.
type Work func(ctx context.Context, since time.Time) ([]string, error)

// Echoer receives report lines.
type Echoer interface {
	Echo(text string)
}

// Request identifies one invocation.
type Request struct {
	Command string
	Target  string

	// Explicit is the user-supplied boundary. Nil means "since last run".
	Explicit *timestamp.Timestamp
}

// Identity returns the memory key for the request: "<command> <target>".
func (r Request) Identity() string {
	return r.Command + " " + r.Target
}

// Result describes a completed run.
type Result struct {
	Identity string
	Since    timestamp.Timestamp
	Now      timestamp.Timestamp
	Lines    []string
}

// Runner wires a Memory and an output boundary around Work.
type Runner struct {
	mem   *memory.Memory
	out   Echoer
	clock func() time.Time
}

// New creates a Runner. mem is mutated in place; saving it is up to the caller.
func New(mem *memory.Memory, out Echoer) *Runner {
	return &Runner{
		mem:   mem,
		out:   out,
		clock: time.Now,
	}
}

// SetClock replaces the wall clock (useful for testing).
func (r *Runner) SetClock(clock func() time.Time) {
	r.clock = clock
}

// Resolve computes the now snapshot and the since boundary for req without
// running anything.
func (r *Runner) Resolve(req Request) (since, now timestamp.Timestamp) {
	now = timestamp.FromTime(r.clock())

	if req.Explicit != nil {
		return *req.Explicit, now
	}

	if last, ok := r.mem.Get(req.Identity()); ok {
		return last, now
	}

	// First run of this identity: the window is empty.
	return now, now
}

// Run resolves the boundary, echoes the header, runs work and echoes its
// lines, then records the now snapshot under the request identity. Nothing
// is recorded when the boundary is malformed or work fails.
func (r *Runner) Run(ctx context.Context, req Request, work Work) (*Result, error) {
	identity := req.Identity()
	since, now := r.Resolve(req)

	display, err := since.Format()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", identity, err)
	}
	r.out.Echo(identity + " since " + display)

	boundary, err := since.Instant()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", identity, err)
	}

	lines, err := work(ctx, boundary)
	if err != nil {
		return nil, err
	}
	for _, line := range lines {
		r.out.Echo(line)
	}

	r.mem.Set(identity, now)

	return &Result{
		Identity: identity,
		Since:    since,
		Now:      now,
		Lines:    lines,
	}, nil
}

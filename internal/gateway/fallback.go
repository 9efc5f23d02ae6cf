package gateway

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samuflix/backend/internal/logging"
)

// Tier identifies where an operation was answered.
type Tier int

const (
	// TierNone means every attempt failed.
	TierNone Tier = iota
	TierPrimary
	TierSecondary
	TierLocal
)

func (t Tier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierLocal:
		return "local"
	default:
		return "none"
	}
}

// Attempt is one step of a fallback chain.
type Attempt struct {
	Tier Tier
	Name string
	Run  func(ctx context.Context) error
}

// Outcome records how a single attempt ended.
type Outcome struct {
	Tier          Tier
	Name          string
	Err           error
	NotConfigured bool
}

// Result is the tagged outcome of Resolve: the tier that succeeded, or TierNone.
type Result struct {
	Tier     Tier
	Outcomes []Outcome
}

// OK reports whether some attempt succeeded.
func (r Result) OK() bool {
	return r.Tier != TierNone
}

// Failures returns the outcomes of the attempts that did not succeed.
func (r Result) Failures() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// Resolve runs attempts in order and stops at the first success. Attempts are
// never raced, so a successful write is never followed by another.
func Resolve(ctx context.Context, attempts ...Attempt) Result {
	logger := logging.FromContext(ctx)

	var res Result
	for _, a := range attempts {
		if err := ctx.Err(); err != nil {
			res.Outcomes = append(res.Outcomes, Outcome{Tier: a.Tier, Name: a.Name, Err: err})
			return res
		}

		err := runAttempt(ctx, a)
		if err == nil {
			res.Tier = a.Tier
			res.Outcomes = append(res.Outcomes, Outcome{Tier: a.Tier, Name: a.Name})
			return res
		}

		outcome := Outcome{
			Tier:          a.Tier,
			Name:          a.Name,
			Err:           err,
			NotConfigured: errors.Is(err, ErrNotConfigured),
		}
		res.Outcomes = append(res.Outcomes, outcome)

		if outcome.NotConfigured {
			logger.Debug("backend not configured, falling back", slog.String("tier", a.Tier.String()), slog.String("backend", a.Name))
			continue
		}
		logger.Warn("backend attempt failed, falling back", slog.String("tier", a.Tier.String()), slog.String("backend", a.Name), slog.Any("error", err))
	}

	return res
}

func runAttempt(ctx context.Context, a Attempt) error {
	if a.Run == nil {
		return ErrNotConfigured
	}
	return a.Run(ctx)
}

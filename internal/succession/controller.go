// Package succession sources, filters and endorses successors.
//
// A succession attempt draws up to a bounded number of candidates. Each is
// rejected if its derived class exceeds the tier ceiling or its identity is
// ineligible; the first candidate passing both is endorsed and the
// succession count S* increments. If every draw is rejected authority
// lapses to NULL_AUTHORITY and the eligibility gate freezes.
package succession

import (
	"io"
	"log/slog"
	"math/rand/v2"

	"github.com/roach88/tenure/internal/eclass"
	"github.com/roach88/tenure/internal/eligibility"
	"github.com/roach88/tenure/internal/lease"
)

// DefaultMaxRetries bounds candidate draws per succession attempt.
const DefaultMaxRetries = 20

// Outcome describes one succession attempt.
type Outcome struct {
	Epoch    int
	Endorsed bool

	// Candidate and Tenure are set only when Endorsed.
	Candidate Candidate
	Tenure    lease.Tenure

	Attempts           int
	RejectedTier       int
	RejectedIneligible int
}

// Controller runs succession attempts for one run.
type Controller struct {
	gen        Generator
	rng        *rand.Rand
	gate       *eligibility.Gate
	lease      *lease.Lease
	maxEClass  eclass.Class
	maxRetries int
	logger     *slog.Logger

	count int
}

// Option configures a Controller.
type Option func(*Controller)

// WithMaxEClass sets the tier ceiling.
func WithMaxEClass(c eclass.Class) Option {
	return func(ctl *Controller) {
		ctl.maxEClass = c
	}
}

// WithMaxRetries sets the draw bound per attempt.
func WithMaxRetries(n int) Option {
	return func(ctl *Controller) {
		if n > 0 {
			ctl.maxRetries = n
		}
	}
}

// WithLogger sets the controller's logger.
func WithLogger(l *slog.Logger) Option {
	return func(ctl *Controller) {
		if l != nil {
			ctl.logger = l
		}
	}
}

// NewController wires a controller. rng must be the run's candidate stream.
func NewController(gen Generator, rng *rand.Rand, gate *eligibility.Gate, l *lease.Lease, opts ...Option) *Controller {
	ctl := &Controller{
		gen:        gen,
		rng:        rng,
		gate:       gate,
		lease:      l,
		maxEClass:  eclass.Max,
		maxRetries: DefaultMaxRetries,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(ctl)
	}
	return ctl
}

// Count returns S*, the number of successful endorsements so far.
func (c *Controller) Count() int {
	return c.count
}

// Succeed runs one succession attempt at epoch.
func (c *Controller) Succeed(epoch int) (Outcome, error) {
	out := Outcome{Epoch: epoch}
	for out.Attempts < c.maxRetries {
		out.Attempts++
		cand := c.gen.Propose(c.rng)

		if cand.EClass > c.maxEClass {
			out.RejectedTier++
			c.logger.Debug("candidate rejected: tier",
				"epoch", epoch, "policy", cand.PolicyID, "eclass", cand.EClass.String())
			continue
		}
		if !c.gate.Eligible(cand.PolicyID) {
			out.RejectedIneligible++
			c.logger.Debug("candidate rejected: ineligible",
				"epoch", epoch, "policy", cand.PolicyID, "streak", c.gate.Streak(cand.PolicyID))
			continue
		}

		ten, err := c.lease.Endorse(cand.PolicyID, cand.EClass, epoch)
		if err != nil {
			return out, err
		}
		c.gate.Thaw()
		c.count++
		out.Endorsed = true
		out.Candidate = cand
		out.Tenure = ten
		c.logger.Info("successor endorsed",
			"epoch", epoch,
			"policy", cand.PolicyID,
			"eclass", cand.EClass.String(),
			"rent", ten.Rent,
			"succession_count", c.count,
			"attempts", out.Attempts)
		return out, nil
	}

	c.gate.Freeze()
	c.logger.Warn("succession failed: authority lapsed",
		"epoch", epoch,
		"attempts", out.Attempts,
		"rejected_tier", out.RejectedTier,
		"rejected_ineligible", out.RejectedIneligible)
	return out, nil
}

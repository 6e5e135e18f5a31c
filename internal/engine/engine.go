package engine

import (
	"fmt"
	"io"
	"log/slog"
	"maps"

	"github.com/roach88/tenure/internal/commitment"
	"github.com/roach88/tenure/internal/config"
	"github.com/roach88/tenure/internal/eclass"
	"github.com/roach88/tenure/internal/eligibility"
	"github.com/roach88/tenure/internal/interference"
	"github.com/roach88/tenure/internal/lease"
	"github.com/roach88/tenure/internal/rent"
	"github.com/roach88/tenure/internal/streams"
	"github.com/roach88/tenure/internal/succession"
	"github.com/roach88/tenure/internal/successor"
	"github.com/roach88/tenure/internal/telemetry"
)

// Harness runs one seeded simulation.
//
// INVARIANTS:
//   - Only the lease writes tenure status, E-class and rent
//   - Epoch records are appended once, in order, and never modified
//   - Run may be called once
type Harness struct {
	seed   int64
	cfg    config.Config
	digest string
	logger *slog.Logger

	schedule   *rent.Schedule
	streams    *streams.Set
	clock      *Clock
	lease      *lease.Lease
	gate       *eligibility.Gate
	ledger     *commitment.Ledger
	layer      *interference.Layer
	controller *succession.Controller
	recorder   *telemetry.Recorder

	generator succession.Generator
	catalog   map[string]successor.Factory

	policy           successor.Policy
	pendingViolation bool
	lapsed           bool
	idleEpochs       int
	ran              bool
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the structured logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithGenerator replaces the weighted candidate generator.
func WithGenerator(g succession.Generator) Option {
	return func(h *Harness) {
		h.generator = g
	}
}

// WithCatalog adds or replaces policy factories available to the weighted
// generator. Weights still come from the configuration.
func WithCatalog(catalog map[string]successor.Factory) Option {
	return func(h *Harness) {
		maps.Copy(h.catalog, catalog)
	}
}

// New validates cfg and wires a harness for seed. Configuration failures
// are returned as *ConfigError before anything runs.
func New(seed int64, cfg config.Config, opts ...Option) (*Harness, error) {
	h := &Harness{
		seed:    seed,
		cfg:     cfg,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		streams: streams.NewSet(seed),
		clock:   NewClock(cfg.EpochLength),
		catalog: successor.Factories(),
	}
	for _, opt := range opts {
		opt(h)
	}

	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Err: err}
	}
	schedule, err := cfg.Schedule()
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	tier, err := cfg.Tier()
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	digest, err := cfg.Digest()
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	model, err := interference.New(cfg.Interference, h.streams.Get(streams.Interference))
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	switch {
	case h.generator != nil:
	case cfg.Policy != "":
		gen, err := succession.NewFixedGenerator(h.catalog, cfg.Policy)
		if err != nil {
			return nil, &ConfigError{Err: err}
		}
		h.generator = gen
	default:
		gen, err := succession.NewWeightedGenerator(h.catalog, cfg.CandidateWeights)
		if err != nil {
			return nil, &ConfigError{Err: err}
		}
		h.generator = gen
	}

	specs := cfg.Specs()
	target := cfg.Interference.Target
	if target == "" && len(specs) > 0 {
		target = specs[0].Key
	}

	h.schedule = schedule
	h.digest = digest
	h.lease = lease.New(schedule, lease.Config{
		ActionsCap:           cfg.ActionsCap,
		RenewalCheckInterval: cfg.RenewalCheckInterval,
		MaxRenewals:          cfg.MaxRenewals,
	})
	h.gate = eligibility.New(cfg.EligibilityThreshold)
	h.ledger = commitment.NewLedger(cfg.CommitmentCostCap, cfg.CommitmentTTL)
	h.layer = interference.NewLayer(model, target)
	h.controller = succession.NewController(
		h.generator,
		h.streams.Get(streams.Candidates),
		h.gate,
		h.lease,
		succession.WithMaxEClass(tier),
		succession.WithMaxRetries(cfg.MaxSuccessionRetries),
		succession.WithLogger(h.logger),
	)
	h.recorder = telemetry.NewRecorder()

	if err := h.ledger.Seed(specs, 0); err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("seed commitments: %w", err)}
	}
	return h, nil
}

// Seed returns the run seed.
func (h *Harness) Seed() int64 {
	return h.seed
}

// ConfigDigest returns the content hash of the configuration.
func (h *Harness) ConfigDigest() string {
	return h.digest
}

// CurrentEClass returns the active tenure's class.
func (h *Harness) CurrentEClass() (eclass.Class, bool) {
	t, ok := h.lease.Current()
	return t.EClass, ok
}

// CurrentRent returns the active tenure's per-epoch rent.
func (h *Harness) CurrentRent() (int, bool) {
	t, ok := h.lease.Current()
	return t.Rent, ok
}

// RentTable returns the resolved rent schedule.
func (h *Harness) RentTable() []rent.Entry {
	return h.schedule.Table()
}

// Authority reports whether a tenure currently holds authority.
func (h *Harness) Authority() lease.Authority {
	return h.lease.Authority()
}

// SuccessionCount returns S*.
func (h *Harness) SuccessionCount() int {
	return h.controller.Count()
}

// Streaks returns a snapshot of every eligibility streak.
func (h *Harness) Streaks() map[string]int {
	return h.gate.Snapshot()
}

// AdversaryTrace returns the adversary state after every epoch so far.
func (h *Harness) AdversaryTrace() []int {
	return h.layer.Trace()
}

package telemetry

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/roach88/tenure/internal/canon"
)

// TerminalCause records why a run stopped.
type TerminalCause string

const (
	CauseHorizonExhausted     TerminalCause = "HORIZON_EXHAUSTED"
	CauseDegeneracyDetected   TerminalCause = "DEGENERACY_DETECTED"
	CauseStoppedOnBankruptcy  TerminalCause = "STOPPED_ON_BANKRUPTCY"
	CauseStoppedOnRevocation  TerminalCause = "STOPPED_ON_REVOCATION"
	CauseStoppedOnRenewalFail TerminalCause = "STOPPED_ON_RENEWAL_FAILURE"
)

// Regime is the classifier's label for a whole run.
type Regime string

// TenureSummary is one tenure as reported in the Run Result.
type TenureSummary struct {
	Index      int    `json:"index"`
	PolicyID   string `json:"policy_id"`
	EClass     string `json:"eclass"`
	Rent       int    `json:"rent"`
	StartEpoch int    `json:"start_epoch"`
	EndEpoch   int    `json:"end_epoch"`
	Status     string `json:"status"`
	Renewals   int    `json:"renewals"`
}

// RunResult is the immutable outcome of one run.
type RunResult struct {
	Seed            int64           `json:"seed"`
	ConfigDigest    string          `json:"config_digest"`
	SuccessionCount int             `json:"succession_count"`
	Epochs          []EpochRecord   `json:"epochs"`
	Events          []Event         `json:"events"`
	Tenures         []TenureSummary `json:"tenures"`
	Bankruptcies    int             `json:"bankruptcies"`
	Revocations     int             `json:"revocations"`
	TerminalCause   TerminalCause   `json:"terminal_cause"`
	Regime          Regime          `json:"regime"`
	Fingerprint     string          `json:"fingerprint"`
}

// Finalize freezes the recorder's log into a Run Result and fingerprints it.
func (r *Recorder) Finalize(seed int64, configDigest string, successions int, tenures []TenureSummary, cause TerminalCause, regime Regime) (*RunResult, error) {
	events := r.Events()
	res := &RunResult{
		Seed:            seed,
		ConfigDigest:    configDigest,
		SuccessionCount: successions,
		Epochs:          r.Epochs(),
		Events:          events,
		Tenures:         slices.Clone(tenures),
		Bankruptcies:    Count(events, EventBankrupt),
		Revocations:     Count(events, EventRevoked),
		TerminalCause:   cause,
		Regime:          regime,
	}
	fp, err := res.ComputeFingerprint()
	if err != nil {
		return nil, err
	}
	res.Fingerprint = fp
	return res, nil
}

// ComputeFingerprint hashes every field except Fingerprint.
func (res *RunResult) ComputeFingerprint() (string, error) {
	return canon.Digest(canon.DomainRun, res.body())
}

// Canonical returns the canonical JSON encoding, fingerprint included.
// Keys match the struct's JSON tags, so json.Unmarshal reads it back.
func (res *RunResult) Canonical() ([]byte, error) {
	obj := res.body()
	obj["fingerprint"] = canon.String(res.Fingerprint)
	return canon.MarshalCanonical(obj)
}

// Decode parses a Run Result and checks its fingerprint.
func Decode(data []byte) (*RunResult, error) {
	var res RunResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decode run result: %w", err)
	}
	fp, err := res.ComputeFingerprint()
	if err != nil {
		return nil, err
	}
	if fp != res.Fingerprint {
		return nil, fmt.Errorf("run result fingerprint mismatch: recorded %s, computed %s", res.Fingerprint, fp)
	}
	return &res, nil
}

func (res *RunResult) body() canon.Object {
	epochs := make(canon.Array, len(res.Epochs))
	for i, e := range res.Epochs {
		epochs[i] = e.canon()
	}
	events := make(canon.Array, len(res.Events))
	for i, ev := range res.Events {
		events[i] = canon.Obj(
			canon.P("epoch", canon.Int(ev.Epoch)),
			canon.P("kind", canon.String(ev.Kind)),
			canon.P("policy_id", canon.String(ev.PolicyID)),
			canon.P("detail", canon.String(ev.Detail)),
		)
	}
	tenures := make(canon.Array, len(res.Tenures))
	for i, t := range res.Tenures {
		tenures[i] = canon.Obj(
			canon.P("index", canon.Int(t.Index)),
			canon.P("policy_id", canon.String(t.PolicyID)),
			canon.P("eclass", canon.String(t.EClass)),
			canon.P("rent", canon.Int(t.Rent)),
			canon.P("start_epoch", canon.Int(t.StartEpoch)),
			canon.P("end_epoch", canon.Int(t.EndEpoch)),
			canon.P("status", canon.String(t.Status)),
			canon.P("renewals", canon.Int(t.Renewals)),
		)
	}
	return canon.Obj(
		canon.P("seed", canon.Int(res.Seed)),
		canon.P("config_digest", canon.String(res.ConfigDigest)),
		canon.P("succession_count", canon.Int(res.SuccessionCount)),
		canon.P("epochs", epochs),
		canon.P("events", events),
		canon.P("tenures", tenures),
		canon.P("bankruptcies", canon.Int(res.Bankruptcies)),
		canon.P("revocations", canon.Int(res.Revocations)),
		canon.P("terminal_cause", canon.String(res.TerminalCause)),
		canon.P("regime", canon.String(res.Regime)),
	)
}

func (e EpochRecord) canon() canon.Object {
	return canon.Obj(
		canon.P("index", canon.Int(e.Index)),
		canon.P("start_cycle", canon.Int(e.StartCycle)),
		canon.P("authority", canon.String(e.Authority)),
		canon.P("policy_id", canon.String(e.PolicyID)),
		canon.P("eclass", canon.String(e.EClass)),
		canon.P("rent_charged", canon.Int(e.RentCharged)),
		canon.P("commitment_cost", canon.Int(e.CommitmentCost)),
		canon.P("effective_steps", canon.Int(e.EffectiveSteps)),
		canon.P("steps_used", canon.Int(e.StepsUsed)),
		canon.P("actions_used", canon.Int(e.ActionsUsed)),
		canon.P("actions_denied", canon.Int(e.ActionsDenied)),
		canon.P("commitments_evaluated", canon.Int(e.CommitmentsEvaluated)),
		canon.P("commitments_satisfied", canon.Int(e.CommitmentsSatisfied)),
		canon.P("commitments_expired", canon.Int(e.CommitmentsExpired)),
		canon.P("semantic_pass", canon.String(e.SemanticPass)),
		canon.P("renewal", canon.String(e.Renewal)),
		canon.P("adversary_state", canon.Int(e.AdversaryState)),
	)
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/tenure/internal/classify"
	"github.com/roach88/tenure/internal/contract"
	"github.com/roach88/tenure/internal/interference"
	"github.com/roach88/tenure/internal/lease"
	"github.com/roach88/tenure/internal/succession"
	"github.com/roach88/tenure/internal/successor"
	"github.com/roach88/tenure/internal/telemetry"
)

// epochOutcome carries what stop conditions need from one epoch.
type epochOutcome struct {
	bankrupt bool
	renewal  lease.Renewal
	executed int
}

// Run executes the simulation to the horizon or a stop condition.
//
// The returned error is non-nil only for contract violations and context
// cancellation; every experimental outcome is data in the result. The
// context is checked between epochs.
func (h *Harness) Run(ctx context.Context) (*telemetry.RunResult, error) {
	if h.ran {
		return nil, errors.New("harness already ran")
	}
	h.ran = true

	h.logger.Info("run starting",
		"seed", h.seed,
		"config", h.digest,
		"horizon", h.cfg.Horizon,
		"epoch_length", h.cfg.EpochLength,
		"interference", h.layer.Model().Name(),
		"interference_target", h.layer.Target(),
		"commitments", h.ledger.Keys())

	cause := telemetry.CauseHorizonExhausted
	for h.clock.Cycle() < h.cfg.Horizon {
		epoch := h.clock.Epoch()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if h.lease.Authority() == lease.AuthorityNull {
			if err := h.succeed(epoch); err != nil {
				return nil, h.abort(err)
			}
		}

		out, err := h.runEpoch(epoch)
		if err != nil {
			return nil, h.abort(err)
		}
		if stop, ok := h.stopCause(out); ok {
			cause = stop
			break
		}
	}

	epochs, events := h.recorder.Epochs(), h.recorder.Events()
	regime := classify.Classify(epochs, events, cause)
	res, err := h.recorder.Finalize(h.seed, h.digest, h.controller.Count(), h.tenures(), cause, regime)
	if err != nil {
		return nil, err
	}

	h.logger.Info("run finished",
		"seed", h.seed,
		"epochs", len(res.Epochs),
		"succession_count", res.SuccessionCount,
		"bankruptcies", res.Bankruptcies,
		"revocations", res.Revocations,
		"terminal_cause", res.TerminalCause,
		"regime", res.Regime,
		"fingerprint", res.Fingerprint)
	return res, nil
}

func (h *Harness) abort(err error) error {
	var v *contract.Violation
	if errors.As(err, &v) {
		h.logger.Error("contract violation",
			"code", v.Code,
			"epoch", v.Epoch,
			"message", v.Message)
	}
	return err
}

// succeed runs one succession attempt and records its events.
func (h *Harness) succeed(epoch int) error {
	out, err := h.controller.Succeed(epoch)
	if err != nil {
		return err
	}
	if !out.Endorsed {
		if !h.lapsed {
			h.lapsed = true
			h.recorder.Emit(telemetry.Event{
				Epoch:  epoch,
				Kind:   telemetry.EventLapse,
				Detail: lapseCause(out),
			})
		}
		return nil
	}

	if h.lapsed {
		h.lapsed = false
		h.recorder.Emit(telemetry.Event{Epoch: epoch, Kind: telemetry.EventRecovery, PolicyID: out.Candidate.PolicyID})
	}
	h.recorder.Emit(telemetry.Event{
		Epoch:    epoch,
		Kind:     telemetry.EventEndorsed,
		PolicyID: out.Candidate.PolicyID,
		Detail:   fmt.Sprintf("eclass=%s rent=%d attempts=%d", out.Tenure.EClass, out.Tenure.Rent, out.Attempts),
	})
	h.policy = out.Candidate.Policy
	h.pendingViolation = false
	return nil
}

func lapseCause(out succession.Outcome) string {
	if out.RejectedIneligible > 0 {
		return telemetry.LapseIneligible
	}
	return telemetry.LapseTier
}

// runEpoch executes one epoch in the fixed order described in the
// package documentation.
func (h *Harness) runEpoch(epoch int) (epochOutcome, error) {
	var out epochOutcome

	startCycle := h.clock.EpochStart(epoch)
	if startCycle != h.clock.Cycle() {
		return out, fmt.Errorf("epoch %d starts at cycle %d, clock at %d", epoch, startCycle, h.clock.Cycle())
	}
	cycles := min(h.cfg.EpochLength, h.cfg.Horizon-startCycle)
	ten, active := h.lease.Current()

	rec := telemetry.EpochRecord{
		Index:      epoch,
		StartCycle: startCycle,
		Authority:  string(h.lease.Authority()),
	}
	if active {
		rec.PolicyID = ten.PolicyID
		rec.EClass = ten.EClass.String()
		rec.EffectiveSteps = h.schedule.EffectiveSteps(ten.EClass)
	}

	h.layer.BeginEpoch()
	var emitted []successor.Action

	if active {
		ok, err := h.lease.BeginEpoch(epoch)
		if err != nil {
			return out, err
		}
		if ok {
			ok, err = h.lease.ChargeCommitments(h.ledger.Cost(epoch))
			if err != nil {
				return out, err
			}
			if !ok {
				h.bankrupt(epoch, ten, lease.ChargeCommitments)
			}
		} else {
			h.bankrupt(epoch, ten, lease.ChargeRent)
		}
		out.bankrupt = !ok
	}

	for c := 0; c < cycles; c++ {
		h.lease.Tick()
		if h.lease.Authority() != lease.AuthorityActive || !h.lease.EpochOpen() {
			h.clock.Tick()
			continue
		}

		a := h.policy.Decide(h.observe(epoch, c, emitted))
		h.clock.Tick()

		if a.IsWait() {
			emitted = append(emitted, successor.WaitAction)
			h.layer.Record(successor.WaitAction)
			continue
		}
		budget := h.lease.Budget()
		if budget.ActionsRemaining() == 0 {
			h.lease.Deny()
			continue
		}
		steps := max(1, a.Steps)
		ok, err := h.lease.Spend(steps)
		if err != nil {
			return out, err
		}
		if !ok {
			h.bankrupt(epoch, ten, lease.ChargeAction)
			out.bankrupt = true
			continue
		}
		executed := successor.Action{Type: a.Type, Steps: steps}
		emitted = append(emitted, executed)
		h.layer.Record(executed)
		out.executed++
	}

	if h.lease.EpochOpen() {
		budget, err := h.lease.EndEpoch()
		if err != nil {
			return out, err
		}
		rec.RentCharged = budget.Rent
		rec.CommitmentCost = budget.CommitmentCost
		rec.StepsUsed = budget.StepsUsed
		rec.ActionsUsed = budget.ActionsUsed
		rec.ActionsDenied = budget.ActionsDenied
	}

	if !slices.Equal(h.layer.TrueLog(), emitted) {
		return out, contract.New(contract.CodeLogMutated, epoch, "true log diverged from %d emitted actions", len(emitted))
	}

	// The holder is still ACTIVE only if nothing terminated it this epoch.
	holding := active && h.lease.Authority() == lease.AuthorityActive

	effect, state := h.layer.EndEpoch(interference.Observable{
		Epoch:     epoch,
		Active:    holding,
		Streak:    h.gate.Streak(ten.PolicyID),
		Threshold: h.gate.Threshold(),
	})
	rec.AdversaryState = state
	if effect.InjectInvalid {
		h.logger.Debug("adversary injected invalid action", "epoch", epoch, "state", state)
	}

	ev, err := h.ledger.Evaluate(epoch, h.layer.ObservedTypes(), h.layer.Observer())
	if err != nil {
		return out, err
	}
	rec.CommitmentsEvaluated = ev.Evaluated()
	rec.CommitmentsSatisfied = ev.Satisfied()
	rec.CommitmentsExpired = len(ev.Expired)
	for _, key := range ev.Expired {
		h.recorder.Emit(telemetry.Event{Epoch: epoch, Kind: telemetry.EventCommitmentExpired, Detail: key})
		if c, ok := h.ledger.Get(key); ok {
			h.logger.Debug("commitment expired",
				"epoch", epoch,
				"key", key,
				"satisfactions", c.Satisfactions,
				"failures", c.Failures)
		}
	}
	pass, judged := ev.Pass()
	switch {
	case !active || !judged:
		rec.SemanticPass = telemetry.VerdictNone
	case pass:
		rec.SemanticPass = telemetry.VerdictPass
	default:
		rec.SemanticPass = telemetry.VerdictFail
	}

	if holding && judged {
		streak, err := h.gate.Update(ten.PolicyID, epoch, pass)
		if err != nil {
			return out, err
		}
		h.logger.Debug("eligibility updated", "epoch", epoch, "policy", ten.PolicyID, "pass", pass, "streak", streak)
	}

	if holding {
		if undeclared := interference.Undeclared(h.layer.Observed(), h.policy); len(undeclared) > 0 {
			h.pendingViolation = true
			h.logger.Debug("undeclared actions observed", "epoch", epoch, "policy", ten.PolicyID, "types", undeclared)
		}
		if h.lease.RenewalDue() {
			r, err := h.renew(epoch, ten)
			if err != nil {
				return out, err
			}
			rec.Renewal = string(r)
			out.renewal = r
		}
	}

	h.idle(out.executed)
	if err := h.recorder.Append(rec); err != nil {
		return out, err
	}
	h.logger.Debug("epoch closed",
		"epoch", epoch,
		"authority", rec.Authority,
		"policy", rec.PolicyID,
		"steps_used", rec.StepsUsed,
		"actions_used", rec.ActionsUsed,
		"semantic_pass", rec.SemanticPass,
		"live_commitments", h.ledger.Live(epoch+1))
	return out, nil
}

// observe builds the policy's read-only view for one cycle.
func (h *Harness) observe(epoch, epochCycle int, emitted []successor.Action) successor.Observation {
	ten, _ := h.lease.Current()
	budget := h.lease.Budget()
	return successor.Observation{
		Cycle:            h.clock.Cycle(),
		Epoch:            epoch,
		EpochCycle:       epochCycle,
		EpochLength:      h.cfg.EpochLength,
		EClass:           ten.EClass,
		Rent:             ten.Rent,
		StepsCap:         budget.StepsCap,
		ActionsCap:       budget.ActionsCap,
		StepsRemaining:   budget.Remaining,
		ActionsRemaining: budget.ActionsRemaining(),
		Outstanding:      h.ledger.Outstanding(epoch, interference.Types(emitted)),
		FailStreak:       h.gate.Streak(ten.PolicyID),
	}
}

func (h *Harness) bankrupt(epoch int, ten lease.Tenure, kind lease.ChargeKind) {
	h.recorder.Emit(telemetry.Event{
		Epoch:    epoch,
		Kind:     telemetry.EventBankrupt,
		PolicyID: ten.PolicyID,
		Detail:   string(kind),
	})
	h.logger.Warn("tenure bankrupt", "epoch", epoch, "policy", ten.PolicyID, "charge", kind)
}

func (h *Harness) renew(epoch int, ten lease.Tenure) (lease.Renewal, error) {
	violation := h.pendingViolation
	r, err := h.lease.CheckRenewal(violation)
	if err != nil {
		return r, err
	}
	h.pendingViolation = false

	switch r {
	case lease.RenewalRenewed:
		h.recorder.Emit(telemetry.Event{Epoch: epoch, Kind: telemetry.EventRenewed, PolicyID: ten.PolicyID})
	case lease.RenewalRevoked:
		h.recorder.Emit(telemetry.Event{Epoch: epoch, Kind: telemetry.EventRevoked, PolicyID: ten.PolicyID, Detail: "undeclared action"})
		h.logger.Warn("tenure revoked", "epoch", epoch, "policy", ten.PolicyID)
	case lease.RenewalLimit:
		h.recorder.Emit(telemetry.Event{Epoch: epoch, Kind: telemetry.EventRenewalLimit, PolicyID: ten.PolicyID})
		h.logger.Info("tenure reached renewal limit", "epoch", epoch, "policy", ten.PolicyID)
	}
	return r, nil
}

func (h *Harness) idle(executed int) {
	if executed == 0 {
		h.idleEpochs++
	} else {
		h.idleEpochs = 0
	}
}

func (h *Harness) stopCause(out epochOutcome) (telemetry.TerminalCause, bool) {
	stop := h.cfg.Stop
	switch {
	case out.bankrupt && stop.OnBankruptcy:
		return telemetry.CauseStoppedOnBankruptcy, true
	case out.renewal == lease.RenewalRevoked && stop.OnRevocation:
		return telemetry.CauseStoppedOnRevocation, true
	case (out.renewal == lease.RenewalRevoked || out.renewal == lease.RenewalLimit) && stop.OnRenewalFailure:
		return telemetry.CauseStoppedOnRenewalFail, true
	case h.cfg.DegeneracyWindow > 0 && h.idleEpochs >= h.cfg.DegeneracyWindow:
		return telemetry.CauseDegeneracyDetected, true
	}
	return "", false
}

func (h *Harness) tenures() []telemetry.TenureSummary {
	all := h.lease.Tenures()
	slices.SortFunc(all, func(a, b lease.Tenure) int { return a.Index - b.Index })
	out := make([]telemetry.TenureSummary, len(all))
	for i, t := range all {
		out[i] = telemetry.TenureSummary{
			Index:      t.Index,
			PolicyID:   t.PolicyID,
			EClass:     t.EClass.String(),
			Rent:       t.Rent,
			StartEpoch: t.StartEpoch,
			EndEpoch:   t.EndEpoch,
			Status:     string(t.Status),
			Renewals:   t.Renewals,
		}
	}
	return out
}

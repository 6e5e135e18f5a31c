// Package engine implements the tenure scheduler: the outer loop that
// steps cycles into epochs up to the horizon and drives every other
// component in a fixed order.
//
// ARCHITECTURE:
//
// Single-goroutine loop:
// A run is strictly sequential. Cycles advance in order, epochs are atomic
// accounting units, and every random draw comes from a named stream seeded
// from the run seed. Re-running a seed and configuration yields
// byte-identical epoch records, terminal cause and classification.
//
// Per-epoch flow:
//  1. If authority is NULL, attempt succession (initialization or retry).
//  2. Charge rent, then commitment cost, against the fresh budget.
//  3. Run one policy decision per cycle. Actions pass through the
//     interference layer into the true log; the action cap denies excess
//     actions; an action the budget cannot absorb bankrupts the tenure.
//  4. Close the epoch and advance the adversary once.
//  5. Evaluate commitments against the observed view.
//  6. Update the holder's eligibility streak (ACTIVE only).
//  7. Check renewal if a renewal boundary fell inside the epoch.
//  8. Append the epoch record and test stop conditions.
//
// A tenure that terminates in epoch e is succeeded at the start of e+1.
//
// CRITICAL PATTERNS:
//
// Attribution integrity:
// Telemetry and eligibility attribution read the true log. Commitment
// evaluation and the renewal structural check read the observed view.
//
// Contract violations:
// Broken structural invariants surface as *contract.Violation from Run and
// abort the run. Bankruptcy, revocation and lapse are recorded outcomes.
package engine

// Package reconcile decides whether a snapshot delivered by the replicated
// store may replace locally-mutated state. The store echoes every write back
// to its author, so without these guards a client's own just-written update
// can arrive interleaved with a newer local mutation and regress it.
package reconcile

import (
	"github.com/shiftline/emergency/pkg/game/types"
)

// Reason says why a snapshot was rejected.
type Reason string

const (
	ReasonAccepted        Reason = "accepted"
	ReasonStaleVersion    Reason = "stale_version"
	ReasonStaleWatermark  Reason = "stale_watermark"
	ReasonBehindLocal     Reason = "behind_local"
	ReasonPhaseRegression Reason = "phase_regression"
)

// Decision is the tagged outcome of evaluating a snapshot.
type Decision struct {
	Accept bool
	Reason Reason
}

// Reconciler guards one player's local state against stale or regressive
// snapshots. It is keyed on a monotonic version sequence: every local write
// bumps the version, and a snapshot whose version is not newer than the last
// locally written one is this client's own echo (or older) and is dropped.
type Reconciler struct {
	lastWrittenVersion int64
	highestArrivals    int
}

func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// RecordWrite notes a local write so its echo can be recognized.
func (r *Reconciler) RecordWrite(version int64) {
	if version > r.lastWrittenVersion {
		r.lastWrittenVersion = version
	}
}

// Evaluate applies the acceptance rules in priority order:
//
//  1. a snapshot whose version is not newer than the last local write is
//     an echo or older concurrent write: reject;
//  2. a snapshot behind the highest arrivals watermark ever observed is
//     stale: reject;
//  3. a snapshot behind the current local state's arrivals watermark is
//     stale: reject;
//  4. at an equal watermark, a snapshot whose phase is earlier in the
//     canonical phase order than the local phase would regress the hour:
//     reject.
//
// Anything else is accepted and the observed watermark advances.
func (r *Reconciler) Evaluate(local, incoming *types.PlayerGameState) Decision {
	if local.LastArrivalsHour > r.highestArrivals {
		r.highestArrivals = local.LastArrivalsHour
	}
	if incoming.Version <= r.lastWrittenVersion {
		return Decision{Reason: ReasonStaleVersion}
	}
	if incoming.LastArrivalsHour < r.highestArrivals {
		return Decision{Reason: ReasonStaleWatermark}
	}
	if incoming.LastArrivalsHour < local.LastArrivalsHour {
		return Decision{Reason: ReasonBehindLocal}
	}
	if incoming.LastArrivalsHour == local.LastArrivalsHour &&
		incoming.CurrentPhase.Order() < local.CurrentPhase.Order() {
		return Decision{Reason: ReasonPhaseRegression}
	}

	if incoming.LastArrivalsHour > r.highestArrivals {
		r.highestArrivals = incoming.LastArrivalsHour
	}
	return Decision{Accept: true, Reason: ReasonAccepted}
}

// Package session owns the shared clock: it decides when the session may
// advance to the next hour and rescues players whose turn has stalled.
package session

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/shiftline/emergency/pkg/game"
	"github.com/shiftline/emergency/pkg/game/types"
	"github.com/shiftline/emergency/pkg/log"
	"github.com/shiftline/emergency/pkg/queue"
	"github.com/shiftline/emergency/pkg/store"
)

// AdvanceTrigger asks the coordinator to push one player forward. Triggers
// come from several independent observers (the monitor API, the player's
// own client, the rescue sweep); all of them converge on the same
// idempotent advancement path, so concurrent or duplicate triggers are
// harmless.
type AdvanceTrigger struct {
	PlayerID string
	Source   string
}

// Coordinator reads the published state of every player and advances the
// shared hour once all of them satisfy the readiness predicate. It is the
// only writer of the session's current-hour counter.
type Coordinator struct {
	store        store.DocumentStore
	advanceQueue queue.Queue
	rng          *rand.Rand

	tickInterval time.Duration
	// dwell is the minimum time after an hour change before the next
	// advancement, debouncing rapid-fire re-evaluation while writes from
	// the previous hour are still settling.
	dwell time.Duration
	// stuckTimeout bounds how long a player may sit in rolling or
	// treating without progress before the rescue path forces the hour
	// through.
	stuckTimeout time.Duration

	lastAdvance time.Time
	progress    map[string]playerProgress
}

type playerProgress struct {
	fingerprint string
	since       time.Time
}

type NewCoordinatorOptions struct {
	Store        store.DocumentStore
	AdvanceQueue queue.Queue
	RNG          *rand.Rand
	TickInterval time.Duration
	Dwell        time.Duration
	StuckTimeout time.Duration
}

func NewCoordinator(opts NewCoordinatorOptions) *Coordinator {
	return &Coordinator{
		store:        opts.Store,
		advanceQueue: opts.AdvanceQueue,
		rng:          opts.RNG,
		tickInterval: opts.TickInterval,
		dwell:        opts.Dwell,
		stuckTimeout: opts.StuckTimeout,
		progress:     make(map[string]playerProgress),
	}
}

// TriggerAdvance enqueues an advancement trigger for a player.
func (c *Coordinator) TriggerAdvance(playerID, source string) error {
	return c.advanceQueue.Enqueue(&AdvanceTrigger{PlayerID: playerID, Source: source})
}

// Start runs the coordination loop.
func (c *Coordinator) Start(ctx context.Context) {
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.processAdvanceTriggers(ctx)
			if err := c.tick(ctx); err != nil {
				log.Error("Failed to run coordinator tick: %v", err)
			}
		}
	}
}

func (c *Coordinator) processAdvanceTriggers(ctx context.Context) {
	pending, err := c.advanceQueue.ReadAllMessages()
	if err != nil {
		log.Error("Failed to read advance triggers: %v", err)
		return
	}
	for _, item := range pending {
		trigger, ok := item.(*AdvanceTrigger)
		if !ok {
			log.Error("Failed to cast advance trigger")
			continue
		}
		if err := c.TryAdvance(ctx, trigger.PlayerID); err != nil {
			log.Error("Failed to advance player %s (trigger from %s): %v", trigger.PlayerID, trigger.Source, err)
		}
	}
}

func (c *Coordinator) tick(ctx context.Context) error {
	session, err := c.store.GetSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to get session: %v", err)
	}
	states, err := c.store.ListPlayerStates(ctx)
	if err != nil {
		return fmt.Errorf("failed to list player states: %v", err)
	}
	if len(states) == 0 {
		return nil
	}

	switch session.Status {
	case types.SessionStatusStaffing:
		for _, state := range states {
			if !state.StaffingComplete {
				return nil
			}
		}
		log.Info("All players staffed, starting hour 1")
		c.lastAdvance = time.Now()
		return c.store.UpdateSession(ctx, []store.FieldUpdate{
			{Path: "status", Value: types.SessionStatusSequencing},
			{Path: "currentHour", Value: 1},
		})
	case types.SessionStatusSequencing:
		c.sweepStuckPlayers(states)

		if time.Since(c.lastAdvance) < c.dwell {
			return nil
		}
		for _, state := range states {
			if !ReadyForHour(state, session.CurrentHour) {
				return nil
			}
		}

		if session.CurrentHour >= 24 {
			log.Info("Hour 24 complete, session finished")
			return c.store.UpdateSession(ctx, []store.FieldUpdate{
				{Path: "status", Value: types.SessionStatusCompleted},
			})
		}
		log.Info("All players ready, advancing to hour %d", session.CurrentHour+1)
		c.lastAdvance = time.Now()
		return c.store.UpdateSession(ctx, []store.FieldUpdate{
			{Path: "currentHour", Value: session.CurrentHour + 1},
		})
	}
	return nil
}

// ReadyForHour is the readiness predicate the shared clock depends on: the
// player has acknowledged the hour and every watermark has caught up to it.
func ReadyForHour(state *types.PlayerGameState, hour int) bool {
	return state.CurrentPhase == types.PhaseWaiting &&
		state.HourComplete &&
		state.LastArrivalsHour >= hour &&
		state.LastSequencingHour >= hour &&
		state.LastTreatmentHour >= hour &&
		state.LastCompletedHour >= hour
}

// sweepStuckPlayers enqueues a rescue trigger for any player that has sat
// in rolling or treating without visible progress for the stuck timeout.
func (c *Coordinator) sweepStuckPlayers(states map[string]*types.PlayerGameState) {
	now := time.Now()
	for playerID, state := range states {
		fingerprint := fmt.Sprintf("%s/%d/%d/%d/%d/%t",
			state.CurrentPhase, state.LastArrivalsHour, state.LastSequencingHour,
			state.LastTreatmentHour, state.LastCompletedHour, state.HourComplete)

		previous, ok := c.progress[playerID]
		if !ok || previous.fingerprint != fingerprint {
			c.progress[playerID] = playerProgress{fingerprint: fingerprint, since: now}
			continue
		}

		if state.CurrentPhase != types.PhaseRolling && state.CurrentPhase != types.PhaseTreating {
			continue
		}
		if now.Sub(previous.since) < c.stuckTimeout {
			continue
		}

		log.Warn("Player %s stuck in %s for %s, rescuing", playerID, state.CurrentPhase, now.Sub(previous.since))
		c.progress[playerID] = playerProgress{fingerprint: fingerprint, since: now}
		if err := c.TriggerAdvance(playerID, "rescue"); err != nil {
			log.Error("Failed to enqueue rescue for player %s: %v", playerID, err)
		}
	}
}

// TryAdvance pushes a player's hour through to completion using the same
// idempotent transitions the player's own client uses. Safe to call
// concurrently with the player's own progress: the engine's watermark
// guards make duplicate application a no-op.
func (c *Coordinator) TryAdvance(ctx context.Context, playerID string) error {
	session, err := c.store.GetSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to get session: %v", err)
	}
	state, err := c.store.GetPlayerState(ctx, playerID)
	if err != nil {
		return fmt.Errorf("failed to get player state: %v", err)
	}

	switch state.CurrentPhase {
	case types.PhaseRolling, types.PhaseTreating, types.PhaseReview:
	default:
		return nil
	}

	engine := game.NewTurnEngine(game.NewTurnEngineOptions{
		State:  state,
		Params: session.Params,
		RNG:    c.rng,
	})

	if state.CurrentPhase == types.PhaseRolling {
		// The player never committed rolls for this hour, so rolling
		// fresh here is sound.
		rolls := engine.RollRiskEvents()
		if _, result := engine.ApplyRiskEvents(state.LastArrivalsHour, rolls); !result.Applied {
			log.Debug("Rescue risk application for player %s rejected: %s", playerID, result.Reason)
		}
	}
	if result := engine.ProcessTreatment(nil); result.Fixup {
		log.Debug("Rescue treatment for player %s was a fixup", playerID)
	}
	engine.CompleteTurn()

	state.Version++
	if err := c.store.PutPlayerState(ctx, playerID, state); err != nil {
		return fmt.Errorf("failed to put player state: %v", err)
	}
	log.Info("Advanced player %s to hour-complete at hour %d", playerID, state.LastArrivalsHour)
	return nil
}

// Package player runs one player's turn engine against the replicated
// store: it mutates state locally, publishes every mutation, and reconciles
// the snapshots the store delivers back (its own echoes included).
package player

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/shiftline/emergency/pkg/game"
	"github.com/shiftline/emergency/pkg/game/types"
	"github.com/shiftline/emergency/pkg/log"
	"github.com/shiftline/emergency/pkg/reconcile"
	"github.com/shiftline/emergency/pkg/store"
)

type Client struct {
	playerID   string
	store      store.DocumentStore
	reconciler *reconcile.Reconciler
	rng        *rand.Rand

	mu       sync.Mutex
	state    *types.PlayerGameState
	params   *types.GameParameters
	schedule [24]types.HourArrivals
	// pendingRolls holds computed-but-uncommitted risk rolls so a display
	// layer can reveal them before they are applied. Nothing about the
	// committed outcome depends on how long that takes.
	pendingRolls []types.RiskRoll

	unsubscribe []func()
}

type NewClientOptions struct {
	PlayerID string
	Store    store.DocumentStore
	RNG      *rand.Rand
}

func NewClient(opts NewClientOptions) *Client {
	return &Client{
		playerID:   opts.PlayerID,
		store:      opts.Store,
		reconciler: reconcile.NewReconciler(),
		rng:        opts.RNG,
	}
}

// Join loads or creates the player's state and subscribes to the store.
func (c *Client) Join(ctx context.Context) error {
	session, err := c.store.GetSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to get session: %v", err)
	}

	c.mu.Lock()
	c.params = session.Params
	c.schedule = session.Schedule
	c.mu.Unlock()

	state, err := c.store.GetPlayerState(ctx, c.playerID)
	if err != nil {
		if !store.IsNotFound(err) {
			return fmt.Errorf("failed to get player state: %v", err)
		}
		state = types.NewPlayerGameState(c.playerID)
		if err := c.store.PutPlayerState(ctx, c.playerID, state); err != nil {
			return fmt.Errorf("failed to create player state: %v", err)
		}
	}
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()

	unsubPlayer, err := c.store.SubscribePlayerState(ctx, c.playerID, c.onPlayerSnapshot)
	if err != nil {
		return fmt.Errorf("failed to subscribe to player state: %v", err)
	}
	unsubSession, err := c.store.SubscribeSession(ctx, c.onSessionSnapshot)
	if err != nil {
		unsubPlayer()
		return fmt.Errorf("failed to subscribe to session: %v", err)
	}
	c.unsubscribe = append(c.unsubscribe, unsubPlayer, unsubSession)
	return nil
}

// Leave cancels the store subscriptions.
func (c *Client) Leave() {
	for _, unsub := range c.unsubscribe {
		unsub()
	}
	c.unsubscribe = nil
}

// State returns a copy of the current local state.
func (c *Client) State() *types.PlayerGameState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Copy()
}

func (c *Client) engine() *game.TurnEngine {
	return game.NewTurnEngine(game.NewTurnEngineOptions{
		State:  c.state,
		Params: c.params,
		RNG:    c.rng,
	})
}

// publish increments the write sequence and pushes the state to the store.
// On failure the local state remains authoritative until the next
// successful write; the reconciler's guards absorb the temporary
// divergence.
func (c *Client) publish(ctx context.Context) {
	c.state.Version++
	c.reconciler.RecordWrite(c.state.Version)
	if err := c.store.PutPlayerState(ctx, c.playerID, c.state); err != nil {
		log.Error("Failed to publish state for player %s: %v", c.playerID, err)
	}
}

func (c *Client) onPlayerSnapshot(incoming *types.PlayerGameState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	decision := c.reconciler.Evaluate(c.state, incoming)
	if !decision.Accept {
		log.Debug("Rejected snapshot for player %s: %s", c.playerID, decision.Reason)
		return
	}
	log.Debug("Adopted snapshot for player %s at watermark %d", c.playerID, incoming.LastArrivalsHour)
	c.state = incoming
}

// onSessionSnapshot is the player's own auto-advance trigger: when the
// shared clock moves past this player's arrivals watermark, begin the new
// hour.
func (c *Client) onSessionSnapshot(session *types.Session) {
	c.mu.Lock()
	c.schedule = session.Schedule
	hour := session.CurrentHour
	behind := session.Status == types.SessionStatusSequencing && c.state.LastArrivalsHour < hour
	c.mu.Unlock()

	if behind {
		if result := c.BeginHour(context.Background(), hour); !result.Applied {
			log.Debug("Auto-advance for player %s into hour %d rejected: %s", c.playerID, hour, result.Reason)
		}
	}
}

// AddRoom adds a room during staffing.
func (c *Client) AddRoom(ctx context.Context, tier types.RoomTier, position int) (*types.Room, game.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	room, result := c.engine().AddRoom(tier, position)
	if result.Applied {
		c.publish(ctx)
	}
	return room, result
}

// RemoveRoom removes a vacated room during staffing.
func (c *Client) RemoveRoom(ctx context.Context, roomID string) game.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := c.engine().RemoveRoom(roomID)
	if result.Applied {
		c.publish(ctx)
	}
	return result
}

// CompleteStaffing closes the staffing phase.
func (c *Client) CompleteStaffing(ctx context.Context) game.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := c.engine().CompleteStaffing()
	if result.Applied {
		c.publish(ctx)
	}
	return result
}

// BeginHour admits the hour's scheduled arrivals.
func (c *Client) BeginHour(ctx context.Context, hour int) game.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hour < 1 || hour > 24 {
		return game.Result{Reason: game.RejectStaleWatermark}
	}
	result := c.engine().ProcessArrivals(hour, c.schedule[hour-1])
	if result.Applied {
		c.publish(ctx)
	}
	return result
}

// MovePatientToRoom assigns a waiting patient to a room.
func (c *Client) MovePatientToRoom(ctx context.Context, patientID, roomID string) game.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := c.engine().MovePatientToRoom(patientID, roomID)
	if result.Applied {
		c.publish(ctx)
	}
	return result
}

// MovePatientBackToQueue reverses an untouched room assignment.
func (c *Client) MovePatientBackToQueue(ctx context.Context, patientID string) game.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := c.engine().MovePatientBackToQueue(patientID)
	if result.Applied {
		c.publish(ctx)
	}
	return result
}

// CompleteSequencing submits the hour's assignments and computes this
// hour's risk rolls without committing them. The returned rolls are what a
// display layer reveals before ResolveHour commits them.
func (c *Client) CompleteSequencing(ctx context.Context, hour int) ([]types.RiskRoll, game.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	engine := c.engine()
	result := engine.CompleteSequencing(hour)
	if !result.Applied {
		return nil, result
	}
	c.pendingRolls = engine.RollRiskEvents()
	c.publish(ctx)
	return append([]types.RiskRoll(nil), c.pendingRolls...), result
}

// ResolveHour commits the pending risk rolls and runs treatment. The
// applied outcomes are passed straight into the treatment step rather than
// read back from state, so a stale closure can never leak in between.
func (c *Client) ResolveHour(ctx context.Context, hour int) game.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	engine := c.engine()
	outcomes, result := engine.ApplyRiskEvents(hour, c.pendingRolls)
	if !result.Applied {
		return result
	}
	c.pendingRolls = nil
	result = engine.ProcessTreatment(outcomes)
	c.publish(ctx)
	return result
}

// CompleteTurn acknowledges the hour's review summary.
func (c *Client) CompleteTurn(ctx context.Context) game.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := c.engine().CompleteTurn()
	c.publish(ctx)
	return result
}

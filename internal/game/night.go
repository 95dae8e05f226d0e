package game

import (
	"context"
	"log"
	"time"
)

// Orchestrator timing defaults. Waits poll the completion predicate rather
// than blocking, bounded by a hard timeout so a stalled or disconnected role
// holder cannot wedge the game.
const (
	DefaultPollInterval = 150 * time.Millisecond
	DefaultTurnTimeout  = 5 * time.Minute
	DefaultTurnPause    = 3 * time.Second
)

// Orchestrator drives one NIGHT phase end to end for a session: mafia turn,
// then detective, then doctor, then resolution and win check. One orchestrator
// run corresponds to one night.
type Orchestrator struct {
	session *Session

	// PollInterval is how often a turn's completion predicate is checked.
	PollInterval time.Duration
	// TurnTimeout bounds each role's turn; on expiry the turn is abandoned
	// with whatever partial state exists and the night proceeds.
	TurnTimeout time.Duration
	// TurnPause is the pacing beat between turns (0 in tests).
	TurnPause time.Duration
}

// NewOrchestrator creates an orchestrator for the session with default timing.
func NewOrchestrator(session *Session) *Orchestrator {
	return &Orchestrator{
		session:      session,
		PollInterval: DefaultPollInterval,
		TurnTimeout:  DefaultTurnTimeout,
		TurnPause:    DefaultTurnPause,
	}
}

// RunNight runs one full night sequence. It is a no-op when a night run is
// already in flight. Blocks until the night resolves or the game ends; callers
// run it on its own goroutine.
func (o *Orchestrator) RunNight(ctx context.Context) {
	s := o.session
	if !s.TryStartNightRun() {
		return
	}
	defer s.EndNightRun()

	s.BeginNight()
	if s.CheckWin() {
		return
	}

	emitter := s.Emitter()

	// Everyone asleep: clear any stale night UI.
	emitter.Broadcast(EventStateUpdate, map[string]interface{}{"nightTurn": nil})

	turns := []struct {
		role  Role
		event string
		done  func() bool
	}{
		{RoleMafia, EventNightMafia, func() bool { return s.MafiaFinalTarget() != "" }},
		{RoleDetective, EventNightDetective, func() bool { return s.DetectiveFinalTarget() != "" }},
		{RoleDoctor, EventNightDoctor, s.DoctorDone},
	}

	for _, turn := range turns {
		if s.Phase() == PhaseEnd {
			return
		}
		holders := s.AliveWithRole(turn.role)
		if len(holders) == 0 {
			continue
		}
		emitter.Broadcast(EventStateUpdate, map[string]interface{}{"nightTurn": turn.role})
		for _, h := range holders {
			targets := s.NightTargets(turn.role, h.ID)
			emitter.SendTo(h.ID, turn.event, map[string]interface{}{"targets": targets})
		}

		if !o.waitFor(ctx, turn.done) {
			log.Printf("night turn timed out session=%s role=%s", s.ID, turn.role)
		}

		for _, h := range holders {
			emitter.SendTo(h.ID, EventNightClear, nil)
		}
		emitter.Broadcast(EventStateUpdate, map[string]interface{}{"nightTurn": nil})
		if s.CheckWin() {
			return
		}
		o.pause(ctx)
	}

	summary := s.ResolveNight()
	log.Printf("night resolved session=%s deaths=%d saved=%t missed=%t",
		s.ID, len(summary.Deaths), summary.ProtectedName != "", summary.DetectiveMissed)

	if s.CheckWin() {
		return
	}
	s.BeginDay()
}

// waitFor polls cond until it holds, the turn timeout expires, or ctx is
// canceled. Returns true when cond was met.
func (o *Orchestrator) waitFor(ctx context.Context, cond func() bool) bool {
	if cond() {
		return true
	}
	ticker := time.NewTicker(o.PollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(o.TurnTimeout)
	defer deadline.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return false
		case <-ticker.C:
			if cond() {
				return true
			}
		}
	}
}

func (o *Orchestrator) pause(ctx context.Context) {
	if o.TurnPause <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(o.TurnPause):
	}
}

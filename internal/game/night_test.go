package game

import (
	"context"
	"testing"
	"time"
)

func newTestOrchestrator(s *Session) *Orchestrator {
	o := NewOrchestrator(s)
	o.PollInterval = 2 * time.Millisecond
	o.TurnTimeout = time.Second
	o.TurnPause = 0
	return o
}

// waitForEvent blocks until the emitter has recorded at least n occurrences of
// event, or fails the test after two seconds.
func waitForEvent(t *testing.T, emitter *recordingEmitter, event string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if emitter.count(event) >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d x %q", n, event)
}

func runNight(t *testing.T, o *Orchestrator) chan struct{} {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		o.RunNight(context.Background())
	}()
	return done
}

func awaitNight(t *testing.T, done chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("night did not finish")
	}
}

func TestOrchestrator_FullNightToFirstDay(t *testing.T) {
	s, emitter := newTestSession(t, RoleMafia, RoleDetective, RoleDoctor, RoleVillager)
	if err := s.StartGame("p1"); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	o := newTestOrchestrator(s)
	done := runNight(t, o)

	// Sole mafia member locks in the villager.
	waitForEvent(t, emitter, EventNightMafia, 1)
	s.MafiaFinalize("p1", "p4")

	// Sole detective shoots the doctor; a non-mafia target means a miss.
	waitForEvent(t, emitter, EventNightDetective, 1)
	s.DetectiveFinalize("p2", "p3")

	// Doctor skips: confirm with no target.
	waitForEvent(t, emitter, EventNightDoctor, 1)
	s.DoctorConfirm("p3")

	awaitNight(t, done)

	if s.Phase() != PhaseDay {
		t.Fatalf("phase = %s, want DAY", s.Phase())
	}
	if s.DayCount() != 1 {
		t.Errorf("dayCount = %d, want 1", s.DayCount())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.players["p4"].Alive {
		t.Error("mafia target must be dead")
	}
	if !s.players["p3"].Alive {
		t.Error("detective shot at a non-mafia target must miss")
	}
	if s.players["p4"].VoteGhostUntilDay != 1 {
		t.Errorf("ghost window = %d, want 1", s.players["p4"].VoteGhostUntilDay)
	}
}

func TestOrchestrator_DoctorSaveBlocksKill(t *testing.T) {
	s, emitter := newTestSession(t, RoleMafia, RoleDetective, RoleDoctor, RoleVillager)
	if err := s.StartGame("p1"); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	o := newTestOrchestrator(s)
	done := runNight(t, o)

	waitForEvent(t, emitter, EventNightMafia, 1)
	s.MafiaFinalize("p1", "p4")
	waitForEvent(t, emitter, EventNightDetective, 1)
	s.DetectiveFinalize("p2", "p1")
	waitForEvent(t, emitter, EventNightDoctor, 1)
	s.DoctorSave("p3", "p4")
	s.DoctorConfirm("p3")

	awaitNight(t, done)

	s.mu.Lock()
	villagerAlive := s.players["p4"].Alive
	mafiaAlive := s.players["p1"].Alive
	s.mu.Unlock()
	if !villagerAlive {
		t.Error("doctor protection must block the mafia kill")
	}
	if mafiaAlive {
		t.Error("detective shot at the mafia must land")
	}
	// The sole mafia died in the night, so the game ends before any day.
	if s.Phase() != PhaseEnd {
		t.Fatalf("phase = %s, want END", s.Phase())
	}
	if s.Result() != "Town wins!" {
		t.Errorf("result = %q", s.Result())
	}
}

func TestOrchestrator_SkipsTurnsWithoutHolders(t *testing.T) {
	s, emitter := newTestSession(t, RoleMafia, RoleDetective, RoleDoctor, RoleVillager, RoleVillager)
	if err := s.StartGame("p1"); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	s.mu.Lock()
	s.players["p2"].Alive = false // detective died earlier
	s.mu.Unlock()
	o := newTestOrchestrator(s)
	done := runNight(t, o)

	waitForEvent(t, emitter, EventNightMafia, 1)
	s.MafiaFinalize("p1", "p4")
	waitForEvent(t, emitter, EventNightDoctor, 1)
	s.DoctorConfirm("p3")

	awaitNight(t, done)

	if emitter.count(EventNightDetective) != 0 {
		t.Error("a role with no alive holders must be skipped")
	}
	if s.Phase() != PhaseDay {
		t.Errorf("phase = %s, want DAY", s.Phase())
	}
}

func TestOrchestrator_TurnTimeoutProceedsWithoutAction(t *testing.T) {
	s, _ := newTestSession(t, RoleMafia, RoleDetective, RoleDoctor, RoleVillager)
	if err := s.StartGame("p1"); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	o := newTestOrchestrator(s)
	o.TurnTimeout = 20 * time.Millisecond
	done := runNight(t, o)
	awaitNight(t, done)

	if s.Phase() != PhaseDay {
		t.Fatalf("phase = %s, want DAY", s.Phase())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.players {
		if !p.Alive {
			t.Errorf("%s died in a night with no finalized actions", id)
		}
	}
}

func TestOrchestrator_SecondRunIsNoOp(t *testing.T) {
	s, _ := newTestSession(t, RoleMafia, RoleDetective, RoleDoctor, RoleVillager)
	if err := s.StartGame("p1"); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if !s.TryStartNightRun() {
		t.Fatal("first night run must be granted")
	}
	o := newTestOrchestrator(s)
	o.RunNight(context.Background()) // should return immediately
	if s.Phase() != PhaseNight || s.DayCount() != 0 {
		t.Error("a second concurrent night run must not advance the game")
	}
	s.EndNightRun()
}

func TestOrchestrator_ContextCancelAbandonsWait(t *testing.T) {
	s, _ := newTestSession(t, RoleMafia, RoleDetective, RoleDoctor, RoleVillager)
	if err := s.StartGame("p1"); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	o := newTestOrchestrator(s)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		o.RunNight(ctx)
	}()
	cancel()
	// Canceling aborts the waits; with no finalized actions nobody dies.
	awaitNight(t, done)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.players {
		if !p.Alive {
			t.Errorf("%s died after a canceled night", id)
		}
	}
}

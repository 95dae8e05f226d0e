package game

import (
	"errors"
	"math/rand"
	"sync"
	"time"
)

// Phase is the session's lifecycle phase. Voting happens continuously during
// DAY and resolves the phase, so there is no separate VOTE phase.
type Phase string

const (
	PhaseLobby Phase = "LOBBY"
	PhaseNight Phase = "NIGHT"
	PhaseDay   Phase = "DAY"
	PhaseEnd   Phase = "END"
)

// Precondition errors surfaced to the offending client. The session state is
// unchanged when any of these is returned.
var (
	ErrNotHost        = errors.New("only the host can do that")
	ErrWrongPhase     = errors.New("not allowed in the current phase")
	ErrRolesLocked    = errors.New("roles already locked")
	ErrRolesNotLocked = errors.New("roles have not been assigned yet")
	ErrDayNotResolved = errors.New("the day has not resolved yet")
)

// ResultSink receives the final result of a finished game for persistence.
// Implementations must not block the caller.
type ResultSink interface {
	RecordResult(sessionID, result string, scores map[string]int)
}

// nightState is rebuilt at every night start. The doctor's self-save ledger
// lives on the Session instead because it persists across nights.
type nightState struct {
	mafia           *ConsensusTracker
	detective       *ConsensusTracker
	doctorTarget    string
	doctorConfirmed bool
}

// Session is one room's game. All state is owned by the session and mutated
// only under its mutex; inbound player intents and the night orchestrator are
// serialized through the exported methods.
type Session struct {
	mu sync.Mutex

	ID string

	phase       Phase
	dayCount    int
	players     map[string]*Player
	order       []string // join order; first present entry is the host
	rolesLocked bool
	votes       *VotingLedger
	scores      map[string]int
	night       *nightState
	doctorSelfUsed map[string]bool
	result      string

	dayResolved  bool
	lastLynch    *PlayerRef
	nightRunning bool

	emitter Emitter
	results ResultSink
	rng     *rand.Rand
}

// NewSession creates an empty lobby-phase session. emitter must not be nil;
// use NopEmitter for sessions without transport.
func NewSession(id string, emitter Emitter) *Session {
	return &Session{
		ID:             id,
		phase:          PhaseLobby,
		players:        make(map[string]*Player),
		votes:          NewVotingLedger(),
		scores:         make(map[string]int),
		night:          newNightState(),
		doctorSelfUsed: make(map[string]bool),
		emitter:        emitter,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func newNightState() *nightState {
	return &nightState{
		mafia:     NewConsensusTracker(RoleMafia),
		detective: NewConsensusTracker(RoleDetective),
	}
}

// SetResultSink attaches a sink that receives final results of finished games.
func (s *Session) SetResultSink(sink ResultSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = sink
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// DayCount returns the current day number (0 before the first day).
func (s *Session) DayCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dayCount
}

// Result returns the end-of-game result string, or "" while the game runs.
func (s *Session) Result() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// AddPlayer adds a player to the roster and broadcasts the updated list. The
// player joins alive and unroled; scores carry over if the id rejoins within
// the same session's lifetime. Re-adding a present player (reconnect) keeps
// their state and only re-sends the join events.
func (s *Session) AddPlayer(id, name string) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.players[id]; ok {
		s.emitter.SendTo(id, EventJoinedRoom, map[string]interface{}{
			"roomId": s.ID,
			"player": map[string]interface{}{"id": existing.ID, "name": existing.Name},
		})
		s.broadcastPlayersLocked()
		return existing
	}
	p := &Player{ID: id, Name: name, Alive: true}
	s.players[id] = p
	s.order = append(s.order, id)
	if _, ok := s.scores[id]; !ok {
		s.scores[id] = 0
	}
	s.emitter.SendTo(id, EventJoinedRoom, map[string]interface{}{
		"roomId": s.ID,
		"player": map[string]interface{}{"id": p.ID, "name": p.Name},
	})
	s.broadcastPlayersLocked()
	return p
}

// RemovePlayer drops a player and discards their in-flight votes and
// proposals. It reports whether the session is now empty; the registry
// destroys empty sessions. A stalled night wait does not proactively recheck
// on removal — the next proposal or the turn timeout picks it up.
func (s *Session) RemovePlayer(id string) (empty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[id]; !ok {
		return len(s.players) == 0
	}
	delete(s.players, id)
	for i, pid := range s.order {
		if pid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.votes.RemoveVoter(id)
	s.night.mafia.DropMember(id)
	s.night.detective.DropMember(id)
	if len(s.players) == 0 {
		return true
	}
	s.broadcastPlayersLocked()
	return false
}

// HostID returns the first-joined player still present, or "" in an empty
// session. Only the host may drive room lifecycle operations.
func (s *Session) HostID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hostIDLocked()
}

func (s *Session) hostIDLocked() string {
	if len(s.order) == 0 {
		return ""
	}
	return s.order[0]
}

// AssignRoles deals roles to the current roster. Host-only, lobby-only, and a
// no-op error once roles are locked.
func (s *Session) AssignRoles(callerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if callerID != s.hostIDLocked() {
		return ErrNotHost
	}
	if s.phase != PhaseLobby {
		return ErrWrongPhase
	}
	if s.rolesLocked {
		return ErrRolesLocked
	}

	roster := make([]*Player, 0, len(s.order))
	for _, id := range s.order {
		roster = append(roster, s.players[id])
	}
	if err := AssignRoles(roster, s.rng); err != nil {
		return err
	}
	for _, p := range roster {
		p.Alive = true
		p.VoteGhostUntilDay = 0
	}
	s.rolesLocked = true

	for _, p := range roster {
		s.emitter.SendTo(p.ID, EventRoleAssigned, map[string]interface{}{"role": p.Role})
	}
	s.emitter.Broadcast(EventStateUpdate, map[string]interface{}{"rolesLocked": true})
	s.broadcastPlayersLocked()
	return nil
}

// StartGame resets per-game state and moves the session into its first night.
// The night orchestrator must be started by the caller afterwards.
func (s *Session) StartGame(callerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if callerID != s.hostIDLocked() {
		return ErrNotHost
	}
	if s.phase != PhaseLobby {
		return ErrWrongPhase
	}
	if !s.rolesLocked {
		return ErrRolesNotLocked
	}
	s.dayCount = 0
	s.result = ""
	s.lastLynch = nil
	s.dayResolved = false
	s.votes = NewVotingLedger()
	s.doctorSelfUsed = make(map[string]bool)
	for _, p := range s.players {
		p.Alive = true
		p.VoteGhostUntilDay = 0
	}
	s.phase = PhaseNight
	s.emitter.Broadcast(EventPhaseChange, map[string]interface{}{"phase": s.phase})
	return nil
}

// CanStartNight reports whether the host may manually advance DAY into the
// next night. Returns a precondition error naming what is violated.
func (s *Session) CanStartNight(callerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if callerID != s.hostIDLocked() {
		return ErrNotHost
	}
	if s.phase != PhaseDay {
		return ErrWrongPhase
	}
	if !s.dayResolved {
		return ErrDayNotResolved
	}
	return nil
}

// BeginNight rebuilds the transient night state (the doctor self-save ledger
// survives) and broadcasts the phase change. Called by the orchestrator.
func (s *Session) BeginNight() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseNight
	s.night = newNightState()
	s.emitter.Broadcast(EventPhaseChange, map[string]interface{}{"phase": s.phase})
}

// BeginDay enters the DAY phase: the day counter increments exactly once,
// expired ghost-vote windows are cleared, and the vote ledger is reset.
func (s *Session) BeginDay() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseDay
	s.dayCount++
	for _, p := range s.players {
		if p.VoteGhostUntilDay != 0 && p.VoteGhostUntilDay < s.dayCount {
			p.VoteGhostUntilDay = 0
		}
	}
	s.votes = NewVotingLedger()
	s.dayResolved = false
	s.lastLynch = nil
	s.emitter.Broadcast(EventPhaseChange, map[string]interface{}{"phase": s.phase})
}

// ReturnToLobby resets the session for a rematch, preserving scores.
func (s *Session) ReturnToLobby(callerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if callerID != s.hostIDLocked() {
		return ErrNotHost
	}
	s.phase = PhaseLobby
	s.rolesLocked = false
	s.result = ""
	s.dayCount = 0
	s.dayResolved = false
	s.lastLynch = nil
	s.votes = NewVotingLedger()
	s.night = newNightState()
	s.doctorSelfUsed = make(map[string]bool)
	for _, p := range s.players {
		p.Alive = true
		p.Role = ""
		p.VoteGhostUntilDay = 0
	}
	s.emitter.Broadcast(EventStateUpdate, map[string]interface{}{
		"players":     s.publicPlayersLocked(),
		"rolesLocked": false,
		"dayResolved": false,
		"lastLynch":   nil,
	})
	s.emitter.Broadcast(EventPhaseChange, map[string]interface{}{"phase": s.phase})
	return nil
}

// --- Night intents -------------------------------------------------------

// MafiaPropose records an alive mafia member's proposal and rebroadcasts the
// tally to every alive mafia member. Stale input is silently dropped.
func (s *Session) MafiaPropose(playerID, targetID string) {
	s.proposeLocked(playerID, targetID, RoleMafia)
}

// DetectivePropose is MafiaPropose for the detective group.
func (s *Session) DetectivePropose(playerID, targetID string) {
	s.proposeLocked(playerID, targetID, RoleDetective)
}

func (s *Session) proposeLocked(playerID, targetID string, role Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.holdsRoleAliveLocked(playerID, role) || s.phase != PhaseNight {
		return
	}
	tracker := s.trackerLocked(role)
	members := s.aliveIDsWithRoleLocked(role)
	tally := tracker.Propose(playerID, targetID, members)
	payload := map[string]interface{}{
		"selections":        tally.Selections,
		"unanimousTargetId": tally.UnanimousTargetID,
	}
	event := EventMafiaStatus
	if role == RoleDetective {
		event = EventDetectiveStatus
	}
	for _, id := range members {
		s.emitter.SendTo(id, event, payload)
	}
}

// MafiaFinalize attempts to lock in the mafia group's target. Without
// unanimity the call is ignored.
func (s *Session) MafiaFinalize(playerID, targetID string) {
	s.finalizeLocked(playerID, targetID, RoleMafia)
}

// DetectiveFinalize is MafiaFinalize for the detective group.
func (s *Session) DetectiveFinalize(playerID, targetID string) {
	s.finalizeLocked(playerID, targetID, RoleDetective)
}

func (s *Session) finalizeLocked(playerID, targetID string, role Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.holdsRoleAliveLocked(playerID, role) || s.phase != PhaseNight {
		return
	}
	tracker := s.trackerLocked(role)
	members := s.aliveIDsWithRoleLocked(role)
	if !tracker.Finalize(playerID, targetID, members) {
		return
	}
	event := EventMafiaFinal
	if role == RoleDetective {
		event = EventDetectiveFinal
	}
	for _, id := range members {
		s.emitter.SendTo(id, event, map[string]interface{}{"targetId": targetID})
	}
}

// DoctorSave records the doctor's protection target. A repeat self-target is
// denied, forces a null target, and completes the doctor's turn — use it or
// lose it, not a retry prompt.
func (s *Session) DoctorSave(playerID, targetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.holdsRoleAliveLocked(playerID, RoleDoctor) || s.phase != PhaseNight {
		return
	}
	if targetID == playerID {
		if s.doctorSelfUsed[playerID] {
			s.emitter.SendTo(playerID, EventDoctorSelfDenied, nil)
			s.night.doctorTarget = ""
			s.night.doctorConfirmed = true
			s.emitter.SendTo(playerID, EventNightClear, nil)
			return
		}
		s.doctorSelfUsed[playerID] = true
		s.emitter.SendTo(playerID, EventDoctorSelfUsed, nil)
	}
	s.night.doctorTarget = targetID
}

// DoctorConfirm completes the doctor's turn; a nil target means skip.
func (s *Session) DoctorConfirm(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.holdsRoleAliveLocked(playerID, RoleDoctor) || s.phase != PhaseNight {
		return
	}
	s.night.doctorConfirmed = true
}

// MafiaFinalTarget returns the mafia group's finalized target, or "".
func (s *Session) MafiaFinalTarget() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.night.mafia.FinalTarget()
}

// DetectiveFinalTarget returns the detective group's finalized target, or "".
func (s *Session) DetectiveFinalTarget() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.night.detective.FinalTarget()
}

// DoctorDone reports whether the doctor's turn is complete.
func (s *Session) DoctorDone() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.night.doctorConfirmed
}

// ResolveNight feeds the collected targets through the resolver, opens ghost
// vote windows for night deaths, and broadcasts the outcome.
func (s *Session) ResolveNight() NightSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	actions := NightActions{
		MafiaTarget:     s.night.mafia.FinalTarget(),
		DetectiveTarget: s.night.detective.FinalTarget(),
		DoctorTarget:    s.night.doctorTarget,
	}
	summary := ResolveNightActions(s.players, actions)

	deaths := make([]map[string]interface{}, 0, len(summary.Deaths))
	for _, name := range summary.Deaths {
		for _, p := range s.players {
			if p.Name == name {
				p.VoteGhostUntilDay = s.dayCount + 1
				deaths = append(deaths, map[string]interface{}{
					"id": p.ID, "name": p.Name, "role": p.Role,
				})
			}
		}
	}

	s.emitter.Broadcast(EventStateUpdate, map[string]interface{}{
		"players":            s.publicPlayersLocked(),
		"lastNightDeaths":    deaths,
		"lastNightSaved":     summary.ProtectedName != "",
		"lastNightSavedName": summary.ProtectedName,
		"detectiveMissed":    summary.DetectiveMissed,
		"dayResolved":        false,
		"nightTurn":          nil,
	})
	return summary
}

// --- Day voting ----------------------------------------------------------

// RecordVote records a lynch vote (empty target = abstain) from an eligible
// voter, rebroadcasts the running tally, and resolves the day when the
// two-thirds threshold fires or every eligible voter has voted. Votes from
// ineligible players are silently dropped.
func (s *Session) RecordVote(voterID, targetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseDay || s.dayResolved {
		return
	}
	voter, ok := s.players[voterID]
	if !ok || !s.canVoteLocked(voter) {
		return
	}
	s.votes.Record(voterID, targetID)
	s.emitter.Broadcast(EventVotingUpdate, map[string]interface{}{"votes": s.votes.Votes()})

	eligible := s.eligibleVoterIDsLocked()
	aliveCount := len(s.aliveIDsLocked())
	if lynchTarget, lynch := s.votes.Outcome(eligible, aliveCount); lynch {
		if target, ok := s.players[lynchTarget]; ok && target.Alive {
			target.Alive = false
			target.VoteGhostUntilDay = 0
			s.lastLynch = &PlayerRef{ID: target.ID, Name: target.Name, Role: target.Role}
			s.votes.PurgeTarget(target.ID)
			s.dayResolved = true
			s.emitter.Broadcast(EventPlayerDied, map[string]interface{}{"name": target.Name})
			s.emitter.Broadcast(EventDayResolved, map[string]interface{}{
				"dayResolved": true,
				"lastLynch":   s.lastLynch,
			})
			s.checkWinLocked()
			return
		}
	}

	if !s.votes.AllVoted(eligible) {
		return
	}
	s.dayResolved = true
	s.emitter.Broadcast(EventDayResolved, map[string]interface{}{
		"dayResolved": true,
		"lastLynch":   nil,
	})
	s.checkWinLocked()
}

func (s *Session) canVoteLocked(p *Player) bool {
	if p.Alive {
		return true
	}
	return p.VoteGhostUntilDay != 0 && p.VoteGhostUntilDay == s.dayCount
}

// --- Win condition -------------------------------------------------------

// CheckWin evaluates the win condition and, on a win, finishes the game.
// Idempotent: a session already in END reports true without re-scoring.
func (s *Session) CheckWin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkWinLocked()
}

func (s *Session) checkWinLocked() bool {
	if s.phase == PhaseEnd {
		return true
	}
	mafiaAlive, townAlive := 0, 0
	for _, p := range s.players {
		if !p.Alive {
			continue
		}
		if p.Role == RoleMafia {
			mafiaAlive++
		} else {
			townAlive++
		}
	}
	switch {
	case mafiaAlive == 0:
		s.endGameLocked("Town wins!", AlignmentGood)
	case mafiaAlive >= townAlive:
		s.endGameLocked("Mafia wins!", AlignmentEvil)
	default:
		return false
	}
	return true
}

// endGameLocked applies scoring (+2 per mafia member on a mafia win, +1 per
// non-mafia member otherwise — by original role, dead or alive), reveals all
// roles, and moves the session to END.
func (s *Session) endGameLocked(result string, winner Alignment) {
	s.phase = PhaseEnd
	s.result = result
	for _, p := range s.players {
		switch {
		case winner == AlignmentEvil && p.Role == RoleMafia:
			s.scores[p.ID] += 2
		case winner == AlignmentGood && p.Role != RoleMafia:
			s.scores[p.ID]++
		}
	}
	reveal := s.publicPlayersLocked()
	s.emitter.Broadcast(EventStateUpdate, map[string]interface{}{
		"players": reveal,
		"scores":  s.scoresCopyLocked(),
	})
	s.emitter.Broadcast(EventPhaseChange, map[string]interface{}{"phase": s.phase})
	s.emitter.Broadcast(EventGameOver, map[string]interface{}{
		"result": result,
		"reveal": reveal,
	})
	if s.results != nil {
		s.results.RecordResult(s.ID, result, s.scoresCopyLocked())
	}
}

// --- Views and helpers ---------------------------------------------------

// PublicPlayers returns the broadcast-safe roster. Roles appear only in END.
func (s *Session) PublicPlayers() []PublicPlayer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.publicPlayersLocked()
}

func (s *Session) publicPlayersLocked() []PublicPlayer {
	out := make([]PublicPlayer, 0, len(s.order))
	for _, id := range s.order {
		p := s.players[id]
		pub := PublicPlayer{
			ID:    p.ID,
			Name:  p.Name,
			Dead:  !p.Alive,
			Score: s.scores[p.ID],
		}
		if s.phase == PhaseEnd {
			pub.Role = p.Role
		}
		out = append(out, pub)
	}
	return out
}

// Snapshot returns the session state sent on sync_state requests.
func (s *Session) Snapshot() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]interface{}{
		"roomId":      s.ID,
		"phase":       s.phase,
		"dayCount":    s.dayCount,
		"players":     s.publicPlayersLocked(),
		"rolesLocked": s.rolesLocked,
		"dayResolved": s.dayResolved,
		"lastLynch":   s.lastLynch,
		"result":      s.result,
		"scores":      s.scoresCopyLocked(),
	}
}

// AliveWithRole returns refs for the alive holders of role, in join order.
func (s *Session) AliveWithRole(role Role) []PlayerRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []PlayerRef{}
	for _, id := range s.order {
		p := s.players[id]
		if p.Alive && p.Role == role {
			out = append(out, PlayerRef{ID: p.ID, Name: p.Name})
		}
	}
	return out
}

// NightTargets returns the eligible target list presented to actorID for the
// given role turn: mafia see all alive non-mafia, detectives see everyone
// alive but themselves, doctors see everyone alive including themselves.
func (s *Session) NightTargets(role Role, actorID string) []PlayerRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []PlayerRef{}
	for _, id := range s.order {
		p := s.players[id]
		if !p.Alive {
			continue
		}
		switch role {
		case RoleMafia:
			if p.Role == RoleMafia {
				continue
			}
		case RoleDetective:
			if p.ID == actorID {
				continue
			}
		}
		out = append(out, PlayerRef{ID: p.ID, Name: p.Name})
	}
	return out
}

// Emitter returns the session's emitter (used by the orchestrator).
func (s *Session) Emitter() Emitter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emitter
}

// TryStartNightRun marks the orchestrator as running; returns false when a
// night sequence is already in flight.
func (s *Session) TryStartNightRun() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nightRunning {
		return false
	}
	s.nightRunning = true
	return true
}

// EndNightRun clears the orchestrator-running flag.
func (s *Session) EndNightRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nightRunning = false
}

func (s *Session) holdsRoleAliveLocked(playerID string, role Role) bool {
	p, ok := s.players[playerID]
	return ok && p.Alive && p.Role == role
}

func (s *Session) trackerLocked(role Role) *ConsensusTracker {
	if role == RoleDetective {
		return s.night.detective
	}
	return s.night.mafia
}

func (s *Session) aliveIDsWithRoleLocked(role Role) []string {
	out := []string{}
	for _, id := range s.order {
		if p := s.players[id]; p.Alive && p.Role == role {
			out = append(out, id)
		}
	}
	return out
}

func (s *Session) aliveIDsLocked() []string {
	out := []string{}
	for _, id := range s.order {
		if s.players[id].Alive {
			out = append(out, id)
		}
	}
	return out
}

func (s *Session) eligibleVoterIDsLocked() []string {
	out := []string{}
	for _, id := range s.order {
		if s.canVoteLocked(s.players[id]) {
			out = append(out, id)
		}
	}
	return out
}

func (s *Session) scoresCopyLocked() map[string]int {
	out := make(map[string]int, len(s.scores))
	for k, v := range s.scores {
		out[k] = v
	}
	return out
}

func (s *Session) broadcastPlayersLocked() {
	s.emitter.Broadcast(EventPlayerList, map[string]interface{}{
		"players": s.publicPlayersLocked(),
	})
}

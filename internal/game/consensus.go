package game

// ConsensusTracker collects live kill proposals from the alive holders of one
// multi-member role (mafia or detective) during a single night and detects
// unanimity. The session owns the roster, so the set of alive member IDs is
// passed in on every call rather than cached here.
type ConsensusTracker struct {
	role        Role
	votes       map[string]string // member id -> proposed target id
	finalTarget string
}

// ConsensusTally is the running state rebroadcast to the role's members after
// every proposal. UnanimousTargetID is non-empty iff every alive member has
// proposed and all proposals agree.
type ConsensusTally struct {
	Selections        map[string]int `json:"selections"`
	UnanimousTargetID string         `json:"unanimousTargetId,omitempty"`
}

// NewConsensusTracker creates a tracker for one role's night turn.
func NewConsensusTracker(role Role) *ConsensusTracker {
	return &ConsensusTracker{
		role:  role,
		votes: make(map[string]string),
	}
}

// Role returns the role this tracker collects proposals for.
func (t *ConsensusTracker) Role() Role { return t.role }

// Propose records (or overwrites) memberID's current pick and returns the
// recomputed tally restricted to the given alive members.
func (t *ConsensusTracker) Propose(memberID, targetID string, aliveMembers []string) ConsensusTally {
	t.votes[memberID] = targetID
	return t.tally(aliveMembers)
}

// Finalize accepts targetID as the role's final target when either there is a
// single alive member (no unanimity check needed) or every alive member's
// current proposal equals targetID. A rejected finalize returns false and is
// otherwise ignored; clients re-derive validity from the next tally broadcast.
func (t *ConsensusTracker) Finalize(memberID, targetID string, aliveMembers []string) bool {
	if len(aliveMembers) == 0 || targetID == "" {
		return false
	}
	if len(aliveMembers) > 1 {
		for _, id := range aliveMembers {
			if t.votes[id] != targetID {
				return false
			}
		}
	}
	t.finalTarget = targetID
	return true
}

// FinalTarget returns the finalized target id, or "" while the turn is open.
func (t *ConsensusTracker) FinalTarget() string { return t.finalTarget }

// DropMember discards a member's in-flight proposal (e.g. on disconnect). The
// next Propose call recomputes unanimity against the shrunken membership.
func (t *ConsensusTracker) DropMember(memberID string) {
	delete(t.votes, memberID)
}

func (t *ConsensusTracker) tally(aliveMembers []string) ConsensusTally {
	selections := make(map[string]int)
	voted := 0
	first := ""
	unanimous := true
	for _, id := range aliveMembers {
		target := t.votes[id]
		if target == "" {
			unanimous = false
			continue
		}
		selections[target]++
		voted++
		if first == "" {
			first = target
		} else if target != first {
			unanimous = false
		}
	}
	tally := ConsensusTally{Selections: selections}
	if unanimous && voted == len(aliveMembers) && voted > 0 {
		tally.UnanimousTargetID = first
	}
	return tally
}

package game

// VotingLedger tracks one day's lynch votes. The session decides eligibility
// before recording; the ledger only stores picks and evaluates the threshold.
// A vote may be overwritten until the day resolves; an empty target records an
// abstain (counts toward "everyone voted", never toward a lynch).
type VotingLedger struct {
	votes map[string]string // voter id -> target id ("" = abstain)
}

// NewVotingLedger creates an empty ledger for one day.
func NewVotingLedger() *VotingLedger {
	return &VotingLedger{votes: make(map[string]string)}
}

// Record stores voterID's pick, overwriting any previous one.
func (l *VotingLedger) Record(voterID, targetID string) {
	l.votes[voterID] = targetID
}

// RemoveVoter discards a voter's pick (e.g. on disconnect).
func (l *VotingLedger) RemoveVoter(voterID string) {
	delete(l.votes, voterID)
}

// HasVoted reports whether voterID has cast a vote (including abstain).
func (l *VotingLedger) HasVoted(voterID string) bool {
	_, ok := l.votes[voterID]
	return ok
}

// Votes returns a copy of the raw votes for broadcast.
func (l *VotingLedger) Votes() map[string]string {
	out := make(map[string]string, len(l.votes))
	for k, v := range l.votes {
		out[k] = v
	}
	return out
}

// Tally counts non-abstain votes cast by the given eligible voters. Ghost
// voters in the eligible set count toward the tally; the threshold denominator
// is still the alive count (see Outcome) — that asymmetry is deliberate:
// ghosts can tip a lynch but do not inflate the denominator.
func (l *VotingLedger) Tally(eligibleVoters []string) map[string]int {
	tally := make(map[string]int)
	for _, id := range eligibleVoters {
		if target, ok := l.votes[id]; ok && target != "" {
			tally[target]++
		}
	}
	return tally
}

// LynchThreshold is the vote count that triggers a lynch: ceil(2*alive/3).
func LynchThreshold(aliveCount int) int {
	return (2*aliveCount + 2) / 3
}

// Outcome evaluates the tally against the threshold for the given alive
// count. When several targets sit at or above the threshold, the strictly
// highest count wins; an exact tie at the top lynches no one and resolution
// waits for further votes.
func (l *VotingLedger) Outcome(eligibleVoters []string, aliveCount int) (targetID string, lynch bool) {
	if aliveCount == 0 {
		return "", false
	}
	tally := l.Tally(eligibleVoters)
	top, topCount, tied := "", 0, false
	for target, count := range tally {
		switch {
		case count > topCount:
			top, topCount, tied = target, count, false
		case count == topCount:
			tied = true
		}
	}
	if top == "" || tied || topCount < LynchThreshold(aliveCount) {
		return "", false
	}
	return top, true
}

// AllVoted reports whether every eligible voter has cast a vote or abstain.
func (l *VotingLedger) AllVoted(eligibleVoters []string) bool {
	for _, id := range eligibleVoters {
		if !l.HasVoted(id) {
			return false
		}
	}
	return true
}

// PurgeTarget deletes every vote cast for targetID; called once a lynch on
// that target has fired.
func (l *VotingLedger) PurgeTarget(targetID string) {
	for voter, target := range l.votes {
		if target == targetID {
			delete(l.votes, voter)
		}
	}
}

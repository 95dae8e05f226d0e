package game

import "testing"

func TestLynchThreshold(t *testing.T) {
	tests := []struct {
		alive int
		want  int
	}{
		{3, 2},
		{4, 3},
		{5, 4},
		{6, 4},
		{9, 6},
	}
	for _, tt := range tests {
		if got := LynchThreshold(tt.alive); got != tt.want {
			t.Errorf("LynchThreshold(%d) = %d, want %d", tt.alive, got, tt.want)
		}
	}
}

func TestVotingLedger_OutcomeAtThreshold(t *testing.T) {
	ledger := NewVotingLedger()
	voters := []string{"p1", "p2", "p3", "p4", "p5", "p6"}
	// 6 alive -> threshold ceil(12/3) = 4.
	for _, v := range voters[:3] {
		ledger.Record(v, "t1")
		if _, lynch := ledger.Outcome(voters, 6); lynch {
			t.Fatal("lynch fired below threshold")
		}
	}
	ledger.Record("p4", "t1")
	target, lynch := ledger.Outcome(voters, 6)
	if !lynch || target != "t1" {
		t.Errorf("expected lynch of t1 at 4 votes, got (%q, %t)", target, lynch)
	}
}

func TestVotingLedger_TopTieLynchesNoOne(t *testing.T) {
	ledger := NewVotingLedger()
	voters := []string{"p1", "p2", "p3"}
	// 3 alive -> threshold 2. Two targets at 2 votes each is an unresolved tie.
	ledger.Record("p1", "t1")
	ledger.Record("p2", "t1")
	ledger.Record("p3", "t2")
	ledger.Record("g1", "t2") // ghost voter
	if _, lynch := ledger.Outcome(append(voters, "g1"), 3); lynch {
		t.Error("tied top counts must not lynch")
	}
	// One more vote breaks the tie.
	ledger.Record("g2", "t1")
	target, lynch := ledger.Outcome(append(voters, "g1", "g2"), 3)
	if !lynch || target != "t1" {
		t.Errorf("expected t1 lynched after tiebreak, got (%q, %t)", target, lynch)
	}
}

func TestVotingLedger_GhostVoteTipsLynchWithoutInflatingDenominator(t *testing.T) {
	ledger := NewVotingLedger()
	alive := []string{"p1", "p2", "p3"} // threshold 2
	eligible := append(alive, "ghost")
	ledger.Record("p1", "t1")
	if _, lynch := ledger.Outcome(eligible, len(alive)); lynch {
		t.Fatal("single vote must not lynch")
	}
	ledger.Record("ghost", "t1")
	target, lynch := ledger.Outcome(eligible, len(alive))
	if !lynch || target != "t1" {
		t.Errorf("ghost vote should tip the lynch, got (%q, %t)", target, lynch)
	}
}

func TestVotingLedger_AbstainCountsAsVoted(t *testing.T) {
	ledger := NewVotingLedger()
	voters := []string{"p1", "p2"}
	ledger.Record("p1", "t1")
	if ledger.AllVoted(voters) {
		t.Fatal("p2 has not voted")
	}
	ledger.Record("p2", "")
	if !ledger.AllVoted(voters) {
		t.Error("abstain must count as a cast vote")
	}
	if n := ledger.Tally(voters)["t1"]; n != 1 {
		t.Errorf("abstain leaked into tally: %d", n)
	}
}

func TestVotingLedger_PurgeTarget(t *testing.T) {
	ledger := NewVotingLedger()
	ledger.Record("p1", "t1")
	ledger.Record("p2", "t1")
	ledger.Record("p3", "t2")
	ledger.PurgeTarget("t1")
	votes := ledger.Votes()
	if _, ok := votes["p1"]; ok {
		t.Error("p1's vote for the lynched target must be purged")
	}
	if votes["p3"] != "t2" {
		t.Error("votes for other targets must survive the purge")
	}
}

func TestVotingLedger_RemoveVoter(t *testing.T) {
	ledger := NewVotingLedger()
	ledger.Record("p1", "t1")
	ledger.RemoveVoter("p1")
	if ledger.HasVoted("p1") {
		t.Error("removed voter must not count as voted")
	}
}

func TestVotingLedger_VoteOverwrite(t *testing.T) {
	ledger := NewVotingLedger()
	ledger.Record("p1", "t1")
	ledger.Record("p1", "t2")
	tally := ledger.Tally([]string{"p1"})
	if tally["t1"] != 0 || tally["t2"] != 1 {
		t.Errorf("overwrite not applied: %v", tally)
	}
}

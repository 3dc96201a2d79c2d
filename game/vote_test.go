package game

import "testing"

func TestVote_CompleteAndUnanimous(t *testing.T) {
	vote := NewVote([]string{"alice", "bob"})

	if vote.IsComplete() {
		t.Error("Fresh vote should not be complete")
	}

	if vote.Add("alice", "bob") != VoteOK {
		t.Fatal("Eligible voter rejected")
	}
	if vote.IsComplete() {
		t.Error("Vote with one of two choices should not be complete")
	}

	if vote.Add("bob", "bob") != VoteOK {
		t.Fatal("Eligible voter rejected")
	}
	if !vote.IsComplete() {
		t.Error("Vote with every voter recorded should be complete")
	}

	winner, ok := vote.Winner()
	if !ok || winner != "bob" {
		t.Errorf("Expected unanimous winner bob, got %q (ok=%v)", winner, ok)
	}
}

// Complete but split: no winner, vote stays open for correction.
func TestVote_SplitHasNoWinner(t *testing.T) {
	vote := NewVote([]string{"alice", "bob"})
	vote.Add("alice", "alice")
	vote.Add("bob", "bob")

	if !vote.IsComplete() {
		t.Fatal("Both voters recorded, vote should be complete")
	}
	if _, ok := vote.Winner(); ok {
		t.Error("Split vote must have no winner")
	}
	if vote.IsClosed() {
		t.Error("Split vote must stay open")
	}

	// Correction converges
	vote.Add("alice", "bob")
	if winner, ok := vote.Winner(); !ok || winner != "bob" {
		t.Errorf("Expected winner bob after correction, got %q (ok=%v)", winner, ok)
	}
}

func TestVote_IneligibleVoterDenied(t *testing.T) {
	vote := NewVote([]string{"alice"})

	if vote.Add("mallory", "alice") != VoteDenied {
		t.Error("Ineligible voter should be denied")
	}
	if vote.Remove("mallory") != VoteDenied {
		t.Error("Ineligible removal should be denied")
	}
}

func TestVote_OverwriteKeepsSingleEntry(t *testing.T) {
	vote := NewVote([]string{"alice", "bob"})
	vote.Add("alice", "alice")
	vote.Add("alice", "bob")

	choices := vote.Choices()
	if len(choices) != 1 {
		t.Fatalf("Expected one entry after overwrite, got %d", len(choices))
	}
	if choices["alice"] != "bob" {
		t.Errorf("Expected overwritten choice bob, got %q", choices["alice"])
	}
}

func TestVote_ClosedRejectsMutation(t *testing.T) {
	vote := NewVote([]string{"alice"})
	vote.Add("alice", "alice")
	vote.Close()
	vote.Close() // idempotent

	if vote.Add("alice", "bob") != VoteClosed {
		t.Error("Add after close should fail with VoteClosed")
	}
	if vote.Remove("alice") != VoteClosed {
		t.Error("Remove after close should fail with VoteClosed")
	}
	if choices := vote.Choices(); choices["alice"] != "alice" {
		t.Errorf("Closed vote was mutated: %v", choices)
	}
}

func TestVote_RemoveVote(t *testing.T) {
	vote := NewVote([]string{"alice", "bob"})
	vote.Add("alice", "alice")
	vote.Add("bob", "alice")

	if vote.Remove("bob") != VoteOK {
		t.Fatal("Removing an existing vote should succeed")
	}
	if vote.IsComplete() {
		t.Error("Vote should be incomplete after a removal")
	}
}

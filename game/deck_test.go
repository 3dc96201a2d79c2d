package game

import (
	"sort"
	"testing"
)

func TestDeck_NewDeckRange(t *testing.T) {
	deck := NewDeck(2, 10)

	if deck.Size() != 8 {
		t.Fatalf("Expected 8 cards for [2,10), got %d", deck.Size())
	}
	for _, card := range deck.Cards() {
		if card < 2 || card >= 10 {
			t.Errorf("Card %d outside [2,10)", card)
		}
	}
}

func TestDeck_DrawOneRemoves(t *testing.T) {
	deck := NewDeck(2, 10)
	seen := make(map[int]bool)

	for i := 0; i < 8; i++ {
		card, err := deck.DrawOne()
		if err != nil {
			t.Fatalf("Draw %d failed: %v", i, err)
		}
		if seen[card] {
			t.Errorf("Card %d drawn twice", card)
		}
		seen[card] = true
	}

	if !deck.IsEmpty() {
		t.Error("Deck should be empty after drawing every card")
	}
	if _, err := deck.DrawOne(); err != ErrEmptyDeck {
		t.Errorf("Expected ErrEmptyDeck, got %v", err)
	}
}

func TestDeck_DrawShortResult(t *testing.T) {
	deck := NewDeck(2, 5) // 3 cards

	drawn := deck.Draw(10)
	if len(drawn) != 3 {
		t.Errorf("Expected short draw of 3, got %d", len(drawn))
	}
	if !deck.IsEmpty() {
		t.Error("Deck should be drained")
	}
}

// Dealing hands and returning them must restore the deck exactly:
// card values are unique, so set equality has to hold.
func TestDeck_ReturnCardsRoundTrip(t *testing.T) {
	deck := NewDeck(2, 100)
	before := deck.Cards()
	sort.Ints(before)

	hands := make([][]int, 3)
	for i := range hands {
		hands[i] = deck.Draw(6)
	}
	if deck.Size() != 98-18 {
		t.Fatalf("Expected %d cards after dealing, got %d", 98-18, deck.Size())
	}

	for _, hand := range hands {
		deck.AddCards(hand)
	}
	deck.Shuffle()

	after := deck.Cards()
	sort.Ints(after)
	if len(after) != len(before) {
		t.Fatalf("Deck size changed: before %d, after %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("Deck contents changed at %d: %d != %d", i, before[i], after[i])
		}
	}
}

func TestHand_RemoveAndSort(t *testing.T) {
	hand := NewHand()
	hand.AddMany([]int{42, 7, 19})

	if !hand.Remove(7) {
		t.Error("Remove should report the card was present")
	}
	if hand.Remove(7) {
		t.Error("Remove should fail for an absent card")
	}
	if hand.Contains(7) {
		t.Error("Removed card still present")
	}

	hand.Add(3)
	hand.Sort()
	cards := hand.Cards()
	expected := []int{3, 19, 42}
	for i := range expected {
		if cards[i] != expected[i] {
			t.Fatalf("Expected sorted hand %v, got %v", expected, cards)
		}
	}
}

package game

import "sort"

// Hand 单个玩家持有的手牌，保持收到的顺序，玩家可请求按值排序。
type Hand struct {
	cards []int
}

func NewHand() *Hand {
	return &Hand{cards: make([]int, 0)}
}

func (h *Hand) Add(card int) {
	h.cards = append(h.cards, card)
}

func (h *Hand) AddMany(cards []int) {
	h.cards = append(h.cards, cards...)
}

// Remove takes one copy of card out of the hand and reports whether
// it was present.
func (h *Hand) Remove(card int) bool {
	for i, c := range h.cards {
		if c == card {
			h.cards = append(h.cards[:i], h.cards[i+1:]...)
			return true
		}
	}
	return false
}

func (h *Hand) Contains(card int) bool {
	for _, c := range h.cards {
		if c == card {
			return true
		}
	}
	return false
}

// Sort 按牌面值稳定排序
func (h *Hand) Sort() {
	sort.SliceStable(h.cards, func(i, j int) bool {
		return h.cards[i] < h.cards[j]
	})
}

func (h *Hand) Size() int {
	return len(h.cards)
}

func (h *Hand) IsEmpty() bool {
	return len(h.cards) == 0
}

// Cards returns a copy of the held cards.
func (h *Hand) Cards() []int {
	out := make([]int, len(h.cards))
	copy(out, h.cards)
	return out
}

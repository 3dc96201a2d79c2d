package game

import (
	"errors"
	"math/rand"
)

var ErrEmptyDeck = errors.New("deck is empty")

// Deck 是剩余卡牌的抽牌袋，抽出即移除。每次抽取都独立随机，
// 只有归还卡牌后才需要重新洗牌。
type Deck struct {
	cards []int
}

// NewDeck builds a deck holding every integer in [min, max).
func NewDeck(min, max int) *Deck {
	cards := make([]int, 0, max-min)
	for c := min; c < max; c++ {
		cards = append(cards, c)
	}
	return &Deck{cards: cards}
}

// DrawOne removes and returns one card chosen uniformly at random.
// Callers must check IsEmpty first; an empty deck returns ErrEmptyDeck.
func (d *Deck) DrawOne() (int, error) {
	if len(d.cards) == 0 {
		return 0, ErrEmptyDeck
	}
	i := rand.Intn(len(d.cards))
	card := d.cards[i]
	d.cards[i] = d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return card, nil
}

// Draw draws up to n cards, stopping early when the deck drains.
// The result may be shorter than n; callers must tolerate that.
func (d *Deck) Draw(n int) []int {
	drawn := make([]int, 0, n)
	for i := 0; i < n; i++ {
		card, err := d.DrawOne()
		if err != nil {
			break
		}
		drawn = append(drawn, card)
	}
	return drawn
}

// AddCards 归还卡牌（玩家带牌离场时）
func (d *Deck) AddCards(cards []int) {
	d.cards = append(d.cards, cards...)
}

// Shuffle 重新洗牌
func (d *Deck) Shuffle() {
	rand.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

func (d *Deck) Size() int {
	return len(d.cards)
}

func (d *Deck) IsEmpty() bool {
	return len(d.cards) == 0
}

// Cards returns a copy of the remaining cards.
func (d *Deck) Cards() []int {
	out := make([]int, len(d.cards))
	copy(out, d.cards)
	return out
}

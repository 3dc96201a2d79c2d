package game

import (
	"errors"
	"fmt"
)

// GameMode 游戏模式
type GameMode string

const (
	ModeRegular GameMode = "regular"
	ModeOnFire  GameMode = "on_fire"
)

// RuleSet 是一局游戏的不可变配置。房主在开局前可以整体替换，
// 替换时牌堆和牌柱会从头重建。
type RuleSet struct {
	PairsOfPiles          int      `json:"pairs_of_piles"`
	JumpBackSize          int      `json:"jump_back_size"`
	TopLimit              int      `json:"top_limit"`
	HandSize              int      `json:"hand_size"`
	CardsPerTurn          int      `json:"cards_per_turn"`
	CardsPerTurnInEndgame int      `json:"cards_per_turn_in_endgame"`
	GameMode              GameMode `json:"game_mode"`
	OnFireCards           []int    `json:"on_fire_cards"`
	MulliganLimit         int      `json:"mulligan_limit"`
	CanViewPileHistory    bool     `json:"can_view_pile_history"`
}

// DefaultRuleSet returns the standard rules: two ascending and two
// descending piles over cards 2..99.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		PairsOfPiles:          2,
		JumpBackSize:          10,
		TopLimit:              100,
		HandSize:              6,
		CardsPerTurn:          2,
		CardsPerTurnInEndgame: 1,
		GameMode:              ModeRegular,
		OnFireCards:           []int{22, 33, 44, 55, 66, 77},
		MulliganLimit:         0,
		CanViewPileHistory:    true,
	}
}

var ErrInvalidRuleSet = errors.New("invalid rule set")

// Validate 校验规则字段范围
func (r RuleSet) Validate() error {
	if r.PairsOfPiles < 1 {
		return fmt.Errorf("%w: pairs_of_piles must be >= 1, got %d", ErrInvalidRuleSet, r.PairsOfPiles)
	}
	if r.JumpBackSize < 2 {
		return fmt.Errorf("%w: jump_back_size must be >= 2, got %d", ErrInvalidRuleSet, r.JumpBackSize)
	}
	if r.TopLimit <= 2 {
		return fmt.Errorf("%w: top_limit must be > 2, got %d", ErrInvalidRuleSet, r.TopLimit)
	}
	if r.HandSize < 1 {
		return fmt.Errorf("%w: hand_size must be >= 1, got %d", ErrInvalidRuleSet, r.HandSize)
	}
	if r.CardsPerTurn < 1 || r.CardsPerTurnInEndgame < 1 {
		return fmt.Errorf("%w: cards per turn must be >= 1", ErrInvalidRuleSet)
	}
	if r.MulliganLimit < 0 {
		return fmt.Errorf("%w: mulligan_limit must be >= 0, got %d", ErrInvalidRuleSet, r.MulliganLimit)
	}
	if r.GameMode != ModeRegular && r.GameMode != ModeOnFire {
		return fmt.Errorf("%w: unknown game mode %q", ErrInvalidRuleSet, r.GameMode)
	}
	return nil
}

// CardIsOnFire reports whether the card counts as burning under these rules.
// Always false outside on-fire mode.
func (r RuleSet) CardIsOnFire(card int) bool {
	if r.GameMode != ModeOnFire {
		return false
	}
	for _, c := range r.OnFireCards {
		if c == card {
			return true
		}
	}
	return false
}

// PileCount 每对牌柱产生一升一降两个牌柱
func (r RuleSet) PileCount() int {
	return 2 * r.PairsOfPiles
}

// DeckSize is the number of cards a fresh deck holds under these rules.
func (r RuleSet) DeckSize() int {
	return r.TopLimit - 2
}

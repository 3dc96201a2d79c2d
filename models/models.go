// models/models.go
package models

import (
	"time"

	"github.com/wfunc/pilegame/game"
	"github.com/wfunc/pilegame/room"
)

// PileSnapshot 牌柱的客户端投影
type PileSnapshot struct {
	Index       int              `json:"index"`
	Direction   game.Direction   `json:"direction"`
	Start       int              `json:"start"`
	Top         int              `json:"top"`
	TurnsOnFire int              `json:"turns_on_fire"`
	State       game.PileState   `json:"state"`
	History     []game.PileEntry `json:"history,omitempty"` // 规则允许时才下发
}

// HandSnapshot 手牌投影。合作游戏，手牌对全桌公开。
type HandSnapshot struct {
	Player string `json:"player"`
	Cards  []int  `json:"cards"`
}

// VoteSnapshot 起始玩家投票进度
type VoteSnapshot struct {
	Open     bool              `json:"open"`
	Choices  map[string]string `json:"choices"`
	Complete bool              `json:"complete"`
}

// GameSnapshot is the read-only projection of the authoritative engine
// state; the engine itself never crosses the transport boundary.
type GameSnapshot struct {
	Players             []string       `json:"players"`
	RuleSet             game.RuleSet   `json:"rule_set"`
	DeckSize            int            `json:"deck_size"`
	Hands               []HandSnapshot `json:"hands"`
	Piles               []PileSnapshot `json:"piles"`
	HasStarted          bool           `json:"has_started"`
	StartingPlayer      string         `json:"starting_player,omitempty"`
	StartingVote        *VoteSnapshot  `json:"starting_vote,omitempty"`
	TurnCounter         int            `json:"turn_counter"`
	CurrentPlayer       string         `json:"current_player,omitempty"`
	CardToPlay          *int           `json:"card_to_play,omitempty"`
	CardsPlayedThisTurn int            `json:"cards_played_this_turn"`
	MinimumCardsToPlay  int            `json:"minimum_cards_to_play"`
	Phase               game.Phase     `json:"phase"`
	IsWon               bool           `json:"is_won"`
	IsLost              bool           `json:"is_lost"`
}

// RoomSnapshot 每次被接受的变更后整体广播
type RoomSnapshot struct {
	Name       string        `json:"name"`
	Players    []string      `json:"players"`
	Spectators []string      `json:"spectators"`
	Game       *GameSnapshot `json:"game"`
	CreatedAt  time.Time     `json:"created_at"`
}

// NewGameSnapshot builds the projection. Must be called with the owning
// room's lock held.
func NewGameSnapshot(g *game.Game) *GameSnapshot {
	snap := &GameSnapshot{
		Players:             append([]string(nil), g.Players...),
		RuleSet:             g.RuleSet,
		DeckSize:            g.Deck.Size(),
		HasStarted:          g.HasStarted,
		StartingPlayer:      g.StartingPlayer,
		TurnCounter:         g.TurnCounter,
		CardToPlay:          g.CardToPlay,
		CardsPlayedThisTurn: g.CardsPlayedThisTurn,
		MinimumCardsToPlay:  g.MinimumCardsThisTurn(),
		Phase:               g.Phase(),
		IsWon:               g.IsWon,
		IsLost:              g.IsLost,
	}
	if g.IsInProgress() {
		snap.CurrentPlayer = g.CurrentPlayer()
	}
	for _, name := range g.Players {
		if hand, ok := g.Hands[name]; ok {
			snap.Hands = append(snap.Hands, HandSnapshot{Player: name, Cards: hand.Cards()})
		}
	}
	for _, p := range g.Piles {
		ps := PileSnapshot{
			Index:       p.Index,
			Direction:   p.Direction,
			Start:       p.Start,
			Top:         p.Top(),
			TurnsOnFire: p.TurnsOnFire,
			State:       p.State(g.RuleSet),
		}
		if g.RuleSet.CanViewPileHistory {
			ps.History = append([]game.PileEntry(nil), p.History...)
		}
		snap.Piles = append(snap.Piles, ps)
	}
	if g.StartingVote != nil {
		snap.StartingVote = &VoteSnapshot{
			Open:     !g.StartingVote.IsClosed(),
			Choices:  g.StartingVote.Choices(),
			Complete: g.StartingVote.IsComplete(),
		}
	}
	return snap
}

// NewRoomSnapshot builds the full broadcast payload. Must be called with
// the room's lock held.
func NewRoomSnapshot(r *room.Room) *RoomSnapshot {
	return &RoomSnapshot{
		Name:       r.Name,
		Players:    append([]string(nil), r.Players...),
		Spectators: append([]string(nil), r.Spectators...),
		Game:       NewGameSnapshot(r.Game),
		CreatedAt:  r.CreatedAt,
	}
}

// GameRecord 终局落库记录
type GameRecord struct {
	RoomName  string       `json:"room_name"`
	Outcome   string       `json:"outcome"` // won/lost/abandoned
	Players   []string     `json:"players"`
	RuleSet   game.RuleSet `json:"rule_set"`
	Turns     int          `json:"turns"`
	Duration  int          `json:"duration"` // 对局时长(秒)
	CreatedAt time.Time    `json:"created_at"`
}

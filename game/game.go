package game

import (
	"errors"

	"github.com/wfunc/pilegame/logger"
)

var (
	ErrGameInProgress   = errors.New("game already in progress")
	ErrGameNotStarted   = errors.New("game not started")
	ErrNoStartingPlayer = errors.New("starting player vote is not unanimous")
	ErrUnknownPlayer    = errors.New("player not in game")
	ErrUnknownPile      = errors.New("pile index out of range")
	ErrMulliganDenied   = errors.New("mulligan not available")
)

// Game 聚合了一局游戏的全部状态：牌堆、手牌、牌柱、回合与投票。
// Game 自身不加锁，房间负责串行化对它的所有变更。
type Game struct {
	Players             []string // 名单顺序即回合顺序
	RuleSet             RuleSet
	Deck                *Deck
	Hands               map[string]*Hand
	Piles               []*Pile
	HasStarted          bool
	StartingVote        *Vote
	StartingPlayer      string // 空串表示未定
	TurnCounter         int
	CurrentPlayerIndex  int
	CardToPlay          *int // 当前玩家暂存的待出牌
	CardsPlayedThisTurn int
	CardsMulliganed     int
	IsWon               bool
	IsLost              bool

	phase *phaseMachine
}

// NewGame derives the deck and piles from the rule set: cards [2, topLimit),
// pairsOfPiles ascending piles then pairsOfPiles descending ones.
func NewGame(ruleSet RuleSet) *Game {
	g := &Game{
		RuleSet: ruleSet,
		Hands:   make(map[string]*Hand),
		phase:   newPhaseMachine(),
	}
	g.rebuild()
	return g
}

// rebuild 依据当前规则从头重建牌堆与牌柱
func (g *Game) rebuild() {
	g.Deck = NewDeck(2, g.RuleSet.TopLimit)
	g.Piles = make([]*Pile, 0, g.RuleSet.PileCount())
	for i := 0; i < g.RuleSet.PairsOfPiles; i++ {
		g.Piles = append(g.Piles, NewPile(i, Ascending, g.RuleSet))
	}
	for i := 0; i < g.RuleSet.PairsOfPiles; i++ {
		g.Piles = append(g.Piles, NewPile(g.RuleSet.PairsOfPiles+i, Descending, g.RuleSet))
	}
}

// SetRuleSet replaces the configuration wholesale and rebuilds deck and
// piles, discarding any dealt cards. Legal only before the game starts.
func (g *Game) SetRuleSet(ruleSet RuleSet) error {
	if g.HasStarted {
		return ErrGameInProgress
	}
	if err := ruleSet.Validate(); err != nil {
		return err
	}
	g.RuleSet = ruleSet
	g.rebuild()
	return nil
}

// Phase 当前阶段
func (g *Game) Phase() Phase {
	return g.phase.Current()
}

// IsInProgress 开局且起始玩家已定
func (g *Game) IsInProgress() bool {
	return g.HasStarted && g.StartingPlayer != ""
}

// Start snapshots the roster as the turn order and deals each player a
// hand. A single player starts immediately; otherwise the starting-player
// vote opens over exactly this roster.
func (g *Game) Start(players []string) error {
	if g.HasStarted {
		return ErrGameInProgress
	}
	g.Players = make([]string, len(players))
	copy(g.Players, players)

	for _, name := range g.Players {
		hand := NewHand()
		dealt := g.Deck.Draw(g.RuleSet.HandSize)
		if len(dealt) < g.RuleSet.HandSize {
			// 牌堆不足：上层应在开局前按 玩家数×手牌数 拒绝这种配置
			logger.Log.Warnf("short deal: wanted %d cards for %s, got %d", g.RuleSet.HandSize, name, len(dealt))
		}
		hand.AddMany(dealt)
		g.Hands[name] = hand
	}

	g.HasStarted = true
	if len(g.Players) == 1 {
		g.StartingPlayer = g.Players[0]
		g.CurrentPlayerIndex = 0
		return g.phase.Transition(PhaseInProgress)
	}
	g.StartingVote = NewVote(g.Players)
	return g.phase.Transition(PhaseAwaitingStartingPlayer)
}

// AddStartingPlayerVote 代理到投票，结果种类交给上层上报
func (g *Game) AddStartingPlayerVote(voter, candidate string) VoteResult {
	if g.StartingVote == nil {
		return VoteDenied
	}
	return g.StartingVote.Add(voter, candidate)
}

func (g *Game) RemoveStartingPlayerVote(voter string) VoteResult {
	if g.StartingVote == nil {
		return VoteDenied
	}
	return g.StartingVote.Remove(voter)
}

func (g *Game) IsStartingPlayerVoteComplete() bool {
	return g.StartingVote != nil && g.StartingVote.IsComplete()
}

// SetStartingPlayer resolves the completed vote. A complete but split
// vote returns ErrNoStartingPlayer and stays open for revision: no
// progress without consensus.
func (g *Game) SetStartingPlayer() error {
	if g.StartingVote == nil {
		return ErrGameNotStarted
	}
	winner, ok := g.StartingVote.Winner()
	if !ok {
		return ErrNoStartingPlayer
	}
	g.StartingVote.Close()
	g.StartingPlayer = winner
	for i, name := range g.Players {
		if name == winner {
			g.CurrentPlayerIndex = i
			break
		}
	}
	return g.phase.Transition(PhaseInProgress)
}

// CurrentPlayer 当前回合玩家，名单为空时返回空串
func (g *Game) CurrentPlayer() string {
	if len(g.Players) == 0 {
		return ""
	}
	return g.Players[g.CurrentPlayerIndex]
}

// PlayCard pushes the card onto the pile and removes it from the hand.
// The push revalidates legality; an illegal play mutates nothing and is
// reported to the caller, who decides whether to surface it.
func (g *Game) PlayCard(player string, card, pileIndex int) PlayResult {
	hand, ok := g.Hands[player]
	if !ok || !hand.Contains(card) {
		return PlayIllegal
	}
	if pileIndex < 0 || pileIndex >= len(g.Piles) {
		return PlayIllegal
	}
	if g.Piles[pileIndex].Push(card, g.TurnCounter, player, g.RuleSet) == PlayIllegal {
		return PlayIllegal
	}
	hand.Remove(card)
	g.CardsPlayedThisTurn++
	return PlayLegal
}

// Mulligan 悔牌：弹出指定牌柱最近一条记录并收回手牌。
// 仅限当前玩家、本回合自己打出的牌，且不超过每局上限。
func (g *Game) Mulligan(player string, pileIndex int) error {
	if player != g.CurrentPlayer() {
		return ErrMulliganDenied
	}
	if g.RuleSet.MulliganLimit <= g.CardsMulliganed || g.CardsPlayedThisTurn == 0 {
		return ErrMulliganDenied
	}
	if pileIndex < 0 || pileIndex >= len(g.Piles) {
		return ErrUnknownPile
	}
	pile := g.Piles[pileIndex]
	if len(pile.History) == 0 {
		return ErrMulliganDenied
	}
	last := pile.History[len(pile.History)-1]
	if last.Player != player || last.Turn != g.TurnCounter {
		return ErrMulliganDenied
	}
	entry, _ := pile.PopLast()
	g.Hands[player].Add(entry.Card)
	g.CardsPlayedThisTurn--
	g.CardsMulliganed++
	return nil
}

// SortHand 对玩家手牌按值排序
func (g *Game) SortHand(player string) error {
	hand, ok := g.Hands[player]
	if !ok {
		return ErrUnknownPlayer
	}
	hand.Sort()
	return nil
}

// MinimumCardsThisTurn is the play quota: cardsPerTurn while the deck
// holds cards, the endgame quota once it drains.
func (g *Game) MinimumCardsThisTurn() int {
	if g.Deck.IsEmpty() {
		return g.RuleSet.CardsPerTurnInEndgame
	}
	return g.RuleSet.CardsPerTurn
}

// HasAnyLegalMove reports whether the player holds any card playable on
// any pile.
func (g *Game) HasAnyLegalMove(player string) bool {
	hand, ok := g.Hands[player]
	if !ok {
		return false
	}
	for _, card := range hand.Cards() {
		for _, pile := range g.Piles {
			if pile.CanBePlayed(card, g.RuleSet) {
				return true
			}
		}
	}
	return false
}

func (g *Game) anyHandPlayable() bool {
	for _, name := range g.Players {
		if g.HasAnyLegalMove(name) {
			return true
		}
	}
	return false
}

func (g *Game) allHandsEmpty() bool {
	for _, hand := range g.Hands {
		if !hand.IsEmpty() {
			return false
		}
	}
	return true
}

// FinishTurn 按固定顺序执行回合收尾：
//  1. 当前玩家补牌（按本回合已出张数，牌堆不足则补少）
//  2. 所有牌柱推进火焰状态
//  3. 终局判定，胜判优先于负判
//  4. 轮转到下一位玩家并清零回合计数
func (g *Game) FinishTurn() {
	if !g.IsInProgress() || g.IsWon || g.IsLost || len(g.Players) == 0 {
		return
	}

	current := g.CurrentPlayer()
	if hand, ok := g.Hands[current]; ok {
		hand.AddMany(g.Deck.Draw(g.CardsPlayedThisTurn))
	}

	for _, pile := range g.Piles {
		pile.EndTurn(g.RuleSet)
	}

	switch {
	case g.Deck.IsEmpty() && g.allHandsEmpty():
		g.IsWon = true
		if err := g.phase.Transition(PhaseWon); err != nil {
			logger.Log.Errorf("phase transition to won failed: %v", err)
		}
	case g.anyPileDestroyed():
		g.IsLost = true
		if err := g.phase.Transition(PhaseLost); err != nil {
			logger.Log.Errorf("phase transition to lost failed: %v", err)
		}
	case !g.Deck.IsEmpty() && !g.anyHandPlayable():
		g.IsLost = true
		if err := g.phase.Transition(PhaseLost); err != nil {
			logger.Log.Errorf("phase transition to lost failed: %v", err)
		}
	}

	g.CurrentPlayerIndex = (g.CurrentPlayerIndex + 1) % len(g.Players)
	g.TurnCounter++
	g.CardsPlayedThisTurn = 0
	g.CardToPlay = nil
}

func (g *Game) anyPileDestroyed() bool {
	for _, pile := range g.Piles {
		if pile.State(g.RuleSet) == PileDestroyed {
			return true
		}
	}
	return false
}

// RemovePlayer takes the player out of the roster, returns their cards
// to the deck and reshuffles. Unknown players are a logged no-op.
func (g *Game) RemovePlayer(player string) error {
	idx := -1
	for i, name := range g.Players {
		if name == player {
			idx = i
			break
		}
	}
	if idx == -1 {
		logger.Log.Warnf("remove player: %s not in game", player)
		return ErrUnknownPlayer
	}

	g.Players = append(g.Players[:idx], g.Players[idx+1:]...)

	// 保持当前回合指针指向同一位（或下一位）玩家
	if idx < g.CurrentPlayerIndex {
		g.CurrentPlayerIndex--
	}
	if len(g.Players) > 0 && g.CurrentPlayerIndex >= len(g.Players) {
		g.CurrentPlayerIndex = 0
	}

	if hand, ok := g.Hands[player]; ok {
		g.Deck.AddCards(hand.Cards())
		g.Deck.Shuffle()
		delete(g.Hands, player)
	}
	if g.StartingVote != nil && !g.StartingVote.IsClosed() {
		g.StartingVote.RemoveVoter(player)
	}
	return nil
}

// Clear resets turn counters, flags, vote and roster back to the
// not-started shape. Rule set, deck and piles keep their current shape
// until the next Start.
func (g *Game) Clear() {
	g.Players = nil
	g.Hands = make(map[string]*Hand)
	g.HasStarted = false
	g.StartingVote = nil
	g.StartingPlayer = ""
	g.TurnCounter = 0
	g.CurrentPlayerIndex = 0
	g.CardToPlay = nil
	g.CardsPlayedThisTurn = 0
	g.CardsMulliganed = 0
	g.IsWon = false
	g.IsLost = false
	g.phase.reset()
}

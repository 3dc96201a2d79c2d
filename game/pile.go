package game

// Direction 牌柱方向
type Direction string

const (
	Ascending  Direction = "ascending"
	Descending Direction = "descending"
)

// PileState 牌柱的火焰状态
type PileState string

const (
	PileSafe      PileState = "safe"
	PileOnFire    PileState = "on_fire"
	PileDestroyed PileState = "destroyed"
)

// PlayResult is the explicit outcome of a push attempt. An illegal push
// leaves the pile untouched; whether that is surfaced to the client or
// silently absorbed is the caller's call.
type PlayResult int

const (
	PlayLegal PlayResult = iota
	PlayIllegal
)

// PileEntry 入柱历史记录
type PileEntry struct {
	Card   int    `json:"card"`
	Turn   int    `json:"turn"`
	Player string `json:"player"`
}

// Pile 是一个单调牌柱：升序从 1 开始，降序从上限开始。
// 历史只追加，唯一的例外是悔牌弹出最近一条。
type Pile struct {
	Index       int
	Start       int
	Direction   Direction
	History     []PileEntry
	TurnsOnFire int
}

// NewPile derives the start value from the direction: 1 for ascending,
// the rule set's top limit for descending.
func NewPile(index int, dir Direction, ruleSet RuleSet) *Pile {
	start := 1
	if dir == Descending {
		start = ruleSet.TopLimit
	}
	return &Pile{
		Index:     index,
		Start:     start,
		Direction: dir,
		History:   make([]PileEntry, 0),
	}
}

// Top 当前柱顶，空柱为起始值
func (p *Pile) Top() int {
	if len(p.History) == 0 {
		return p.Start
	}
	return p.History[len(p.History)-1].Card
}

// CanBePlayed is the central legality rule: monotonic progress, or an
// exact jump-back of ruleSet.JumpBackSize in the opposite direction.
// card == top is illegal on both branches.
func (p *Pile) CanBePlayed(card int, ruleSet RuleSet) bool {
	top := p.Top()
	if p.Direction == Ascending {
		return card > top || card == top-ruleSet.JumpBackSize
	}
	return card < top || card == top+ruleSet.JumpBackSize
}

// Push revalidates and appends. Legality can change between a client's
// read and its write, so the server-side check here is not redundant.
func (p *Pile) Push(card, turn int, player string, ruleSet RuleSet) PlayResult {
	if !p.CanBePlayed(card, ruleSet) {
		return PlayIllegal
	}
	p.History = append(p.History, PileEntry{Card: card, Turn: turn, Player: player})
	return PlayLegal
}

// PopLast removes and returns the most recent entry. Used only by mulligan.
func (p *Pile) PopLast() (PileEntry, bool) {
	if len(p.History) == 0 {
		return PileEntry{}, false
	}
	entry := p.History[len(p.History)-1]
	p.History = p.History[:len(p.History)-1]
	return entry, true
}

// EndTurn 回合结束时推进火焰计数：柱顶着火则 +1，否则清零。
// 普通模式下不计数。
func (p *Pile) EndTurn(ruleSet RuleSet) {
	if ruleSet.GameMode != ModeOnFire {
		return
	}
	if ruleSet.CardIsOnFire(p.Top()) {
		p.TurnsOnFire++
	} else if p.TurnsOnFire > 0 {
		p.TurnsOnFire = 0
	}
}

// State derives the fire state: a burning top survives one end-of-turn,
// a second consecutive one destroys the pile.
func (p *Pile) State(ruleSet RuleSet) PileState {
	if !ruleSet.CardIsOnFire(p.Top()) {
		return PileSafe
	}
	if p.TurnsOnFire > 1 {
		return PileDestroyed
	}
	return PileOnFire
}

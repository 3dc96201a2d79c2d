package game

import "errors"

// Phase 游戏阶段
type Phase string

const (
	PhaseNotStarted             Phase = "not_started"
	PhaseAwaitingStartingPlayer Phase = "awaiting_starting_player"
	PhaseInProgress             Phase = "in_progress"
	PhaseWon                    Phase = "won"
	PhaseLost                   Phase = "lost"
)

var ErrTransitionNotAllowed = errors.New("phase transition not allowed")

// 合法的阶段转换表。Won/Lost 是终态，只有 Clear 通过 reset 离开。
var phaseTransitions = map[Phase]map[Phase]bool{
	PhaseNotStarted: {
		PhaseAwaitingStartingPlayer: true,
		PhaseInProgress:             true, // 单人局跳过投票
	},
	PhaseAwaitingStartingPlayer: {
		PhaseInProgress: true,
	},
	PhaseInProgress: {
		PhaseWon:  true,
		PhaseLost: true,
	},
}

// phaseMachine enforces the transition table above.
type phaseMachine struct {
	current Phase
}

func newPhaseMachine() *phaseMachine {
	return &phaseMachine{current: PhaseNotStarted}
}

func (m *phaseMachine) Current() Phase {
	return m.current
}

func (m *phaseMachine) Transition(to Phase) error {
	if allowed, ok := phaseTransitions[m.current]; !ok || !allowed[to] {
		return ErrTransitionNotAllowed
	}
	m.current = to
	return nil
}

// reset 仅供 Game.Clear 使用
func (m *phaseMachine) reset() {
	m.current = PhaseNotStarted
}

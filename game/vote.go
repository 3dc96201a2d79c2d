package game

// VoteResult 投票操作的结果种类，由上层决定如何上报给客户端。
type VoteResult int

const (
	VoteOK VoteResult = iota
	VoteClosed
	VoteDenied
)

// WinnerCalculator resolves a vote into a winner. Only unanimity ships
// today; plurality or majority variants plug in here without touching
// the vote's storage.
type WinnerCalculator interface {
	Winner(v *Vote) (string, bool)
}

// UnanimousCalculator 全票一致才有胜者
type UnanimousCalculator struct{}

func (UnanimousCalculator) Winner(v *Vote) (string, bool) {
	if !v.IsComplete() {
		return "", false
	}
	var winner string
	for _, candidate := range v.choices {
		if winner == "" {
			winner = candidate
		} else if winner != candidate {
			return "", false
		}
	}
	if winner == "" {
		return "", false
	}
	return winner, true
}

// Vote 起始玩家共识投票。每位合法投票者至多一票，关闭前可改票，
// 关闭后不再接受任何插入或删除。
type Vote struct {
	voters  map[string]struct{}
	choices map[string]string // voter -> candidate
	closed  bool
	calc    WinnerCalculator
}

func NewVote(voters []string) *Vote {
	v := &Vote{
		voters:  make(map[string]struct{}, len(voters)),
		choices: make(map[string]string),
		calc:    UnanimousCalculator{},
	}
	for _, name := range voters {
		v.voters[name] = struct{}{}
	}
	return v
}

// Add inserts or overwrites the voter's choice.
func (v *Vote) Add(voter, candidate string) VoteResult {
	if v.closed {
		return VoteClosed
	}
	if _, ok := v.voters[voter]; !ok {
		return VoteDenied
	}
	v.choices[voter] = candidate
	return VoteOK
}

// Remove deletes the voter's choice, same gating as Add.
func (v *Vote) Remove(voter string) VoteResult {
	if v.closed {
		return VoteClosed
	}
	if _, ok := v.voters[voter]; !ok {
		return VoteDenied
	}
	delete(v.choices, voter)
	return VoteOK
}

// RemoveVoter 玩家离场时撤销其投票资格与已投的票
func (v *Vote) RemoveVoter(voter string) {
	if v.closed {
		return
	}
	delete(v.voters, voter)
	delete(v.choices, voter)
}

// IsComplete is true once every eligible voter has a recorded choice.
func (v *Vote) IsComplete() bool {
	return len(v.choices) == len(v.voters)
}

// Winner asks the calculator; a complete-but-split vote has no winner
// and stays open for correction.
func (v *Vote) Winner() (string, bool) {
	return v.calc.Winner(v)
}

// Close 幂等的单向关闭
func (v *Vote) Close() {
	v.closed = true
}

func (v *Vote) IsClosed() bool {
	return v.closed
}

// Choices returns a copy of the recorded votes.
func (v *Vote) Choices() map[string]string {
	out := make(map[string]string, len(v.choices))
	for voter, candidate := range v.choices {
		out[voter] = candidate
	}
	return out
}

// VoterCount 合法投票者数量
func (v *Vote) VoterCount() int {
	return len(v.voters)
}

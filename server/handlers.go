package server

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/wfunc/pilegame/game"
	"github.com/wfunc/pilegame/logger"
	"github.com/wfunc/pilegame/models"
	"github.com/wfunc/pilegame/network"
	"github.com/wfunc/pilegame/persistence"
	"github.com/wfunc/pilegame/room"
	"github.com/wfunc/pilegame/session"
)

var (
	errNotYourTurn = errors.New("not your turn")
	errQuotaNotMet = errors.New("minimum cards not played")
)

// ActionResult 只回给请求方的结果，拒绝不广播
type ActionResult struct {
	Event  string `json:"event"`
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

func (s *GameServer) sendResult(sess *session.Session, event string, ok bool, reason string) {
	data, _ := json.Marshal(ActionResult{Event: event, OK: ok, Reason: reason})
	sess.Send(network.MsgTypeActionResult, data)
}

// broadcastRoom 在房间锁内构建完整快照，向所有订阅者重播。
// 房间已删除时静默跳过。
func (s *GameServer) broadcastRoom(roomName string) {
	var data []byte
	err := s.roomManager.WithRoom(roomName, func(r *room.Room) error {
		var marshalErr error
		data, marshalErr = json.Marshal(models.NewRoomSnapshot(r))
		return marshalErr
	})
	if err != nil {
		return
	}
	if err := s.broadcaster.BroadcastToRoom(roomName, network.MsgTypeRoomState, data); err != nil {
		logger.Log.Warnf("broadcast room %s: %v", roomName, err)
	}
}

// afterCleanup 通知被踢的观战者并解除订阅
func (s *GameServer) afterCleanup(roomName string, result room.CleanupResult) {
	closed, _ := json.Marshal(map[string]string{"room_name": roomName})
	for _, spectator := range result.KickedSpectators {
		for _, spectatorSess := range s.sessionManager.GetByPlayerName(spectator) {
			spectatorSess.Unsubscribe(roomName)
			spectatorSess.Send(network.MsgTypeRoomClosed, closed)
		}
	}
	if result.Deleted {
		for _, sub := range s.sessionManager.GetByRoom(roomName) {
			sub.Unsubscribe(roomName)
			sub.Send(network.MsgTypeRoomClosed, closed)
		}
	}
}

type JoinServerRequest struct {
	PlayerName string `json:"player_name"`
}

// handleJoinServer 登记身份，不影响任何房间
func (s *GameServer) handleJoinServer(sess *session.Session, packet *network.Packet) {
	var req JoinServerRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil || req.PlayerName == "" {
		s.sendResult(sess, "joinServer", false, "invalid player name")
		return
	}
	sess.SetPlayerName(req.PlayerName)
	s.sendResult(sess, "joinServer", true, "")
}

type RoomRequest struct {
	RoomName string `json:"room_name"`
}

func (s *GameServer) handleCreateRoom(sess *session.Session, packet *network.Packet) {
	var req RoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil || req.RoomName == "" {
		s.sendResult(sess, "createRoom", false, "invalid room name")
		return
	}

	if _, err := s.roomManager.CreateRoom(req.RoomName); err != nil {
		s.sendResult(sess, "createRoom", false, err.Error())
		return
	}
	logger.Log.Infof("Session %s created room %s", sess.GetID(), req.RoomName)
	s.sendResult(sess, "createRoom", true, "")
}

func (s *GameServer) handleJoinRoom(sess *session.Session, packet *network.Packet) {
	var req RoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return
	}
	player := sess.GetPlayerName()
	if player == "" {
		s.sendResult(sess, "joinRoom", false, "join the server first")
		return
	}

	if err := s.roomManager.JoinRoom(req.RoomName, player); err != nil {
		s.sendResult(sess, "joinRoom", false, err.Error())
		return
	}
	sess.Subscribe(req.RoomName)
	logger.Log.Infof("Player %s joined room %s", player, req.RoomName)
	s.sendResult(sess, "joinRoom", true, "")
	s.broadcastRoom(req.RoomName)
}

func (s *GameServer) handleSpectateRoom(sess *session.Session, packet *network.Packet) {
	var req RoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return
	}
	spectator := sess.GetPlayerName()
	if spectator == "" {
		s.sendResult(sess, "spectateRoom", false, "join the server first")
		return
	}

	if err := s.roomManager.SpectateRoom(req.RoomName, spectator); err != nil {
		s.sendResult(sess, "spectateRoom", false, err.Error())
		return
	}
	sess.Subscribe(req.RoomName)
	s.sendResult(sess, "spectateRoom", true, "")
	s.broadcastRoom(req.RoomName)
}

func (s *GameServer) handleLeaveRoom(sess *session.Session, packet *network.Packet) {
	var req RoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return
	}
	player := sess.GetPlayerName()

	result, err := s.roomManager.LeaveRoom(req.RoomName, player)
	if err != nil {
		s.sendResult(sess, "leaveRoom", false, err.Error())
		return
	}
	sess.Unsubscribe(req.RoomName)
	s.afterCleanup(req.RoomName, result)
	s.sendResult(sess, "leaveRoom", true, "")
	s.broadcastRoom(req.RoomName)
}

func (s *GameServer) handleStopSpectating(sess *session.Session, packet *network.Packet) {
	var req RoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return
	}

	if err := s.roomManager.StopSpectating(req.RoomName, sess.GetPlayerName()); err != nil {
		s.sendResult(sess, "stopSpectating", false, err.Error())
		return
	}
	sess.Unsubscribe(req.RoomName)
	s.sendResult(sess, "stopSpectating", true, "")
	s.broadcastRoom(req.RoomName)
}

type RoomListEntry struct {
	Name       string `json:"name"`
	Players    int    `json:"players"`
	Spectators int    `json:"spectators"`
	InProgress bool   `json:"in_progress"`
}

// handleRoomList 大厅只读列表
func (s *GameServer) handleRoomList(sess *session.Session, packet *network.Packet) {
	var entries []RoomListEntry
	for _, name := range s.roomManager.RoomNames() {
		s.roomManager.WithRoom(name, func(r *room.Room) error {
			entries = append(entries, RoomListEntry{
				Name:       r.Name,
				Players:    r.PlayerCount(),
				Spectators: r.SpectatorCount(),
				InProgress: r.IsInProgress(),
			})
			return nil
		})
	}
	data, _ := json.Marshal(map[string]interface{}{"rooms": entries})
	sess.Send(network.MsgTypeRoomList, data)
}

type SetRuleSetRequest struct {
	RoomName string        `json:"room_name"`
	RuleSet  *game.RuleSet `json:"rule_set,omitempty"`
	Preset   string        `json:"preset,omitempty"`  // 从预设加载
	SaveAs   string        `json:"save_as,omitempty"` // 应用后另存为预设
}

// handleSetRuleSet 开局前整体替换规则并重建牌堆与牌柱
func (s *GameServer) handleSetRuleSet(sess *session.Session, packet *network.Packet) {
	var req SetRuleSetRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return
	}

	ruleSet := req.RuleSet
	if ruleSet == nil && req.Preset != "" {
		loaded, err := s.recordService.LoadRuleSetPreset(req.Preset)
		if err == persistence.ErrRecordNotFound {
			s.sendResult(sess, "setRuleSet", false, "preset not found")
			return
		}
		if err != nil {
			s.sendResult(sess, "setRuleSet", false, err.Error())
			return
		}
		ruleSet = &loaded
	}
	if ruleSet == nil {
		s.sendResult(sess, "setRuleSet", false, "no rule set given")
		return
	}

	err := s.roomManager.WithRoom(req.RoomName, func(r *room.Room) error {
		if !r.HasPlayer(sess.GetPlayerName()) {
			return room.ErrNotMember
		}
		return r.Game.SetRuleSet(*ruleSet)
	})
	if err != nil {
		s.sendResult(sess, "setRuleSet", false, err.Error())
		return
	}

	if req.SaveAs != "" {
		if err := s.recordService.SaveRuleSetPreset(req.SaveAs, *ruleSet); err != nil {
			logger.Log.Warnf("save rule set preset %s: %v", req.SaveAs, err)
		}
	}
	s.sendResult(sess, "setRuleSet", true, "")
	s.broadcastRoom(req.RoomName)
}

func (s *GameServer) handleStartGame(sess *session.Session, packet *network.Packet) {
	var req RoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return
	}

	err := s.roomManager.WithRoom(req.RoomName, func(r *room.Room) error {
		if !r.HasPlayer(sess.GetPlayerName()) {
			return room.ErrNotMember
		}
		if r.Game.HasStarted {
			return room.ErrGameInProgress
		}
		// 牌堆必须够给每人发满一手，否则视为配置错误
		if r.Game.Deck.Size() < r.PlayerCount()*r.Game.RuleSet.HandSize {
			return game.ErrInvalidRuleSet
		}
		if err := r.Game.Start(r.Players); err != nil {
			return err
		}
		r.GameStartedAt = time.Now()
		return nil
	})
	if err != nil {
		s.sendResult(sess, "startGame", false, err.Error())
		return
	}
	s.sendResult(sess, "startGame", true, "")
	s.broadcastRoom(req.RoomName)
}

type VoteRequest struct {
	RoomName  string `json:"room_name"`
	Candidate string `json:"candidate,omitempty"`
}

// handleAddStartingVote 计票并在全员投完时自动结算。
// 票数齐但不一致时投票保持开放等待改票。
func (s *GameServer) handleAddStartingVote(sess *session.Session, packet *network.Packet) {
	var req VoteRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return
	}
	voter := sess.GetPlayerName()

	var outcome game.VoteResult
	err := s.roomManager.WithRoom(req.RoomName, func(r *room.Room) error {
		outcome = r.Game.AddStartingPlayerVote(voter, req.Candidate)
		if outcome != game.VoteOK {
			return nil
		}
		if r.Game.IsStartingPlayerVoteComplete() {
			if err := r.Game.SetStartingPlayer(); err == game.ErrNoStartingPlayer {
				logger.Log.Infof("room %s: starting player vote complete but split", r.Name)
			}
		}
		return nil
	})
	if err != nil {
		s.sendResult(sess, "addVoteForStartingPlayer", false, err.Error())
		return
	}

	switch outcome {
	case game.VoteClosed:
		s.sendResult(sess, "addVoteForStartingPlayer", false, "vote closed")
	case game.VoteDenied:
		s.sendResult(sess, "addVoteForStartingPlayer", false, "not eligible")
	default:
		s.sendResult(sess, "addVoteForStartingPlayer", true, "")
		s.broadcastRoom(req.RoomName)
	}
}

func (s *GameServer) handleRemoveStartingVote(sess *session.Session, packet *network.Packet) {
	var req VoteRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return
	}
	voter := sess.GetPlayerName()

	var outcome game.VoteResult
	err := s.roomManager.WithRoom(req.RoomName, func(r *room.Room) error {
		outcome = r.Game.RemoveStartingPlayerVote(voter)
		return nil
	})
	if err != nil {
		s.sendResult(sess, "removeVoteForStartingPlayer", false, err.Error())
		return
	}

	switch outcome {
	case game.VoteClosed:
		s.sendResult(sess, "removeVoteForStartingPlayer", false, "vote closed")
	case game.VoteDenied:
		s.sendResult(sess, "removeVoteForStartingPlayer", false, "not eligible")
	default:
		s.sendResult(sess, "removeVoteForStartingPlayer", true, "")
		s.broadcastRoom(req.RoomName)
	}
}

type SetCardRequest struct {
	RoomName string `json:"room_name"`
	Card     *int   `json:"card,omitempty"` // 空表示清除暂存
}

// handleSetCardToPlay 暂存/清除当前玩家的单张待出牌
func (s *GameServer) handleSetCardToPlay(sess *session.Session, packet *network.Packet) {
	var req SetCardRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return
	}

	err := s.roomManager.WithRoom(req.RoomName, func(r *room.Room) error {
		if !r.IsInProgress() || sess.GetPlayerName() != r.Game.CurrentPlayer() {
			return errNotYourTurn
		}
		r.Game.CardToPlay = req.Card
		return nil
	})
	if err != nil {
		s.sendResult(sess, "setCardToPlay", false, err.Error())
		return
	}
	s.broadcastRoom(req.RoomName)
}

type PlayCardRequest struct {
	RoomName  string `json:"room_name"`
	Card      int    `json:"card"`
	PileIndex int    `json:"pile_index"`
}

// handlePlayCard 服务端复核合法性后落牌。非法出牌静默吸收：
// 牌柱不变、暂存牌保留、不广播，依赖客户端已预校验。
func (s *GameServer) handlePlayCard(sess *session.Session, packet *network.Packet) {
	var req PlayCardRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return
	}
	player := sess.GetPlayerName()

	var result game.PlayResult
	err := s.roomManager.WithRoom(req.RoomName, func(r *room.Room) error {
		if !r.IsInProgress() || player != r.Game.CurrentPlayer() {
			return errNotYourTurn
		}
		// 与暂存牌的一致性由编排层负责
		if r.Game.CardToPlay != nil && *r.Game.CardToPlay != req.Card {
			result = game.PlayIllegal
			return nil
		}
		result = r.Game.PlayCard(player, req.Card, req.PileIndex)
		if result == game.PlayLegal {
			r.Game.CardToPlay = nil
		}
		return nil
	})
	if err != nil {
		s.sendResult(sess, "playCard", false, err.Error())
		return
	}
	if result == game.PlayLegal {
		s.broadcastRoom(req.RoomName)
	}
}

func (s *GameServer) handleSortHand(sess *session.Session, packet *network.Packet) {
	var req RoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return
	}

	err := s.roomManager.WithRoom(req.RoomName, func(r *room.Room) error {
		return r.Game.SortHand(sess.GetPlayerName())
	})
	if err != nil {
		s.sendResult(sess, "sortHand", false, err.Error())
		return
	}
	s.broadcastRoom(req.RoomName)
}

type MulliganRequest struct {
	RoomName  string `json:"room_name"`
	PileIndex int    `json:"pile_index"`
}

func (s *GameServer) handleMulligan(sess *session.Session, packet *network.Packet) {
	var req MulliganRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return
	}

	err := s.roomManager.WithRoom(req.RoomName, func(r *room.Room) error {
		if !r.IsInProgress() {
			return room.ErrGameInProgress
		}
		return r.Game.Mulligan(sess.GetPlayerName(), req.PileIndex)
	})
	if err != nil {
		s.sendResult(sess, "mulligan", false, err.Error())
		return
	}
	s.sendResult(sess, "mulligan", true, "")
	s.broadcastRoom(req.RoomName)
}

type EndTurnRequest struct {
	RoomName string `json:"room_name"`
	PassTurn bool   `json:"pass_turn,omitempty"`
}

// handleEndTurn 执行回合收尾序列；终局时落库并更新计数器
func (s *GameServer) handleEndTurn(sess *session.Session, packet *network.Packet) {
	var req EndTurnRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return
	}
	player := sess.GetPlayerName()

	var won, lost bool
	err := s.roomManager.WithRoom(req.RoomName, func(r *room.Room) error {
		g := r.Game
		if !r.IsInProgress() || player != g.CurrentPlayer() {
			return errNotYourTurn
		}
		if g.CardsPlayedThisTurn < g.MinimumCardsThisTurn() {
			// 打不够配额只能在无牌可出或手牌打空时跳过；
			// 跳过后若牌堆未空且全场无路可走，收尾判负
			canPass := req.PassTurn && (g.Hands[player].IsEmpty() || !g.HasAnyLegalMove(player))
			if !canPass {
				return errQuotaNotMet
			}
		}
		g.FinishTurn()
		won, lost = g.IsWon, g.IsLost
		if won {
			s.recordService.RecordFinishedGame(r, "won")
		} else if lost {
			s.recordService.RecordFinishedGame(r, "lost")
		}
		return nil
	})
	if err != nil {
		s.sendResult(sess, "endTurn", false, err.Error())
		return
	}

	if won {
		s.monitor.IncGamesWon()
	} else if lost {
		s.monitor.IncGamesLost()
	}
	s.sendResult(sess, "endTurn", true, "")
	s.broadcastRoom(req.RoomName)
}

// room/room.go
package room

import (
	"errors"
	"sync"
	"time"

	"github.com/wfunc/pilegame/game"
	"github.com/wfunc/pilegame/logger"
)

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomExists       = errors.New("room name already in use")
	ErrRoomLimitReached = errors.New("room limit reached")
	ErrRoomFull         = errors.New("room is full")
	ErrGameInProgress   = errors.New("game is in progress")
	ErrAlreadyMember    = errors.New("name already present in room")
	ErrNotMember        = errors.New("name not present in room")
)

// Room 一个命名的游戏会话：座上玩家名单、观战者名单和一局游戏。
// 玩家与观战者互斥。容量与开局中的准入限制由 Manager 执行。
type Room struct {
	Name          string
	Players       []string
	Spectators    []string
	Game          *game.Game
	CreatedAt     time.Time
	GameStartedAt time.Time

	// 串行化本房间的全部变更，跨房间互不相干
	mu sync.Mutex
}

// NewRoom starts with the default rule set; hosts replace it pre-game.
func NewRoom(name string) *Room {
	return &Room{
		Name:      name,
		Game:      game.NewGame(game.DefaultRuleSet()),
		CreatedAt: time.Now(),
	}
}

// Lock serializes event handling for this room. Callers hold it across
// a whole check-then-mutate sequence, never per field.
func (r *Room) Lock() {
	r.mu.Lock()
}

func (r *Room) Unlock() {
	r.mu.Unlock()
}

func (r *Room) HasPlayer(name string) bool {
	for _, p := range r.Players {
		if p == name {
			return true
		}
	}
	return false
}

func (r *Room) HasSpectator(name string) bool {
	for _, s := range r.Spectators {
		if s == name {
			return true
		}
	}
	return false
}

func (r *Room) PlayerCount() int {
	return len(r.Players)
}

func (r *Room) SpectatorCount() int {
	return len(r.Spectators)
}

// IsInProgress 开局且起始玩家已定，期间拒绝加入
func (r *Room) IsInProgress() bool {
	return r.Game.IsInProgress()
}

func (r *Room) addPlayer(name string) error {
	if r.HasPlayer(name) || r.HasSpectator(name) {
		return ErrAlreadyMember
	}
	r.Players = append(r.Players, name)
	return nil
}

func (r *Room) addSpectator(name string) error {
	if r.HasPlayer(name) || r.HasSpectator(name) {
		return ErrAlreadyMember
	}
	r.Spectators = append(r.Spectators, name)
	return nil
}

func (r *Room) removePlayer(name string) bool {
	for i, p := range r.Players {
		if p == name {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Room) removeSpectator(name string) bool {
	for i, s := range r.Spectators {
		if s == name {
			r.Spectators = append(r.Spectators[:i], r.Spectators[i+1:]...)
			return true
		}
	}
	return false
}

// Limits 由编排层执行的容量限制
type Limits struct {
	MaxRooms             int
	MaxPlayersPerRoom    int
	MaxSpectatorsPerRoom int
	Retained             []string // 清空后保留的房间名
}

// CleanupResult reports what a zero-player cleanup did, so the server
// can unsubscribe and notify the kicked spectators.
type CleanupResult struct {
	Deleted          bool
	KickedSpectators []string
}

// Manager 按名字管理所有房间。注册表用自身的读写锁保护，
// 各房间的游戏状态由房间自己的锁串行化。
type Manager struct {
	rooms  map[string]*Room
	limits Limits
	mutex  sync.RWMutex
}

func NewManager(limits Limits) *Manager {
	return &Manager{
		rooms:  make(map[string]*Room),
		limits: limits,
	}
}

// CreateRoom 受全局房间数上限与名字唯一性约束
func (m *Manager) CreateRoom(name string) (*Room, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.rooms[name]; exists {
		return nil, ErrRoomExists
	}
	if len(m.rooms) >= m.limits.MaxRooms {
		return nil, ErrRoomLimitReached
	}
	r := NewRoom(name)
	m.rooms[name] = r
	return r, nil
}

func (m *Manager) GetRoom(name string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	r, exists := m.rooms[name]
	return r, exists
}

// WithRoom runs fn with the room's lock held. ErrRoomNotFound when the
// name is unknown; fn's error is passed through.
func (m *Manager) WithRoom(name string, fn func(*Room) error) error {
	r, exists := m.GetRoom(name)
	if !exists {
		return ErrRoomNotFound
	}
	r.Lock()
	defer r.Unlock()
	return fn(r)
}

// JoinRoom seats a player: room must exist, not be full, not be mid-game.
func (m *Manager) JoinRoom(name, player string) error {
	return m.WithRoom(name, func(r *Room) error {
		if r.IsInProgress() {
			return ErrGameInProgress
		}
		if r.PlayerCount() >= m.limits.MaxPlayersPerRoom {
			return ErrRoomFull
		}
		return r.addPlayer(player)
	})
}

// SpectateRoom 观战准入与加入同样受开局限制
func (m *Manager) SpectateRoom(name, spectator string) error {
	return m.WithRoom(name, func(r *Room) error {
		if r.IsInProgress() {
			return ErrGameInProgress
		}
		if r.SpectatorCount() >= m.limits.MaxSpectatorsPerRoom {
			return ErrRoomFull
		}
		return r.addSpectator(spectator)
	})
}

// LeaveRoom removes the player from roster and game, then runs cleanup
// if the room emptied. Removing an absent player is a logged no-op.
func (m *Manager) LeaveRoom(name, player string) (CleanupResult, error) {
	var result CleanupResult
	err := m.WithRoom(name, func(r *Room) error {
		if !r.removePlayer(player) {
			logger.Log.Warnf("leave room %s: player %s not present", name, player)
			return ErrNotMember
		}
		if r.Game.HasStarted {
			r.Game.RemovePlayer(player)
		}
		if r.PlayerCount() == 0 {
			result = m.cleanup(r)
		}
		return nil
	})
	return result, err
}

// StopSpectating 移除观战者
func (m *Manager) StopSpectating(name, spectator string) error {
	return m.WithRoom(name, func(r *Room) error {
		if !r.removeSpectator(spectator) {
			logger.Log.Warnf("stop spectating %s: %s not present", name, spectator)
			return ErrNotMember
		}
		return nil
	})
}

// cleanup kicks remaining spectators, resets the game to the default
// rule set and deletes the room unless its name is retained. Called with
// the room's lock held.
func (m *Manager) cleanup(r *Room) CleanupResult {
	result := CleanupResult{KickedSpectators: r.Spectators}
	r.Spectators = nil
	r.Game.Clear()
	if err := r.Game.SetRuleSet(game.DefaultRuleSet()); err != nil {
		logger.Log.Errorf("reset rule set for room %s: %v", r.Name, err)
	}

	if !m.isRetained(r.Name) {
		m.mutex.Lock()
		delete(m.rooms, r.Name)
		m.mutex.Unlock()
		result.Deleted = true
		logger.Log.Infof("room %s emptied and deleted", r.Name)
	} else {
		logger.Log.Infof("room %s emptied, retained", r.Name)
	}
	return result
}

func (m *Manager) isRetained(name string) bool {
	for _, retained := range m.limits.Retained {
		if retained == name {
			return true
		}
	}
	return false
}

// RoomNames 当前注册的房间名
func (m *Manager) RoomNames() []string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	names := make([]string, 0, len(m.rooms))
	for name := range m.rooms {
		names = append(names, name)
	}
	return names
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

// RunningGames 进行中的对局数，用于指标采样
func (m *Manager) RunningGames() int {
	m.mutex.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mutex.RUnlock()

	count := 0
	for _, r := range rooms {
		r.Lock()
		if r.IsInProgress() && !r.Game.IsWon && !r.Game.IsLost {
			count++
		}
		r.Unlock()
	}
	return count
}

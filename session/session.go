// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/wfunc/pilegame/network"
)

// Session 一条客户端连接：身份名加上订阅的房间集合。
// 同一个名字在不同房间里可以分别是玩家或观战者。
type Session struct {
	ID         string
	Conn       network.Connection
	PlayerName string
	Rooms      map[string]struct{} // 订阅的房间名
	CreatedAt  time.Time
	LastActive time.Time
	mutex      sync.RWMutex
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		Rooms:      make(map[string]struct{}),
		CreatedAt:  now,
		LastActive: now,
	}
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) SetPlayerName(name string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.PlayerName = name
}

func (s *Session) GetPlayerName() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.PlayerName
}

// Subscribe 订阅房间的快照广播
func (s *Session) Subscribe(roomName string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.Rooms[roomName] = struct{}{}
}

func (s *Session) Unsubscribe(roomName string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.Rooms, roomName)
}

// RoomNames returns a copy of the subscribed room names. Disconnect
// handling iterates this while mutating subscriptions.
func (s *Session) RoomNames() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	names := make([]string, 0, len(s.Rooms))
	for name := range s.Rooms {
		names = append(names, name)
	}
	return names
}

func (s *Session) Send(msgID uint16, data []byte) error {
	s.LastActive = time.Now()
	return s.Conn.Send(msgID, data)
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Session管理器
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

// GetByRoom 返回订阅了某房间的所有会话，广播用
func (m *Manager) GetByRoom(roomName string) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, s := range m.sessions {
		s.mutex.RLock()
		_, subscribed := s.Rooms[roomName]
		s.mutex.RUnlock()
		if subscribed {
			result = append(result, s)
		}
	}
	return result
}

// GetByPlayerName 同名会话（断线重连时可能短暂并存）
func (m *Manager) GetByPlayerName(name string) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, s := range m.sessions {
		if s.GetPlayerName() == name {
			result = append(result, s)
		}
	}
	return result
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/wfunc/pilegame/room"
	"github.com/wfunc/pilegame/session"
)

var (
	ErrRoomNotFound = errors.New("room not found")
)

// 广播接口
type Broadcaster interface {
	BroadcastToRoom(roomName string, msgID uint16, data []byte) error
	BroadcastToSessions(sessions []*session.Session, msgID uint16, data []byte)
}

// RoomBroadcaster 把房间快照推送给订阅该房间的所有会话。
// 每次被接受的变更都重播完整快照，以简单换增量同步。
type RoomBroadcaster struct {
	roomManager    *room.Manager
	sessionManager *session.Manager
}

func NewRoomBroadcaster(roomManager *room.Manager, sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		roomManager:    roomManager,
		sessionManager: sessionManager,
	}
}

func (b *RoomBroadcaster) BroadcastToRoom(roomName string, msgID uint16, data []byte) error {
	if _, exists := b.roomManager.GetRoom(roomName); !exists {
		return ErrRoomNotFound
	}

	b.BroadcastToSessions(b.sessionManager.GetByRoom(roomName), msgID, data)
	return nil
}

// BroadcastToSessions 逐个发送，失败的连接跳过，由读循环负责清理
func (b *RoomBroadcaster) BroadcastToSessions(sessions []*session.Session, msgID uint16, data []byte) {
	for _, s := range sessions {
		if err := s.Send(msgID, data); err != nil {
			continue
		}
	}
}

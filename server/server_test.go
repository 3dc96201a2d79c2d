package server

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/wfunc/pilegame/broadcast"
	"github.com/wfunc/pilegame/game"
	"github.com/wfunc/pilegame/logger"
	"github.com/wfunc/pilegame/monitor"
	"github.com/wfunc/pilegame/network"
	"github.com/wfunc/pilegame/persistence"
	"github.com/wfunc/pilegame/room"
	"github.com/wfunc/pilegame/services"
	"github.com/wfunc/pilegame/session"
)

// prometheus collectors register globally, so share one monitor
var testMonitor *monitor.Monitor

func TestMain(m *testing.M) {
	logger.Init()
	testMonitor = monitor.NewMonitor("pilegame_test")
	m.Run()
}

// MockConnection records every sent packet.
type MockConnection struct {
	sent []network.Packet
}

func (m *MockConnection) Send(msgID uint16, data []byte) error {
	m.sent = append(m.sent, network.Packet{MsgID: msgID, Data: data})
	return nil
}
func (m *MockConnection) Close() error                         { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func (m *MockConnection) received(msgID uint16) int {
	count := 0
	for _, p := range m.sent {
		if p.MsgID == msgID {
			count++
		}
	}
	return count
}

// lastResult decodes the most recent ActionResult the connection received.
func (m *MockConnection) lastResult(t *testing.T) ActionResult {
	t.Helper()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].MsgID == network.MsgTypeActionResult {
			var result ActionResult
			if err := json.Unmarshal(m.sent[i].Data, &result); err != nil {
				t.Fatalf("Bad action result payload: %v", err)
			}
			return result
		}
	}
	t.Fatal("No action result received")
	return ActionResult{}
}

func newTestServer() *GameServer {
	s := &GameServer{
		roomManager: room.NewManager(room.Limits{
			MaxRooms:             8,
			MaxPlayersPerRoom:    8,
			MaxSpectatorsPerRoom: 8,
		}),
		sessionManager: session.NewManager(),
		recordService:  services.NewRecordService(persistence.NewMemoryDatabase()),
		monitor:        testMonitor,
	}
	s.broadcaster = broadcast.NewRoomBroadcaster(s.roomManager, s.sessionManager)
	return s
}

func addSession(s *GameServer, id, playerName string, rooms ...string) (*session.Session, *MockConnection) {
	conn := &MockConnection{}
	sess := session.NewSession(id, conn)
	sess.SetPlayerName(playerName)
	for _, name := range rooms {
		sess.Subscribe(name)
	}
	s.sessionManager.Add(sess)
	return sess, conn
}

// A disconnecting player empties the room: the room is deleted and the
// kicked spectator is notified and unsubscribed.
func TestHandleDisconnect_PlayerEmptiesRoom(t *testing.T) {
	s := newTestServer()
	s.roomManager.CreateRoom("table1")
	s.roomManager.JoinRoom("table1", "alice")
	s.roomManager.SpectateRoom("table1", "watcher")

	aliceSess, _ := addSession(s, "s1", "alice", "table1")
	watcherSess, watcherConn := addSession(s, "s2", "watcher", "table1")

	s.handleDisconnect(aliceSess)

	if _, exists := s.roomManager.GetRoom("table1"); exists {
		t.Error("Emptied room should be deleted")
	}
	if watcherConn.received(network.MsgTypeRoomClosed) != 1 {
		t.Error("Kicked spectator should be told the room closed")
	}
	if len(watcherSess.RoomNames()) != 0 {
		t.Errorf("Kicked spectator should be unsubscribed, still in %v", watcherSess.RoomNames())
	}
	if len(aliceSess.RoomNames()) != 0 {
		t.Error("Disconnected session should hold no subscriptions")
	}
}

// A disconnecting spectator leaves the room intact; remaining subscribers
// get a fresh snapshot.
func TestHandleDisconnect_Spectator(t *testing.T) {
	s := newTestServer()
	s.roomManager.CreateRoom("table1")
	s.roomManager.JoinRoom("table1", "alice")
	s.roomManager.SpectateRoom("table1", "watcher")

	_, aliceConn := addSession(s, "s1", "alice", "table1")
	watcherSess, _ := addSession(s, "s2", "watcher", "table1")

	s.handleDisconnect(watcherSess)

	r, exists := s.roomManager.GetRoom("table1")
	if !exists {
		t.Fatal("Room should survive a spectator disconnect")
	}
	if r.SpectatorCount() != 0 {
		t.Errorf("Spectator should be removed, got %d", r.SpectatorCount())
	}
	if aliceConn.received(network.MsgTypeRoomState) != 1 {
		t.Error("Remaining subscriber should receive a snapshot")
	}
}

// A disconnect before joinServer carries no player name and must not
// disturb any room.
func TestHandleDisconnect_AnonymousSession(t *testing.T) {
	s := newTestServer()
	s.roomManager.CreateRoom("table1")
	s.roomManager.JoinRoom("table1", "alice")

	sess, _ := addSession(s, "s1", "", "table1")
	s.handleDisconnect(sess)

	if r, _ := s.roomManager.GetRoom("table1"); r.PlayerCount() != 1 {
		t.Error("Anonymous disconnect must not change the roster")
	}
}

func packetFor(t *testing.T, msgID uint16, payload interface{}) *network.Packet {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal payload: %v", err)
	}
	return &network.Packet{MsgID: msgID, Data: data}
}

// Ending a turn below the play quota is rejected, and passing is only
// allowed once the hand is dead.
func TestHandleEndTurn_QuotaGate(t *testing.T) {
	s := newTestServer()
	s.roomManager.CreateRoom("table1")
	s.roomManager.JoinRoom("table1", "alice")
	s.roomManager.WithRoom("table1", func(r *room.Room) error {
		return r.Game.Start(r.Players)
	})

	sess, conn := addSession(s, "s1", "alice", "table1")

	s.handleEndTurn(sess, packetFor(t, network.MsgTypeEndTurn, EndTurnRequest{RoomName: "table1"}))
	if result := conn.lastResult(t); result.OK {
		t.Error("Ending the turn without playing should be denied")
	}

	// A fresh hand always has a legal move, so passing is denied too
	s.handleEndTurn(sess, packetFor(t, network.MsgTypeEndTurn, EndTurnRequest{RoomName: "table1", PassTurn: true}))
	if result := conn.lastResult(t); result.OK {
		t.Error("Passing with playable cards should be denied")
	}

	// Empty the hand: passing is now allowed and the turn finishes
	s.roomManager.WithRoom("table1", func(r *room.Room) error {
		r.Game.Hands["alice"] = game.NewHand()
		return nil
	})
	s.handleEndTurn(sess, packetFor(t, network.MsgTypeEndTurn, EndTurnRequest{RoomName: "table1", PassTurn: true}))
	if result := conn.lastResult(t); !result.OK {
		t.Errorf("Passing with an empty hand should succeed, got %q", result.Reason)
	}
}

// An illegal play is absorbed: no result, no broadcast, pile untouched.
func TestHandlePlayCard_IllegalSilentlyAbsorbed(t *testing.T) {
	s := newTestServer()
	s.roomManager.CreateRoom("table1")
	s.roomManager.JoinRoom("table1", "alice")
	s.roomManager.WithRoom("table1", func(r *room.Room) error {
		return r.Game.Start(r.Players)
	})

	sess, conn := addSession(s, "s1", "alice", "table1")
	before := len(conn.sent)

	// 999 is in nobody's hand
	s.handlePlayCard(sess, packetFor(t, network.MsgTypePlayCard, PlayCardRequest{
		RoomName: "table1", Card: 999, PileIndex: 0,
	}))

	if len(conn.sent) != before {
		t.Error("Illegal play must produce no result and no broadcast")
	}
	s.roomManager.WithRoom("table1", func(r *room.Room) error {
		if len(r.Game.Piles[0].History) != 0 {
			t.Error("Illegal play must not touch the pile")
		}
		return nil
	})
}

package session

import (
	"net"
	"sort"
	"testing"
	"time"

	"github.com/wfunc/pilegame/network"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct{}

func (m *MockConnection) Send(msgID uint16, data []byte) error { return nil }
func (m *MockConnection) Close() error                         { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func TestNewManager(t *testing.T) {
	manager := NewManager()
	if manager == nil {
		t.Fatal("NewManager should not return nil")
	}
	if manager.sessions == nil {
		t.Fatal("NewManager should initialize the sessions map")
	}
}

func TestManager_Add_Get_Remove(t *testing.T) {
	manager := NewManager()
	sessionID := "test_session_1"
	sess := NewSession(sessionID, &MockConnection{})

	// Test Add
	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("Expected session count to be 1, got %d", manager.Count())
	}

	// Test Get
	retrievedSess, exists := manager.Get(sessionID)
	if !exists {
		t.Fatal("Get should find the added session")
	}
	if retrievedSess != sess {
		t.Fatal("Get should return the same session instance")
	}

	// Test Remove
	manager.Remove(sessionID)
	if manager.Count() != 0 {
		t.Fatalf("Expected session count to be 0 after removal, got %d", manager.Count())
	}

	_, exists = manager.Get(sessionID)
	if exists {
		t.Fatal("Get should not find the removed session")
	}
}

func TestManager_GetByPlayerName(t *testing.T) {
	manager := NewManager()

	sess1 := NewSession("session1", &MockConnection{})
	sess1.SetPlayerName("alice")

	sess2 := NewSession("session2", &MockConnection{})
	sess2.SetPlayerName("bob")

	sess3 := NewSession("session3", &MockConnection{})
	sess3.SetPlayerName("alice")

	manager.Add(sess1)
	manager.Add(sess2)
	manager.Add(sess3)

	aliceSessions := manager.GetByPlayerName("alice")
	if len(aliceSessions) != 2 {
		t.Errorf("Expected 2 sessions for alice, got %d", len(aliceSessions))
	}

	bobSessions := manager.GetByPlayerName("bob")
	if len(bobSessions) != 1 {
		t.Errorf("Expected 1 session for bob, got %d", len(bobSessions))
	}

	carolSessions := manager.GetByPlayerName("carol")
	if len(carolSessions) != 0 {
		t.Errorf("Expected 0 sessions for carol, got %d", len(carolSessions))
	}
}

func TestManager_GetByRoom(t *testing.T) {
	manager := NewManager()

	sess1 := NewSession("session1", &MockConnection{})
	sess1.Subscribe("table1")
	sess1.Subscribe("table2")

	sess2 := NewSession("session2", &MockConnection{})
	sess2.Subscribe("table1")

	sess3 := NewSession("session3", &MockConnection{})

	manager.Add(sess1)
	manager.Add(sess2)
	manager.Add(sess3)

	table1Sessions := manager.GetByRoom("table1")
	if len(table1Sessions) != 2 {
		t.Errorf("Expected 2 sessions subscribed to table1, got %d", len(table1Sessions))
	}

	table2Sessions := manager.GetByRoom("table2")
	if len(table2Sessions) != 1 {
		t.Errorf("Expected 1 session subscribed to table2, got %d", len(table2Sessions))
	}

	sess1.Unsubscribe("table1")
	table1Sessions = manager.GetByRoom("table1")
	if len(table1Sessions) != 1 {
		t.Errorf("Expected 1 session after unsubscribe, got %d", len(table1Sessions))
	}
}

func TestSession_RoomNames(t *testing.T) {
	sess := NewSession("test_session", &MockConnection{})
	sess.Subscribe("table1")
	sess.Subscribe("table2")

	names := sess.RoomNames()
	sort.Strings(names)
	if len(names) != 2 || names[0] != "table1" || names[1] != "table2" {
		t.Errorf("Expected [table1 table2], got %v", names)
	}

	// 返回的是拷贝，改动它不影响会话本身
	names[0] = "mutated"
	if _, subscribed := sess.Rooms["table1"]; !subscribed {
		t.Error("Mutating the returned slice must not affect subscriptions")
	}
}

func TestSession_PlayerName(t *testing.T) {
	sess := NewSession("test_session", &MockConnection{})
	if sess.GetPlayerName() != "" {
		t.Errorf("Expected empty player name, got %q", sess.GetPlayerName())
	}

	sess.SetPlayerName("alice")
	if sess.GetPlayerName() != "alice" {
		t.Errorf("Expected alice, got %q", sess.GetPlayerName())
	}
}

package room

import (
	"testing"

	"github.com/wfunc/pilegame/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	m.Run()
}

func testLimits() Limits {
	return Limits{
		MaxRooms:             2,
		MaxPlayersPerRoom:    2,
		MaxSpectatorsPerRoom: 1,
		Retained:             []string{"Lobby"},
	}
}

func TestManager_CreateAndGetRoom(t *testing.T) {
	manager := NewManager(testLimits())

	r, err := manager.CreateRoom("table1")
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if r.Name != "table1" {
		t.Errorf("Expected room name table1, got %s", r.Name)
	}

	retrieved, exists := manager.GetRoom("table1")
	if !exists {
		t.Fatal("GetRoom should find the created room")
	}
	if retrieved != r {
		t.Error("GetRoom should return the same room instance")
	}
}

func TestManager_DuplicateRoomName(t *testing.T) {
	manager := NewManager(testLimits())
	manager.CreateRoom("table1")

	if _, err := manager.CreateRoom("table1"); err != ErrRoomExists {
		t.Errorf("Expected ErrRoomExists, got %v", err)
	}
}

func TestManager_RoomLimit(t *testing.T) {
	manager := NewManager(testLimits())
	manager.CreateRoom("table1")
	manager.CreateRoom("table2")

	if _, err := manager.CreateRoom("table3"); err != ErrRoomLimitReached {
		t.Errorf("Expected ErrRoomLimitReached, got %v", err)
	}
}

func TestManager_JoinRoomCapacity(t *testing.T) {
	manager := NewManager(testLimits())
	manager.CreateRoom("table1")

	if err := manager.JoinRoom("table1", "alice"); err != nil {
		t.Fatalf("First join failed: %v", err)
	}
	if err := manager.JoinRoom("table1", "bob"); err != nil {
		t.Fatalf("Second join failed: %v", err)
	}
	if err := manager.JoinRoom("table1", "carol"); err != ErrRoomFull {
		t.Errorf("Expected ErrRoomFull, got %v", err)
	}
}

func TestManager_JoinUnknownRoom(t *testing.T) {
	manager := NewManager(testLimits())

	if err := manager.JoinRoom("nowhere", "alice"); err != ErrRoomNotFound {
		t.Errorf("Expected ErrRoomNotFound, got %v", err)
	}
}

func TestManager_DuplicateMembershipRejected(t *testing.T) {
	manager := NewManager(testLimits())
	manager.CreateRoom("table1")
	manager.JoinRoom("table1", "alice")

	if err := manager.JoinRoom("table1", "alice"); err != ErrAlreadyMember {
		t.Errorf("Rejoining should fail with ErrAlreadyMember, got %v", err)
	}
	// 同一名字不能同时坐下和观战
	if err := manager.SpectateRoom("table1", "alice"); err != ErrAlreadyMember {
		t.Errorf("Seated player spectating should fail with ErrAlreadyMember, got %v", err)
	}
}

func TestManager_SpectatorCapacity(t *testing.T) {
	manager := NewManager(testLimits())
	manager.CreateRoom("table1")
	manager.JoinRoom("table1", "alice")

	if err := manager.SpectateRoom("table1", "watcher1"); err != nil {
		t.Fatalf("First spectate failed: %v", err)
	}
	if err := manager.SpectateRoom("table1", "watcher2"); err != ErrRoomFull {
		t.Errorf("Expected ErrRoomFull for second spectator, got %v", err)
	}
}

func startGameInRoom(t *testing.T, manager *Manager, roomName string) {
	t.Helper()
	err := manager.WithRoom(roomName, func(r *Room) error {
		return r.Game.Start(r.Players)
	})
	if err != nil {
		t.Fatalf("Start game in %s failed: %v", roomName, err)
	}
}

func TestManager_NoJoinWhileInProgress(t *testing.T) {
	manager := NewManager(testLimits())
	manager.CreateRoom("table1")
	manager.JoinRoom("table1", "alice")
	startGameInRoom(t, manager, "table1") // single player auto-starts

	if err := manager.JoinRoom("table1", "bob"); err != ErrGameInProgress {
		t.Errorf("Join during game should fail with ErrGameInProgress, got %v", err)
	}
	if err := manager.SpectateRoom("table1", "watcher"); err != ErrGameInProgress {
		t.Errorf("Spectate during game should fail with ErrGameInProgress, got %v", err)
	}
}

func TestManager_JoinAllowedWhileVotePending(t *testing.T) {
	// 两人局开局后等待投票，起始玩家未定之前不算进行中
	limits := testLimits()
	limits.MaxPlayersPerRoom = 3
	manager := NewManager(limits)
	manager.CreateRoom("table1")
	manager.JoinRoom("table1", "alice")
	manager.JoinRoom("table1", "bob")
	startGameInRoom(t, manager, "table1")

	if err := manager.SpectateRoom("table1", "watcher"); err != nil {
		t.Errorf("Spectating while the vote is open should be allowed, got %v", err)
	}
}

func TestManager_LeaveRoomDeletesEmptyRoom(t *testing.T) {
	manager := NewManager(testLimits())
	manager.CreateRoom("table1")
	manager.JoinRoom("table1", "alice")
	manager.SpectateRoom("table1", "watcher")

	result, err := manager.LeaveRoom("table1", "alice")
	if err != nil {
		t.Fatalf("LeaveRoom failed: %v", err)
	}
	if !result.Deleted {
		t.Error("Non-retained empty room should be deleted")
	}
	if len(result.KickedSpectators) != 1 || result.KickedSpectators[0] != "watcher" {
		t.Errorf("Spectators should be kicked on cleanup, got %v", result.KickedSpectators)
	}
	if _, exists := manager.GetRoom("table1"); exists {
		t.Error("Deleted room still registered")
	}
}

func TestManager_RetainedRoomSurvivesCleanup(t *testing.T) {
	manager := NewManager(testLimits())
	manager.CreateRoom("Lobby")
	manager.JoinRoom("Lobby", "alice")
	startGameInRoom(t, manager, "Lobby")

	result, err := manager.LeaveRoom("Lobby", "alice")
	if err != nil {
		t.Fatalf("LeaveRoom failed: %v", err)
	}
	if result.Deleted {
		t.Error("Retained room must not be deleted")
	}

	r, exists := manager.GetRoom("Lobby")
	if !exists {
		t.Fatal("Retained room should still be registered")
	}
	if r.Game.HasStarted {
		t.Error("Cleanup should clear the game state")
	}
	if r.IsInProgress() {
		t.Error("Cleaned room must accept joins again")
	}
}

func TestManager_LeaveRemovesPlayerFromGame(t *testing.T) {
	limits := testLimits()
	limits.MaxPlayersPerRoom = 3
	manager := NewManager(limits)
	manager.CreateRoom("table1")
	manager.JoinRoom("table1", "alice")
	manager.JoinRoom("table1", "bob")
	startGameInRoom(t, manager, "table1")

	if _, err := manager.LeaveRoom("table1", "bob"); err != nil {
		t.Fatalf("LeaveRoom failed: %v", err)
	}

	manager.WithRoom("table1", func(r *Room) error {
		if _, exists := r.Game.Hands["bob"]; exists {
			t.Error("Leaver's hand should be removed from the game")
		}
		if len(r.Game.Players) != 1 {
			t.Errorf("Game roster should shrink to 1, got %d", len(r.Game.Players))
		}
		return nil
	})
}

func TestManager_LeaveUnknownPlayerNoOp(t *testing.T) {
	manager := NewManager(testLimits())
	manager.CreateRoom("table1")
	manager.JoinRoom("table1", "alice")

	if _, err := manager.LeaveRoom("table1", "mallory"); err != ErrNotMember {
		t.Errorf("Expected ErrNotMember, got %v", err)
	}
	if r, _ := manager.GetRoom("table1"); r.PlayerCount() != 1 {
		t.Error("No-op leave must not change the roster")
	}
}

func TestManager_StopSpectating(t *testing.T) {
	manager := NewManager(testLimits())
	manager.CreateRoom("table1")
	manager.JoinRoom("table1", "alice")
	manager.SpectateRoom("table1", "watcher")

	if err := manager.StopSpectating("table1", "watcher"); err != nil {
		t.Fatalf("StopSpectating failed: %v", err)
	}
	if r, _ := manager.GetRoom("table1"); r.SpectatorCount() != 0 {
		t.Error("Spectator should be removed")
	}

	if err := manager.StopSpectating("table1", "watcher"); err != ErrNotMember {
		t.Errorf("Expected ErrNotMember for repeat removal, got %v", err)
	}
}

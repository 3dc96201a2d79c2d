package server

import (
	"net/http"
	"net/rpc"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/pilegame/broadcast"
	"github.com/wfunc/pilegame/config"
	"github.com/wfunc/pilegame/logger"
	"github.com/wfunc/pilegame/monitor"
	"github.com/wfunc/pilegame/network"
	"github.com/wfunc/pilegame/persistence"
	pilegame_rpc "github.com/wfunc/pilegame/rpc"
	"github.com/wfunc/pilegame/room"
	"github.com/wfunc/pilegame/services"
	"github.com/wfunc/pilegame/session"
	"github.com/wfunc/pilegame/timer"
)

type GameServer struct {
	cfg            *config.Config
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	broadcaster    broadcast.Broadcaster
	recordService  *services.RecordService
	monitor        *monitor.Monitor
	timers         *timer.Manager
	rpcServer      *pilegame_rpc.Server
	shutdownChan   chan struct{}
}

func NewGameServer(cfg *config.Config, db persistence.Database) *GameServer {
	s := &GameServer{
		cfg: cfg,
		roomManager: room.NewManager(room.Limits{
			MaxRooms:             cfg.Rooms.MaxRooms,
			MaxPlayersPerRoom:    cfg.Rooms.MaxPlayersPerRoom,
			MaxSpectatorsPerRoom: cfg.Rooms.MaxSpectatorsPerRoom,
			Retained:             cfg.Rooms.Retained,
		}),
		sessionManager: session.NewManager(),
		recordService:  services.NewRecordService(db),
		monitor:        monitor.NewMonitor("pilegame"),
		timers:         timer.NewManager(),
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	// 初始化广播器
	s.broadcaster = broadcast.NewRoomBroadcaster(s.roomManager, s.sessionManager)

	// 保留房间开机即建好，方便重连
	for _, name := range cfg.Rooms.Retained {
		if _, err := s.roomManager.CreateRoom(name); err != nil {
			logger.Log.Warnf("create retained room %s: %v", name, err)
		}
	}

	// 初始化RPC服务器
	rpcServer, err := pilegame_rpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer

	statsService := pilegame_rpc.NewStatsService(s.roomManager, s.sessionManager, s.recordService)
	rpc.Register(statsService)

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()
	s.monitor.StartServer(s.cfg.Server.MetricsAddress)

	// 周期采样房间指标
	s.timers.AddTask(5*time.Second, 5*time.Second, func() {
		s.monitor.SetActiveRooms(s.roomManager.Count())
		s.monitor.SetRunningGames(s.roomManager.RunningGames())
	})

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Game server listening on %s", s.cfg.Server.HTTPAddress)
	return http.ListenAndServe(s.cfg.Server.HTTPAddress, nil)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.timers.Stop()
	s.rpcServer.Stop()
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	wsConn.SetHeartbeat(30 * time.Second)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	s.monitor.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.handleDisconnect(sess)
		s.sessionManager.Remove(sess.GetID())
		s.monitor.DecOnlinePlayers()
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

// handlePacket 分发事件。单个事件的故障只影响它自己的房间，
// 这里兜底恢复以保证其他房间继续收发。
func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorf("panic handling msg %d from session %s: %v", packet.MsgID, sess.GetID(), r)
		}
	}()

	start := time.Now()
	s.monitor.IncMessagesReceived()
	defer func() {
		s.monitor.ObserveMessageLatency(time.Since(start))
	}()

	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.LastActive = time.Now()
	case network.MsgTypeJoinServer:
		s.handleJoinServer(sess, packet)
	case network.MsgTypeCreateRoom:
		s.handleCreateRoom(sess, packet)
	case network.MsgTypeJoinRoom:
		s.handleJoinRoom(sess, packet)
	case network.MsgTypeSpectateRoom:
		s.handleSpectateRoom(sess, packet)
	case network.MsgTypeLeaveRoom:
		s.handleLeaveRoom(sess, packet)
	case network.MsgTypeStopSpectating:
		s.handleStopSpectating(sess, packet)
	case network.MsgTypeRoomList:
		s.handleRoomList(sess, packet)
	case network.MsgTypeSetRuleSet:
		s.handleSetRuleSet(sess, packet)
	case network.MsgTypeStartGame:
		s.handleStartGame(sess, packet)
	case network.MsgTypeAddStartingVote:
		s.handleAddStartingVote(sess, packet)
	case network.MsgTypeRemoveStartingVote:
		s.handleRemoveStartingVote(sess, packet)
	case network.MsgTypeSetCardToPlay:
		s.handleSetCardToPlay(sess, packet)
	case network.MsgTypePlayCard:
		s.handlePlayCard(sess, packet)
	case network.MsgTypeSortHand:
		s.handleSortHand(sess, packet)
	case network.MsgTypeMulligan:
		s.handleMulligan(sess, packet)
	case network.MsgTypeEndTurn:
		s.handleEndTurn(sess, packet)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}
}

// handleDisconnect 把断开的会话从它占用的每个房间里移除，
// 逐房间顺序处理，同一连接的断开清理不会与自身并发。
func (s *GameServer) handleDisconnect(sess *session.Session) {
	name := sess.GetPlayerName()
	for _, roomName := range sess.RoomNames() {
		sess.Unsubscribe(roomName)
		if name == "" {
			continue
		}
		if result, err := s.roomManager.LeaveRoom(roomName, name); err == nil {
			s.afterCleanup(roomName, result)
			s.broadcastRoom(roomName)
		} else if err == room.ErrNotMember {
			// 观战会话
			if err := s.roomManager.StopSpectating(roomName, name); err == nil {
				s.broadcastRoom(roomName)
			}
		}
	}
}

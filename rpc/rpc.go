package rpc

import (
	"net"
	"net/rpc"

	"github.com/wfunc/pilegame/logger"
	"github.com/wfunc/pilegame/models"
	"github.com/wfunc/pilegame/room"
	"github.com/wfunc/pilegame/services"
	"github.com/wfunc/pilegame/session"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// StatsService 运维侧查询接口
type StatsService struct {
	rooms    *room.Manager
	sessions *session.Manager
	records  *services.RecordService
}

func NewStatsService(rooms *room.Manager, sessions *session.Manager, records *services.RecordService) *StatsService {
	return &StatsService{rooms: rooms, sessions: sessions, records: records}
}

type ServerStatsArgs struct{}

type ServerStatsReply struct {
	Sessions     int
	Rooms        int
	RunningGames int
	RoomNames    []string
}

// ServerStats 汇总当前进程的房间与会话情况
func (s *StatsService) ServerStats(args *ServerStatsArgs, reply *ServerStatsReply) error {
	reply.Sessions = s.sessions.Count()
	reply.Rooms = s.rooms.Count()
	reply.RunningGames = s.rooms.RunningGames()
	reply.RoomNames = s.rooms.RoomNames()
	return nil
}

type RoomStatsArgs struct {
	RoomName string
}

type RoomStatsReply struct {
	Players    []string
	Spectators []string
	Phase      string
	TurnCount  int
}

// RoomStats 单个房间的当前状态
func (s *StatsService) RoomStats(args *RoomStatsArgs, reply *RoomStatsReply) error {
	return s.rooms.WithRoom(args.RoomName, func(r *room.Room) error {
		reply.Players = append([]string(nil), r.Players...)
		reply.Spectators = append([]string(nil), r.Spectators...)
		reply.Phase = string(r.Game.Phase())
		reply.TurnCount = r.Game.TurnCounter
		return nil
	})
}

type RecentRecordsArgs struct {
	RoomName string
	Limit    int
}

type RecentRecordsReply struct {
	Records []models.GameRecord
}

// RecentRecords 查询最近的终局记录
func (s *StatsService) RecentRecords(args *RecentRecordsArgs, reply *RecentRecordsReply) error {
	records, err := s.records.RecentRecords(args.RoomName, args.Limit)
	if err != nil {
		return err
	}
	reply.Records = records
	return nil
}

package services

import (
	"time"

	"github.com/wfunc/pilegame/game"
	"github.com/wfunc/pilegame/logger"
	"github.com/wfunc/pilegame/models"
	"github.com/wfunc/pilegame/persistence"
	"github.com/wfunc/pilegame/room"
)

// RecordService 终局落库。落库失败只记日志，不影响房间继续。
type RecordService struct {
	db persistence.Database
}

func NewRecordService(db persistence.Database) *RecordService {
	return &RecordService{db: db}
}

// RecordFinishedGame 写入一条终局记录。调用方需持有房间锁。
func (s *RecordService) RecordFinishedGame(r *room.Room, outcome string) {
	record := &models.GameRecord{
		RoomName:  r.Name,
		Outcome:   outcome,
		Players:   append([]string(nil), r.Game.Players...),
		RuleSet:   r.Game.RuleSet,
		Turns:     r.Game.TurnCounter,
		CreatedAt: time.Now(),
	}
	if !r.GameStartedAt.IsZero() {
		record.Duration = int(time.Since(r.GameStartedAt).Seconds())
	}

	if err := s.db.SaveGameRecord(record); err != nil {
		logger.Log.Errorf("save game record for room %s: %v", r.Name, err)
	}
}

// RecentRecords 查询最近的终局记录
func (s *RecordService) RecentRecords(roomName string, limit int) ([]models.GameRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.db.ListGameRecords(roomName, limit)
}

// SaveRuleSetPreset 保存命名规则预设
func (s *RecordService) SaveRuleSetPreset(name string, ruleSet game.RuleSet) error {
	return s.db.SaveRuleSetPreset(name, ruleSet)
}

// LoadRuleSetPreset 读取命名规则预设
func (s *RecordService) LoadRuleSetPreset(name string) (game.RuleSet, error) {
	return s.db.LoadRuleSetPreset(name)
}

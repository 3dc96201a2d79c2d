// persistence/memory.go
package persistence

import (
	"sync"
	"time"

	"github.com/wfunc/pilegame/game"
	"github.com/wfunc/pilegame/models"
)

// MemoryDatabase 未配置 PostgreSQL 时的进程内实现，
// 数据随进程消失。测试也用它。
type MemoryDatabase struct {
	records []models.GameRecord
	presets map[string]game.RuleSet
	mutex   sync.RWMutex
}

func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{
		presets: make(map[string]game.RuleSet),
	}
}

func (m *MemoryDatabase) SaveGameRecord(record *models.GameRecord) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	rec := *record
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *MemoryDatabase) ListGameRecords(roomName string, limit int) ([]models.GameRecord, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var out []models.GameRecord
	// 新的在前
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		if roomName == "" || m.records[i].RoomName == roomName {
			out = append(out, m.records[i])
		}
	}
	return out, nil
}

func (m *MemoryDatabase) SaveRuleSetPreset(name string, ruleSet game.RuleSet) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.presets[name] = ruleSet
	return nil
}

func (m *MemoryDatabase) LoadRuleSetPreset(name string) (game.RuleSet, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	ruleSet, ok := m.presets[name]
	if !ok {
		return game.RuleSet{}, ErrRecordNotFound
	}
	return ruleSet, nil
}

func (m *MemoryDatabase) Close() error {
	return nil
}

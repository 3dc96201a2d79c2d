// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/wfunc/pilegame/game"
	"github.com/wfunc/pilegame/models"
)

// Database 数据库接口。只存终局记录和规则预设，
// 进行中的房间状态永远不落库。
type Database interface {
	SaveGameRecord(record *models.GameRecord) error
	ListGameRecords(roomName string, limit int) ([]models.GameRecord, error)
	SaveRuleSetPreset(name string, ruleSet game.RuleSet) error
	LoadRuleSetPreset(name string) (game.RuleSet, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)

// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormGameRecord 终局记录模型
type GormGameRecord struct {
	gorm.Model
	RoomName string `gorm:"index;not null"`
	Outcome  string `gorm:"not null"`
	Players  string `gorm:"type:jsonb;not null"` // JSON 编码的玩家名单
	RuleSet  string `gorm:"type:jsonb;not null"` // JSON 编码的规则
	Turns    int    `gorm:"default:0"`
	Duration int    `gorm:"default:0"` // 对局时长(秒)
}

// GormRuleSetPreset 命名的规则预设
type GormRuleSetPreset struct {
	gorm.Model
	Name    string `gorm:"uniqueIndex;not null"`
	Config  string `gorm:"type:jsonb;not null"` // JSON 编码的 RuleSet
	Enabled bool   `gorm:"default:true"`
}

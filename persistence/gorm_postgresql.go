// persistence/gorm_postgresql.go
package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/pilegame/game"
	"github.com/wfunc/pilegame/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// 配置GORM日志
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := db.AutoMigrate(&models.GormGameRecord{}, &models.GormRuleSetPreset{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// SaveGameRecord 保存终局记录
func (p *GormPostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	players, err := json.Marshal(record.Players)
	if err != nil {
		return err
	}
	ruleSet, err := json.Marshal(record.RuleSet)
	if err != nil {
		return err
	}

	row := models.GormGameRecord{
		RoomName: record.RoomName,
		Outcome:  record.Outcome,
		Players:  string(players),
		RuleSet:  string(ruleSet),
		Turns:    record.Turns,
		Duration: record.Duration,
	}
	return p.db.Create(&row).Error
}

// ListGameRecords 按房间名倒序列出终局记录
func (p *GormPostgreSQL) ListGameRecords(roomName string, limit int) ([]models.GameRecord, error) {
	var rows []models.GormGameRecord
	query := p.db.Order("created_at desc").Limit(limit)
	if roomName != "" {
		query = query.Where("room_name = ?", roomName)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]models.GameRecord, 0, len(rows))
	for _, row := range rows {
		rec := models.GameRecord{
			RoomName:  row.RoomName,
			Outcome:   row.Outcome,
			Turns:     row.Turns,
			Duration:  row.Duration,
			CreatedAt: row.CreatedAt,
		}
		if err := json.Unmarshal([]byte(row.Players), &rec.Players); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(row.RuleSet), &rec.RuleSet); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// SaveRuleSetPreset 按名字保存或覆盖规则预设
func (p *GormPostgreSQL) SaveRuleSetPreset(name string, ruleSet game.RuleSet) error {
	config, err := json.Marshal(ruleSet)
	if err != nil {
		return err
	}

	var preset models.GormRuleSetPreset
	result := p.db.Where("name = ?", name).First(&preset)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		preset = models.GormRuleSetPreset{
			Name:    name,
			Config:  string(config),
			Enabled: true,
		}
		return p.db.Create(&preset).Error
	} else if result.Error != nil {
		return result.Error
	}

	preset.Config = string(config)
	return p.db.Save(&preset).Error
}

// LoadRuleSetPreset 读取规则预设
func (p *GormPostgreSQL) LoadRuleSetPreset(name string) (game.RuleSet, error) {
	var preset models.GormRuleSetPreset
	if err := p.db.Where("name = ? AND enabled = ?", name, true).First(&preset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return game.RuleSet{}, ErrRecordNotFound
		}
		return game.RuleSet{}, err
	}

	var ruleSet game.RuleSet
	if err := json.Unmarshal([]byte(preset.Config), &ruleSet); err != nil {
		return game.RuleSet{}, err
	}
	return ruleSet, nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

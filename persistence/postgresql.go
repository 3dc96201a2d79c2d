// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL 驱动

	"github.com/wfunc/pilegame/game"
	"github.com/wfunc/pilegame/models"
)

// PostgreSQL 不经ORM的原生实现，与GORM实现可互换
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS game_records (
            id SERIAL PRIMARY KEY,
            room_name TEXT NOT NULL,
            outcome TEXT NOT NULL,
            players JSONB NOT NULL,
            rule_set JSONB NOT NULL,
            turns INT NOT NULL DEFAULT 0,
            duration INT NOT NULL DEFAULT 0,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS rule_set_presets (
            id SERIAL PRIMARY KEY,
            name TEXT UNIQUE NOT NULL,
            config JSONB NOT NULL,
            enabled BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_game_records_room ON game_records (room_name)`)
	return err
}

// SaveGameRecord 保存终局记录
func (p *PostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	players, err := json.Marshal(record.Players)
	if err != nil {
		return err
	}
	ruleSet, err := json.Marshal(record.RuleSet)
	if err != nil {
		return err
	}

	_, err = p.db.Exec(`
        INSERT INTO game_records (room_name, outcome, players, rule_set, turns, duration)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		record.RoomName, record.Outcome, players, ruleSet, record.Turns, record.Duration)
	return err
}

// ListGameRecords 按房间名倒序列出终局记录
func (p *PostgreSQL) ListGameRecords(roomName string, limit int) ([]models.GameRecord, error) {
	var rows *sql.Rows
	var err error
	if roomName != "" {
		rows, err = p.db.Query(`
            SELECT room_name, outcome, players, rule_set, turns, duration, created_at
            FROM game_records WHERE room_name = $1
            ORDER BY created_at DESC LIMIT $2`, roomName, limit)
	} else {
		rows, err = p.db.Query(`
            SELECT room_name, outcome, players, rule_set, turns, duration, created_at
            FROM game_records ORDER BY created_at DESC LIMIT $1`, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.GameRecord
	for rows.Next() {
		var rec models.GameRecord
		var players, ruleSet []byte
		if err := rows.Scan(&rec.RoomName, &rec.Outcome, &players, &ruleSet,
			&rec.Turns, &rec.Duration, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(players, &rec.Players); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(ruleSet, &rec.RuleSet); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SaveRuleSetPreset 按名字保存或覆盖规则预设
func (p *PostgreSQL) SaveRuleSetPreset(name string, ruleSet game.RuleSet) error {
	config, err := json.Marshal(ruleSet)
	if err != nil {
		return err
	}

	_, err = p.db.Exec(`
        INSERT INTO rule_set_presets (name, config)
        VALUES ($1, $2)
        ON CONFLICT (name) DO UPDATE SET config = $2, updated_at = CURRENT_TIMESTAMP`,
		name, config)
	return err
}

// LoadRuleSetPreset 读取规则预设
func (p *PostgreSQL) LoadRuleSetPreset(name string) (game.RuleSet, error) {
	var config []byte
	err := p.db.QueryRow(`
        SELECT config FROM rule_set_presets WHERE name = $1 AND enabled = TRUE`,
		name).Scan(&config)
	if errors.Is(err, sql.ErrNoRows) {
		return game.RuleSet{}, ErrRecordNotFound
	}
	if err != nil {
		return game.RuleSet{}, err
	}

	var ruleSet game.RuleSet
	if err := json.Unmarshal(config, &ruleSet); err != nil {
		return game.RuleSet{}, err
	}
	return ruleSet, nil
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}

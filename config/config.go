package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Rooms    RoomsConfig    `mapstructure:"rooms"`
	Database DatabaseConfig `mapstructure:"database"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
}

// RoomsConfig 房间容量限制
type RoomsConfig struct {
	MaxRooms             int      `mapstructure:"max_rooms"`
	MaxPlayersPerRoom    int      `mapstructure:"max_players_per_room"`
	MaxSpectatorsPerRoom int      `mapstructure:"max_spectators_per_room"`
	Retained             []string `mapstructure:"retained"` // 清空后保留的房间
}

type DatabaseConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Driver   string         `mapstructure:"driver"` // gorm 或 pq
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.http_address", ":8080")
	viper.SetDefault("server.rpc_address", ":8081")
	viper.SetDefault("server.metrics_address", ":9100")
	viper.SetDefault("rooms.max_rooms", 64)
	viper.SetDefault("rooms.max_players_per_room", 8)
	viper.SetDefault("rooms.max_spectators_per_room", 16)
	viper.SetDefault("rooms.retained", []string{"Lobby"})
	viper.SetDefault("database.enabled", false)
	viper.SetDefault("database.driver", "gorm")

	viper.AutomaticEnv()

	// 没有配置文件时使用默认值
	if err = viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, err
		}
	}

	err = viper.Unmarshal(&config)
	return
}

package logger

import (
	"os"

	"go.uber.org/zap"
)

var Log *zap.SugaredLogger

// Init 初始化全局日志。LOG_DEBUG=1 时输出开发格式和 debug 级别。
func Init() {
	var (
		logger *zap.Logger
		err    error
	)
	if os.Getenv("LOG_DEBUG") == "1" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
	Log = logger.Sugar()
}

// Sync flushes buffered entries; call on shutdown.
func Sync() {
	if Log != nil {
		Log.Sync()
	}
}

package sysutil

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log 和 LogSugar 默认是空 logger，未调用 InitLogger 时（例如单元测试）也可以安全使用
var Log = zap.NewNop()
var LogSugar = Log.Sugar()

// InitLogger 初始化控制台日志。debug 为 true 时输出 Debug 级别
func InitLogger(debug bool) {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder        // 格式化时间输出
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder // 彩色级别

	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(config.EncoderConfig),
		zapcore.AddSync(os.Stdout),
		level,
	)
	SetLogger(zap.New(core, zap.AddCaller()))
}

// SetLogger 替换全局 logger，测试里用 observer 捕获日志
func SetLogger(l *zap.Logger) {
	Log = l
	LogSugar = l.Sugar()
}

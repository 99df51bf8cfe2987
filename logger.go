package main

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger = zap.NewNop().Sugar()

// 构建 zap 日志记录器：
// 日志文件使用 JSON 格式并按大小滚动，verbose 时额外输出到控制台
func buildLogger(cfg Config, console io.Writer) (*zap.Logger, io.Closer) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	var cores []zapcore.Core
	var closer io.Closer = nopCloser{}

	if cfg.Log.Name != "" {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

		file := &lumberjack.Logger{
			Filename:   cfg.Log.Name,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAgeDays,
		}
		closer = file
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), lvl))
	}

	if cfg.Verbose {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(console), lvl))
	}

	if len(cores) == 0 {
		return zap.NewNop(), closer
	}
	return zap.New(zapcore.NewTee(cores...)), closer
}

// 初始化全局日志记录器
func initLogger(cfg Config) io.Closer {
	l, closer := buildLogger(cfg, os.Stdout)
	logger = l.Sugar()
	return closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

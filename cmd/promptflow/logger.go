package main

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/promptflow/config"
)

// initLogger 根据日志配置构建 zap.Logger。
// 输出路径为空或为 "stderr" 时写入 stderr 参数，便于测试捕获。
func initLogger(cfg config.LogConfig, verbose bool, stderr io.Writer) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	var encoder zapcore.Encoder
	if cfg.Format == "json" {
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	sink, err := openSinks(cfg.OutputPaths, stderr)
	if err != nil {
		return nil, err
	}

	var opts []zap.Option
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}
	if cfg.EnableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	return zap.New(zapcore.NewCore(encoder, sink, zap.NewAtomicLevelAt(level)), opts...), nil
}

func openSinks(paths []string, stderr io.Writer) (zapcore.WriteSyncer, error) {
	var files []string
	useStderr := len(paths) == 0
	for _, p := range paths {
		if p == "stderr" {
			useStderr = true
			continue
		}
		files = append(files, p)
	}

	var syncers []zapcore.WriteSyncer
	if useStderr {
		syncers = append(syncers, zapcore.AddSync(stderr))
	}
	if len(files) > 0 {
		ws, _, err := zap.Open(files...)
		if err != nil {
			return nil, err
		}
		syncers = append(syncers, ws)
	}
	return zapcore.NewMultiWriteSyncer(syncers...), nil
}

package observability

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a JSON logger writing to stdout and, when fileName is not
// empty, appending to that file as well. The returned func flushes the
// logger and closes the file.
func NewLogger(level string, fileName string) (*zap.Logger, func() error, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	sinks := []zapcore.WriteSyncer{zapcore.Lock(os.Stdout)}
	var file *os.File
	if fileName != "" {
		file, err = os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		sinks = append(sinks, zapcore.AddSync(file))
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.NewMultiWriteSyncer(sinks...),
		lvl,
	)
	logger := zap.New(core, zap.AddCaller())

	closeFn := func() error {
		_ = logger.Sync()
		if file != nil {
			return file.Close()
		}
		return nil
	}
	return logger, closeFn, nil
}

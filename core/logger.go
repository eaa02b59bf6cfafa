package core

import (
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logMu     sync.Mutex
	logLevel  = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	logOutput zapcore.WriteSyncer = zapcore.Lock(os.Stderr)
	sugar     atomic.Pointer[zap.SugaredLogger]
)

func init() {
	sugar.Store(buildLogger())
}

func buildLogger() *zap.SugaredLogger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	l := zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), logOutput, logLevel))
	zap.ReplaceGlobals(l)
	return l.Sugar()
}

// SetLogLevel accepta silent, error, info o debug. Valors desconeguts queden a info.
func SetLogLevel(levelStr string) {
	lvl := strings.ToLower(strings.TrimSpace(levelStr))
	switch lvl {
	case "silent":
		logLevel.SetLevel(zapcore.FatalLevel)
	case "error":
		logLevel.SetLevel(zapcore.ErrorLevel)
	case "debug":
		logLevel.SetLevel(zapcore.DebugLevel)
	default:
		logLevel.SetLevel(zapcore.InfoLevel)
	}
	sugar.Load().Debugf("[log] nivell configurat: %s", lvl)
}

func Debugf(format string, v ...interface{}) {
	sugar.Load().Debugf(format, v...)
}

func Infof(format string, v ...interface{}) {
	sugar.Load().Infof(format, v...)
}

func Errorf(format string, v ...interface{}) {
	sugar.Load().Errorf(format, v...)
}

// AttachLoggerOutput redirigeix la sortida del logger (i del logger global de zap).
func AttachLoggerOutput(file *os.File) {
	logMu.Lock()
	defer logMu.Unlock()
	logOutput = zapcore.Lock(file)
	sugar.Store(buildLogger())
}

// SyncLogger buida la memòria intermèdia del logger.
func SyncLogger() {
	_ = sugar.Load().Sync()
}

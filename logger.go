package api

import (
	"go.uber.org/zap"
)

// ZapLogger adapts a zap sugared logger to the Logger interface.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger builds a production logger. Pass debug to lower the level and
// switch to the development encoder.
func NewZapLogger(debug bool) (*ZapLogger, error) {
	var (
		base *zap.Logger
		err  error
	)
	if debug {
		base, err = zap.NewDevelopment()
	} else {
		base, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return &ZapLogger{sugar: base.Sugar()}, nil
}

// WrapZap adapts an existing zap logger, e.g. one shared with the host app.
func WrapZap(base *zap.Logger) *ZapLogger {
	return &ZapLogger{sugar: base.Sugar()}
}

func (l *ZapLogger) Debug(format string, args ...any) {
	l.sugar.Debugf(format, args...)
}

func (l *ZapLogger) Info(format string, args ...any) {
	l.sugar.Infof(format, args...)
}

func (l *ZapLogger) Error(format string, args ...any) {
	l.sugar.Errorf(format, args...)
}

// Sync flushes buffered log entries.
func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}

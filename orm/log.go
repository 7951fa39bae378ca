package orm

import (
	"fmt"
	"log/slog"
)

type InfoLogger interface {
	Info(args ...any)
}

type ErrorLogger interface {
	Error(args ...any)
}

var infoLogger InfoLogger
var errorLogger ErrorLogger

func SetInfoLogger(l InfoLogger) {
	infoLogger = l
	infoLogger.Info("set info logger")
}

func SetErrorLogger(l ErrorLogger) {
	errorLogger = l
	errorLogger.Error("set error logger")
}

//route both loggers into slog
func SetSlogLogger(l *slog.Logger) {
	a := slogLogger{l: l}
	infoLogger = a
	errorLogger = a
}

type slogLogger struct {
	l *slog.Logger
}

func (s slogLogger) Info(args ...any) {
	s.l.Info(fmt.Sprint(args...))
}

func (s slogLogger) Error(args ...any) {
	s.l.Error(fmt.Sprint(args...))
}

func logInfo(args ...any) {
	if infoLogger != nil {
		infoLogger.Info(args...)
	}
}

func logError(args ...any) {
	if errorLogger != nil {
		errorLogger.Error(args...)
	}
}

// Package utils holds the session logger and small shared helpers.
package utils

import (
	"fmt"
	"log"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger writes session activity to a rotating log file and mirrors
// user-facing messages to stdout.
type Logger struct {
	logger *log.Logger
	quiet  bool
}

var (
	globalLogger *Logger
	once         sync.Once
)

// GetLogger returns the singleton logger, backed by a rotating file under the
// metadata directory. quiet suppresses the stdout mirror; it can be overridden
// on subsequent calls.
func GetLogger(quiet bool) *Logger {
	once.Do(func() {
		logFile := &lumberjack.Logger{
			Filename:   ".llmpc/session.log",
			MaxSize:    15, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		globalLogger = &Logger{
			logger: log.New(logFile, "", log.LstdFlags),
		}
	})
	globalLogger.quiet = quiet
	return globalLogger
}

// Close flushes and closes the underlying log file.
func (l *Logger) Close() error {
	if logFile, ok := l.logger.Writer().(*lumberjack.Logger); ok {
		return logFile.Close()
	}
	return nil
}

// Log writes a message to the log file only.
func (l *Logger) Log(message string) {
	l.logger.Print(message)
}

// Logf writes a formatted message to the log file only.
func (l *Logger) Logf(format string, v ...interface{}) {
	l.logger.Printf(format, v...)
}

// LogProcessStep records the current step and shows it to the user.
func (l *Logger) LogProcessStep(step string) {
	l.logger.Printf("Process Step: %s", step)
	if !l.quiet {
		fmt.Println(step)
	}
}

// LogWorkspaceOperation records a workspace mutation. These messages go only
// to the log file.
func (l *Logger) LogWorkspaceOperation(operation, details string) {
	l.logger.Printf("Operation: %s, Details: %s", operation, details)
}

// LogError records an error and shows it to the user.
func (l *Logger) LogError(err error) {
	if err == nil {
		return
	}
	l.logger.Printf("Error: %v", err)
	if !l.quiet {
		fmt.Printf("Error: %v\n", err)
	}
}

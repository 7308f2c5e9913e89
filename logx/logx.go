// Package logx configures the process-wide structured logger.
package logx

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the global logger instance, ready to use before New is
// called (mirrors the defaulted-then-reconfigured pattern).
var Logger = New("info", "stdout")

// New builds a logrus.Logger at the given level, writing JSON lines to
// stdout or to the named file.
func New(level, output string) *logrus.Logger {
	logger := logrus.New()

	switch level {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	if output == "" || output == "stdout" {
		logger.SetOutput(os.Stdout)
	} else {
		file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			logger.SetOutput(file)
		} else {
			logger.SetOutput(os.Stdout)
			logger.Warnf("failed to open log file %s, using stdout", output)
		}
	}

	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})

	return logger
}

// SetLevel changes Logger's level at runtime.
func SetLevel(level string) {
	switch level {
	case "debug":
		Logger.SetLevel(logrus.DebugLevel)
	case "info":
		Logger.SetLevel(logrus.InfoLevel)
	case "warn":
		Logger.SetLevel(logrus.WarnLevel)
	case "error":
		Logger.SetLevel(logrus.ErrorLevel)
	}
}

// ErrorKind classifies a failure per spec.md §7, for logging and exit
// code mapping.
type ErrorKind int

const (
	// KindInputMalformed is a missing column or metadata: exit 2.
	KindInputMalformed ErrorKind = iota
	// KindArgumentInvalid is an unknown velocity model, invalid file
	// type, or missing wind file: exit 1.
	KindArgumentInvalid
	// KindEnvironmentDegraded is an SRTM void or out-of-range forecast
	// time: logged and tolerated with a documented fallback.
	KindEnvironmentDegraded
	// KindPropagationDegenerate is a particle ablating to dust: not an
	// error, logged at debug level.
	KindPropagationDegenerate
)

// ExitCode maps an ErrorKind to the process exit code spec.md §7
// assigns it.
func (k ErrorKind) ExitCode() int {
	switch k {
	case KindInputMalformed:
		return 2
	case KindArgumentInvalid:
		return 1
	default:
		return 0
	}
}

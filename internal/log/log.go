package log

import (
	"github.com/csr-ugra/petads-pipeline/internal/util"
	"github.com/google/uuid"
	"github.com/nullseed/logruseq"
	"github.com/sirupsen/logrus"
	"io"
	"os"
)

var entry *logrus.Entry

type Logger = *logrus.Entry

func InitLogger(config *util.Config) {
	level, err := logrus.ParseLevel(config.LogLevel.Value)
	if err != nil {
		level = logrus.DebugLevel
	}

	logger := &logrus.Logger{
		Out:   os.Stdout,
		Hooks: make(logrus.LevelHooks),
		Level: level,
	}

	if config.IsProduction() {
		logger.Formatter = &logrus.JSONFormatter{}
	} else {
		logger.Formatter = &logrus.TextFormatter{
			ForceColors:      true,
			FullTimestamp:    false,
			QuoteEmptyFields: true,
		}
	}

	if config.SeqUrl.Value != "" {
		seqHook := logruseq.NewSeqHook(config.SeqUrl.Value, logruseq.OptionAPIKey(config.SeqToken.Value))
		logger.AddHook(seqHook)
	} else {
		logger.Warn("logger running without seq hook")
	}

	u := uuid.New().String()
	entry = logger.WithField("TraceId", u)

	if err != nil {
		entry.WithField("LogLevel", config.LogLevel.Value).Warn("unknown log level {LogLevel}, falling back to debug")
	}
}

func AddGlobalField(name string, value interface{}) Logger {
	entry = GetLogger().WithField(name, value)
	return entry
}

// GetLogger returns the process-wide entry, or a plain stderr entry when
// InitLogger has not been called (tests, tooling).
func GetLogger() Logger {
	if entry == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}

	return entry
}

func WithJob(job string) Logger {
	return GetLogger().WithField("Job", job)
}

// Discard returns a logger that drops everything.
func Discard() Logger {
	logger := logrus.New()
	logger.Out = io.Discard

	return logrus.NewEntry(logger)
}

package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the process-wide logger. Init reconfigures it in place so packages
// that captured it earlier pick up the new level and output.
var Log = logrus.New()

type Options struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	Verbose    bool
}

func Init(opts Options) {
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})
	Log.SetOutput(writer(opts))
	Log.SetLevel(level(opts))
}

func writer(opts Options) io.Writer {
	if strings.TrimSpace(opts.File) == "" {
		return os.Stderr
	}
	maxSize := opts.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	maxBackups := opts.MaxBackups
	if maxBackups <= 0 {
		maxBackups = 3
	}
	return &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		Compress:   true,
	}
}

func level(opts Options) logrus.Level {
	if opts.Verbose {
		return logrus.DebugLevel
	}
	parsed, err := logrus.ParseLevel(strings.TrimSpace(opts.Level))
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}

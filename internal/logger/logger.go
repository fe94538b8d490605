// Package logger writes dtracker's structured log to a rotating file under
// the config directory. Nothing is printed to the terminal unless debug is
// on, so the TUI keeps the screen to itself.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/dtracker/internal/constants"
)

// Logger is nil until Init runs; the package helpers are no-ops before that.
var Logger *log.Logger

type Config struct {
	Debug     bool
	ConfigDir string
	// Command is attached to every line as "cmd", e.g. "watch" or "tui".
	Command string
	// Loc stamps log lines in the tracker's zone instead of the host's.
	Loc *time.Location
	// MaxSizeMB rotates the file past this size. Zero means 10.
	MaxSizeMB int
}

func logPath(configDir string) string {
	return filepath.Join(configDir, "logs", constants.AppName+".log")
}

func Init(cfg Config) error {
	path := logPath(cfg.ConfigDir)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	size := cfg.MaxSizeMB
	if size <= 0 {
		size = 10
	}
	var out io.Writer = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    size,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
	level := log.InfoLevel
	if cfg.Debug {
		level = log.DebugLevel
		out = io.MultiWriter(os.Stderr, out)
	}

	opts := log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
		Prefix:          constants.AppName,
	}
	if cfg.Loc != nil {
		loc := cfg.Loc
		opts.TimeFunction = func(t time.Time) time.Time { return t.In(loc) }
	}

	l := log.NewWithOptions(out, opts)
	if cfg.Command != "" {
		l = l.With("cmd", cfg.Command)
	}
	Logger = l
	return nil
}

// Component returns a logger that tags its lines with component=name. It
// discards everything when Init has not run.
func Component(name string) *log.Logger {
	if Logger == nil {
		return log.New(io.Discard)
	}
	return Logger.With("component", name)
}

func Debug(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

func Info(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

func Warn(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

func Error(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}

// Fatal logs and exits with status 1, with or without a logger.
func Fatal(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Fatal(msg, keyvals...)
	}
	os.Exit(1)
}

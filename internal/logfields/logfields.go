// Package logfields defines canonical slog attribute keys so that plugin,
// hook and stage logs stay greppable across packages.
package logfields

import (
	"log/slog"
	"time"
)

const (
	KeyRunID      = "run_id"
	KeyPlugin     = "plugin"
	KeyHook       = "hook"
	KeyStage      = "stage"
	KeyAttempt    = "attempt"
	KeyDurationMS = "duration_ms"
	KeyProjectDir = "project_dir"
	KeyError      = "error"
)

func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Plugin(name string) slog.Attr    { return slog.String(KeyPlugin, name) }
func Hook(name string) slog.Attr      { return slog.String(KeyHook, name) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func ProjectDir(dir string) slog.Attr { return slog.String(KeyProjectDir, dir) }

// Duration records d in fractional milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

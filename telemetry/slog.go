// Package telemetry adapts arena hooks to log/slog and Prometheus.
package telemetry

import (
	"log/slog"

	arena "github.com/pavanmanishd/framearena"
)

// Slog returns hooks that log arena activity to logger. Refills and resets
// are logged at Debug; a wait that ends in a timeout is logged at Warn.
// A nil logger means slog.Default().
func Slog(logger *slog.Logger) arena.Telemetry {
	if logger == nil {
		logger = slog.Default()
	}
	return arena.Telemetry{
		OnRefill: func(a *arena.Arena, bytes uintptr) {
			logger.Debug("arena: block refill",
				slog.Uint64("arena", a.ID()),
				slog.Uint64("bytes", uint64(bytes)),
				slog.Uint64("reserved", uint64(a.TotalReserved())))
		},
		OnResetBegin: func(a *arena.Arena) {
			logger.Debug("arena: reset begin", slog.Uint64("arena", a.ID()))
		},
		OnResetEnd: func(a *arena.Arena) {
			logger.Debug("arena: reset end",
				slog.Uint64("arena", a.ID()),
				slog.Uint64("reserved", uint64(a.TotalReserved())))
		},
		OnWaitEnd: func(a *arena.Arena, timedOut bool) {
			if timedOut {
				logger.Warn("arena: epoch wait timed out",
					slog.Uint64("arena", a.ID()),
					slog.Int("active_epochs", a.ActiveEpochs()))
			}
		},
	}
}

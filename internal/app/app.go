// Package app wires the signal-timing core into evaluation use cases.
package app

import (
	"io"
	"log/slog"

	"github.com/chenzhuyu2004/greensplit/internal/domain/signal"
)

type App struct {
	solver signal.Solver
	logger *slog.Logger
}

// New builds an App. A nil solver selects the closed-form allocation strategy.
// New 创建 App；solver 为 nil 时使用闭式解分配策略。
func New(solver signal.Solver, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &App{solver: solver, logger: logger}
}

func (a *App) allocator() *signal.Allocator {
	return signal.NewAllocator(a.solver)
}

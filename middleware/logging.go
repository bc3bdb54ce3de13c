package middleware

import (
	"time"

	"fluxstate/action"
	"fluxstate/store"

	"go.uber.org/zap"
)

// Logging builds a middleware that logs every dispatched action's type and
// outcome, grounded directly on the teacher's LoggingBehavior
// (PreProcess/PostProcess around command execution, Info on success, Error
// on failure) collapsed to the single dispatch chain.
func Logging[S any](logger *zap.Logger) Middleware[S] {
	return func(api API[S]) func(next store.DispatchFunc) store.DispatchFunc {
		return func(next store.DispatchFunc) store.DispatchFunc {
			return func(a action.Action) (action.Action, error) {
				logger.Debug("dispatching action", zap.String("type", a.Type))

				result, err := next(a)
				if err != nil {
					logger.Error("action failed", zap.String("type", a.Type), zap.Error(err))
				} else {
					logger.Debug("action dispatched", zap.String("type", a.Type))
				}
				return result, err
			}
		}
	}
}

// SlowActionThreshold builds a middleware that warns when a dispatch takes
// longer than threshold to settle, grounded on the teacher's
// PerformanceBehavior (commandThreshold/queryThreshold, "Slow command
// detected" warning).
func SlowActionThreshold[S any](logger *zap.Logger, threshold time.Duration) Middleware[S] {
	return func(api API[S]) func(next store.DispatchFunc) store.DispatchFunc {
		return func(next store.DispatchFunc) store.DispatchFunc {
			return func(a action.Action) (action.Action, error) {
				start := time.Now()
				result, err := next(a)
				if elapsed := time.Since(start); elapsed > threshold {
					logger.Warn("slow action",
						zap.String("type", a.Type),
						zap.Duration("elapsed", elapsed),
						zap.Duration("threshold", threshold))
				}
				return result, err
			}
		}
	}
}

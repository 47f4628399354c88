package scope

import (
	"context"
	"errors"

	"github.com/aristath/visualeffect/internal/effect"
	"github.com/aristath/visualeffect/internal/log"
)

// Guard ties s to the lifecycle of task: once the task reaches a terminal
// state the finalizers run in the background, and when the task is reset the
// scope is reset too. The returned function stops guarding.
func Guard(ctx context.Context, s *Scope, task effect.Node) (stop func()) {
	return task.Subscribe(func() {
		// Taken before the task is read so a reset landing afterwards aborts the release.
		gen := s.generation()
		switch snap := task.Snapshot(); {
		case snap.Type == effect.StateIdle:
			if s.State() != StateIdle {
				s.Reset()
			}
		case snap.Type.Terminal():
			switch s.State() {
			case StateReleasing, StateReleased:
				return
			}
			go func() {
				err := s.runFinalizers(ctx, gen)
				if err != nil && !errors.Is(err, ErrAborted) && !errors.Is(err, ErrReleasing) && ctx.Err() == nil {
					s.logger.WithValues(log.Kv{"err": err}).Errorf("could not release scope")
				}
			}()
		}
	})
}

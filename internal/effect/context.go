package effect

import (
	"context"
)

// registrar accepts child registrations for one execution.
type registrar interface {
	Node
	register(execID uint64, child Node) bool
	deregister(child Node)
}

// link attributes a child to a parent execution.
type link struct {
	parent registrar
	execID uint64
}

type parentKey struct{}

func withParent(ctx context.Context, l link) context.Context {
	return context.WithValue(ctx, parentKey{}, l)
}

func parentFrom(ctx context.Context) (link, bool) {
	l, ok := ctx.Value(parentKey{}).(link)
	return l, ok
}

// Current returns the task whose computation is executing with ctx.
func Current(ctx context.Context) (Node, bool) {
	l, ok := parentFrom(ctx)
	if !ok {
		return nil, false
	}
	return l.parent, true
}

// Detached returns a context that keeps ctx's values and cancellation but no
// longer attributes new tasks to the current task.
func Detached(ctx context.Context) context.Context {
	return context.WithValue(ctx, parentKey{}, nil)
}

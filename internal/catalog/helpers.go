package catalog

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/aristath/visualeffect/internal/effect"
)

// Temperature is a reading in degrees Fahrenheit.
type Temperature int

func (t Temperature) String() string { return fmt.Sprintf("%d°F", int(t)) }

// Temperatures renders a list of readings.
type Temperatures []Temperature

func (ts Temperatures) String() string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}

const (
	emojiAchilles = "🏃‍♂️"
	emojiTortoise = "🐢"
	emojiDog      = "🐶"
	emojiCat      = "🐱"
	emojiMouse    = "🐭"
	emojiRabbit   = "🐰"
)

// weather simulates a slow weather API.
func (e Env) weather() effect.Effect[Temperature] {
	return func(ctx context.Context) (Temperature, error) {
		if err := e.sleepBetween(ctx, 500*time.Millisecond, 900*time.Millisecond); err != nil {
			return 0, err
		}
		return Temperature(60 + rand.IntN(30)), nil
	}
}

// loadEmoji simulates fetching emoji from a CDN.
func (e Env) loadEmoji(emoji string) effect.Effect[string] {
	return func(ctx context.Context) (string, error) {
		if err := e.sleepBetween(ctx, 500*time.Millisecond, 900*time.Millisecond); err != nil {
			return "", err
		}
		return emoji, nil
	}
}

// notifySelf attaches message to the task running ctx.
func notifySelf(ctx context.Context, message string, d time.Duration) {
	if node, ok := effect.Current(ctx); ok {
		node.Notify(message, d)
	}
}

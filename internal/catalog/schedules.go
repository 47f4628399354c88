package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aristath/visualeffect/internal/effect"
)

var phoneNotifications = []string{
	"📞 Unknown Caller",
	"📧 Cellphone Bill",
	"🔔 0 New Messages!",
	"💬 We have to talk...",
	"📅 Dinner Cancelled",
	"📰 War!",
	"😴 Nothing...",
	"😴 Still nothing",
	"🕳️ Doomscrolling",
	"🪫 Battery Low",
	"💔 Swiped Left",
	"🏠 Rent Overdue",
	"💸 Account Overdrawn",
	"🚕 Driver Cancelled",
	"🚫 Friend Request Denied",
	"📅 Meeting Moved to 4am",
	"🌧️ Rain All Week",
	"📉 Stocks Down 20%",
	"🥀 Plant Died",
}

func buildRepeatSpaced(_ context.Context, env Env, _ string) *Example {
	var checked atomic.Int64

	phone := task(env, "phone", func(ctx context.Context) (string, error) {
		n := checked.Add(1) - 1
		if n >= int64(len(phoneNotifications)) {
			return "", errors.New("☠️ Phone Died!")
		}
		if err := env.sleep(ctx, 500*time.Millisecond); err != nil {
			return "", err
		}
		return phoneNotifications[n], nil
	})
	checking := timedTask(env, "checking", effect.Ensuring(
		effect.Repeat(rerun(phone), effect.Spaced(env.d(2*time.Second))),
		func() { checked.Store(0) },
	))

	return newExample(`phone := checkNotifications()

checking := effect.Repeat(phone, effect.Spaced(2*time.Second))`, checking, phone)
}

func buildRepeatWhileOutput(_ context.Context, env Env, _ string) *Example {
	var eaten atomic.Int64

	hotdog := task(env, "hotdog", func(ctx context.Context) (string, error) {
		n := eaten.Add(1)
		if err := env.sleepBetween(ctx, 400*time.Millisecond, 900*time.Millisecond); err != nil {
			return "", err
		}
		return strings.Repeat("🌭", int(n)), nil
	})
	schedule := effect.WhileElapsed(effect.Spaced(env.d(400*time.Millisecond)), env.d(10*time.Second))
	contest := timedTask(env, "contest", effect.Ensuring(
		effect.Map(effect.Repeat(rerun(hotdog), schedule), func(string) string {
			return fmt.Sprintf("🤢 %d Hotdogs!", eaten.Load())
		}),
		func() { eaten.Store(0) },
	))

	return newExample(`hotdog := eatHotdog()

contest := effect.Repeat(hotdog,
	effect.WhileElapsed(effect.Spaced(400*time.Millisecond), 10*time.Second),
)`, contest, hotdog)
}

var snoozeMessages = []string{
	"😴 Snooze #1",
	"😪 Snooze #2",
	"🥱 Snooze #3",
	"😵 Snooze #4",
	"💀 Asleep Forever",
}

func buildRetryRecurs(_ context.Context, env Env, _ string) *Example {
	var snoozes, scenario atomic.Int64

	wakeUp := task(env, "wakeUp", func(ctx context.Context) (string, error) {
		if err := env.sleep(ctx, 500*time.Millisecond); err != nil {
			return "", err
		}
		n := snoozes.Add(1)
		msg := snoozeMessages[min(int(n-1), len(snoozeMessages)-1)]

		// Scenarios cycle: never wake up, wake after snooze #2, wake after snooze #4.
		switch scenario.Load() % 3 {
		case 1:
			if n >= 3 {
				return "👀 I'M UP!", nil
			}
		case 2:
			if n >= 5 {
				return "👀 I'M UP!", nil
			}
		}
		return "", errors.New(msg)
	})
	snooze := effect.Intersect(effect.Spaced(env.d(2*time.Second)), effect.Recurs(4))
	result := timedTask(env, "result", effect.Ensuring(
		effect.Retry(wakeUp.Effect(), snooze),
		func() {
			snoozes.Store(0)
			scenario.Add(1)
		},
	))

	return newExample(`wakeUp := attemptToWakeUp()

snooze := effect.Intersect(effect.Spaced(2*time.Second), effect.Recurs(4))

result := effect.Retry(wakeUp, snooze)`, result, wakeUp)
}

var parkingAttempts = []string{"😤 Too Close!", "😡 Too Far!", "🤬 Neutral!", "😑 Focus."}

func buildRetryExponential(_ context.Context, env Env, _ string) *Example {
	var attempts atomic.Int64

	park := task(env, "park", func(ctx context.Context) (string, error) {
		if err := env.sleepBetween(ctx, 400*time.Millisecond, 800*time.Millisecond); err != nil {
			return "", err
		}
		n := attempts.Add(1)
		if n > int64(len(parkingAttempts)) {
			return "🚗 Parked!", nil
		}
		return "", errors.New(parkingAttempts[n-1])
	})
	result := timedTask(env, "result", effect.Ensuring(
		effect.Retry(park.Effect(), effect.Exponential(env.d(700*time.Millisecond))),
		func() { attempts.Store(0) },
	))

	return newExample(`park := attemptParallelPark()

result := effect.Retry(park, effect.Exponential(700*time.Millisecond))`, result, park)
}

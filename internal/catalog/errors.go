package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"

	"github.com/aristath/visualeffect/internal/effect"
)

func buildAllShortCircuit(_ context.Context, env Env, _ string) *Example {
	var cycle atomic.Int64

	bankCall := func(failAt int64, failure, value string) effect.Effect[string] {
		return func(ctx context.Context) (string, error) {
			if err := env.sleepBetween(ctx, 400*time.Millisecond, 800*time.Millisecond); err != nil {
				return "", err
			}
			if cycle.Load()%4 == failAt {
				return "", errors.New(failure)
			}
			return value, nil
		}
	}
	balance := task(env, "balance", bankCall(3, "Account Locked!", "$58"))
	credit := task(env, "credit", bankCall(0, "Too Low!", "Approved"))
	payment := task(env, "payment", bankCall(1, "Gateway Error!", "Ka-ching!"))

	all := effect.All(effect.Sequential, balance.Effect(), credit.Effect(), payment.Effect())
	result := task(env, "result", effect.Ensuring(
		effect.Map(all, func([]string) string { return "Pizza Acquired!" }),
		func() { cycle.Store((cycle.Load() + 1) % 4) },
	))

	return newExample(`balance := readAccountBalance()
credit := checkCreditScore()
payment := chargeCreditCard()

result := effect.All(effect.Sequential, balance, credit, payment)`,
		result, balance, credit, payment)
}

func buildOrElse(_ context.Context, env Env, _ string) *Example {
	var attempts atomic.Int64

	shoot := task(env, "shoot", func(ctx context.Context) (string, error) {
		if err := env.sleepBetween(ctx, 300*time.Millisecond, 600*time.Millisecond); err != nil {
			return "", err
		}
		// Cycle: fail, succeed, fail.
		if (attempts.Add(1)-1)%3 != 1 {
			return "", errors.New("Out of Ammo!")
		}
		return "🔫", nil
	})
	question := task(env, "question", func(ctx context.Context) (string, error) {
		if err := env.sleepBetween(ctx, 400*time.Millisecond, 700*time.Millisecond); err != nil {
			return "", err
		}
		if (attempts.Load()-1)%3 == 2 {
			return "", errors.New("Brain Fart!")
		}
		return "💬", nil
	})
	result := task(env, "result", effect.OrElse(shoot.Effect(), question.Effect()))

	return newExample(`shoot := shootFirst()
question := askQuestions()

result := effect.OrElse(shoot, question)`, result, shoot, question)
}

var spoiledPizza = []string{"TOO SLOW!", "SPOILED!", "STARVED TO DEATH!", "IT'S COLD!"}

func buildTimeout(_ context.Context, env Env, _ string) *Example {
	var attempts atomic.Int64

	pizza := task(env, "pizza", func(ctx context.Context) (string, error) {
		// Every other delivery is late.
		d := env.between(400*time.Millisecond, 700*time.Millisecond)
		if (attempts.Add(1)-1)%2 == 0 {
			d = env.between(1500*time.Millisecond, 2000*time.Millisecond)
		}
		if err := effect.Sleep(ctx, d); err != nil {
			return "", err
		}
		return "🍕", nil
	})
	result := timedTask(env, "result", effect.OrElseFail(
		effect.Timeout(pizza.Effect(), env.d(time.Second)),
		func(err error) error {
			if !errors.Is(err, effect.ErrTimeout) {
				return err
			}
			msg := spoiledPizza[int(attempts.Load())%len(spoiledPizza)]
			return fmt.Errorf("%s: %w", msg, err)
		},
	))

	return newExample(`pizza := orderDelivery()

result := effect.Timeout(pizza, time.Second)`, result, pizza)
}

var cardErrors = []string{
	"Card Read Error!",
	"Too Fast!",
	"Too Slow!",
	"Overdraft Fee!",
	"Insufficient Funds!",
}

func buildEventually(_ context.Context, env Env, _ string) *Example {
	var retries atomic.Int64

	swipeCard := task(env, "swipeCard", func(ctx context.Context) (string, error) {
		if err := env.sleepBetween(ctx, 200*time.Millisecond, 400*time.Millisecond); err != nil {
			return "", err
		}
		// Two to five failures before the card reads.
		if retries.Load() < int64(2+rand.IntN(4)) {
			retries.Add(1)
			return "", errors.New(cardErrors[rand.IntN(len(cardErrors))])
		}
		retries.Store(0)
		return "💰", nil
	})
	result := task(env, "result", effect.Retry(swipeCard.Effect(), effect.Spaced(env.d(time.Second))))

	ex := newExample(`swipeCard := swipeCard()

result := effect.Retry(swipeCard, effect.Spaced(time.Second))`, result, swipeCard)
	ex.onReset = append(ex.onReset, func() { retries.Store(0) })
	return ex
}

var lickEmojis = []string{"👅", "😋", "👄", "😛"}

func buildPartition(_ context.Context, env Env, _ string) *Example {
	lick := func(ctx context.Context) (string, error) {
		if err := env.sleepBetween(ctx, 500*time.Millisecond, time.Second); err != nil {
			return "", err
		}
		if rand.IntN(2) == 0 {
			return lickEmojis[rand.IntN(len(lickEmojis))], nil
		}
		return "", errors.New("DEMONIC!")
	}

	var (
		inputs []effect.Node
		effs   []effect.Effect[string]
	)
	for _, name := range []string{"iceCream", "battery", "popsicle", "toad", "lollipop"} {
		t := task(env, name, lick)
		inputs = append(inputs, t)
		effs = append(effs, t.Effect())
	}
	result := task(env, "result", effect.Map(effect.Partition(effect.Sequential, effs...),
		func(p effect.Partitioned[string]) string {
			return fmt.Sprintf("👹 %d 😇 %d", len(p.Failures), len(p.Successes))
		}))

	return newExample(`result := effect.Map(
	effect.Partition(effect.Sequential, iceCream, battery, popsicle, toad, lollipop),
	func(p effect.Partitioned[string]) string {
		return fmt.Sprintf("👹 %d 😇 %d", len(p.Failures), len(p.Successes))
	},
)`, result, inputs...)
}

var passwords = []string{
	"password123",
	"12345678",
	"SuperSecret2024!",
	"p@ssw0rd",
	"admin",
	"correcthorsebatterystaple",
	"ThisIsWayTooLongForAnyReasonablePasswordManagerToHandle2024!",
	"abc",
	"P@ssw0rd123!",
	"hunter2",
	"qwerty",
	"letmein",
	"iloveyou",
	"monkey123",
	"dragon",
}

var vibeFailures = map[string]string{
	"password123":               "Basic!",
	"12345678":                  "Boring!",
	"SuperSecret2024!":          "Try Hard!",
	"p@ssw0rd":                  "Cringe!",
	"admin":                     "Sus!",
	"correcthorsebatterystaple": "Too XKCD!",
	"ThisIsWayTooLongForAnyReasonablePasswordManagerToHandle2024!": "Extra!",
	"abc":          "Lazy!",
	"P@ssw0rd123!": "Obvious!",
	"hunter2":      "Meme!",
	"qwerty":       "NO, DVORAK!",
	"letmein":      "Desperate!",
	"iloveyou":     "Cheesy!",
	"monkey123":    "Random!",
	"dragon":       "Fantasy!",
}

var (
	lowerRe   = regexp.MustCompile(`[a-z]`)
	upperRe   = regexp.MustCompile(`[A-Z]`)
	digitRe   = regexp.MustCompile(`[0-9]`)
	specialRe = regexp.MustCompile(`[^a-zA-Z0-9]`)
	digitsRe  = regexp.MustCompile(`^\d+$`)
)

// password is the candidate checked by the validate example. A new one is
// picked on every reset.
type password struct {
	mu    sync.Mutex
	value string
}

func (p *password) get() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

func (p *password) regenerate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value = passwords[rand.IntN(len(passwords))]
}

func checkLength(pw string) error {
	switch n := len(pw); {
	case n < 8:
		return errors.New("Too Short!")
	case n > 20:
		return errors.New("Too Long!")
	case n == 8 && rand.Float64() < 0.3:
		return errors.New("Too Weak!")
	}
	return nil
}

func checkComplexity(pw string) error {
	hasDigits := digitRe.MatchString(pw)
	hasSpecial := specialRe.MatchString(pw)
	score := 0
	for _, ok := range []bool{lowerRe.MatchString(pw), upperRe.MatchString(pw), hasDigits, hasSpecial} {
		if ok {
			score++
		}
	}

	switch {
	case score < 2:
		return errors.New("Too Simple!")
	case strings.ToLower(pw) == pw && !hasDigits && !hasSpecial:
		return errors.New("Weak!")
	case digitsRe.MatchString(pw):
		return errors.New("Only #s!")
	case score == 2 && rand.Float64() < 0.3:
		return errors.New("Meh!")
	}
	return nil
}

func checkVibes(pw string) error {
	if rand.Float64() > 0.4 {
		return nil
	}
	if msg, ok := vibeFailures[pw]; ok {
		return errors.New(msg)
	}
	return errors.New("Off!")
}

func buildValidate(_ context.Context, env Env, _ string) *Example {
	pw := &password{}
	pw.regenerate()

	check := func(lo, hi time.Duration, fn func(string) error) effect.Effect[string] {
		return func(ctx context.Context) (string, error) {
			if err := env.sleepBetween(ctx, lo, hi); err != nil {
				return "", err
			}
			if err := fn(pw.get()); err != nil {
				return "", err
			}
			return "👌", nil
		}
	}
	length := task(env, "length", check(600*time.Millisecond, 900*time.Millisecond, checkLength))
	complexity := task(env, "complexity", check(400*time.Millisecond, 600*time.Millisecond, checkComplexity))
	vibes := task(env, "vibes", check(350*time.Millisecond, 550*time.Millisecond, checkVibes))

	validate := effect.Validate(effect.Sequential, length.Effect(), complexity.Effect(), vibes.Effect())
	result := task(env, "result", effect.Map(validate, func([]string) string { return "Password Accepted!" }))

	ex := newExample(`length := checkLength(password)
complexity := checkComplexity(password)
vibes := checkVibes(password)

result := effect.Validate(effect.Sequential, length, complexity, vibes)`,
		result, length, complexity, vibes)
	ex.onReset = append(ex.onReset, pw.regenerate)
	return ex
}

func breakerIcon(s gobreaker.State) string {
	switch s {
	case gobreaker.StateOpen:
		return "🔴 open"
	case gobreaker.StateHalfOpen:
		return "🟡 half-open"
	default:
		return "🟢 closed"
	}
}

func buildCircuitBreaker(_ context.Context, env Env, _ string) *Example {
	cb := env.Breakers.Get("upstream")
	// Runs alternate between an outage and a healthy upstream.
	var outage atomic.Bool
	outage.Store(true)

	request := task(env, "request", func(ctx context.Context) (string, error) {
		if err := env.sleepBetween(ctx, 300*time.Millisecond, 500*time.Millisecond); err != nil {
			return "", err
		}
		if outage.Load() {
			return "", errors.New("503 Unavailable!")
		}
		return "200 OK", nil
	})
	guarded := func(ctx context.Context) (string, error) {
		v, err := effect.WithBreaker(cb, request.Effect())(ctx)
		notifySelf(ctx, breakerIcon(cb.State()), 0)
		return v, err
	}
	result := timedTask(env, "result", effect.Ensuring(
		effect.Retry(guarded, effect.Intersect(effect.Spaced(env.d(500*time.Millisecond)), effect.Recurs(3))),
		func() { outage.Store(!outage.Load()) },
	))

	return newExample(`breaker := effect.NewBreaker(effect.BreakerSettings{
	Name:        "upstream",
	MaxFailures: 2,
	Cooldown:    2 * time.Second,
})

request := callUpstream()

result := effect.Retry(
	effect.WithBreaker(breaker, request),
	effect.Intersect(effect.Spaced(500*time.Millisecond), effect.Recurs(3)),
)`, result, request)
}

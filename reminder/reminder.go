// Package reminder picks encouraging messages for a user's daily progress.
package reminder

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Bucket names a message pool.
type Bucket string

const (
	NoProgress  Bucket = "noProgress"
	Started     Bucket = "started"
	Progressing Bucket = "progressing"
	Halfway     Bucket = "halfway"
	AlmostThere Bucket = "almostThere"
	Complete    Bucket = "complete"
	Recovery    Bucket = "recovery"
)

// recoveryAfterDays is the inactivity, in whole days, past which the recovery
// pool replaces the percentage pool.
const recoveryAfterDays = 2

var pools = map[Bucket][]string{
	NoProgress: {
		"A fresh day is waiting. One small task is all it takes to begin.",
		"Nothing checked yet, and that is fine. Start with the easiest one.",
		"Your routine is ready when you are.",
		"Even a single step counts. Pick one task and go.",
	},
	Started: {
		"You have started. That is the hardest part.",
		"Nice first steps. Keep the momentum going.",
		"Good start! A few more and you will feel the difference.",
		"The ball is rolling. Keep it moving.",
	},
	Progressing: {
		"You are making real progress today.",
		"Steady work. You are building something that lasts.",
		"Keep going, the middle of the day is where habits are made.",
		"Nice pace. Halfway is within reach.",
	},
	Halfway: {
		"More than halfway there. Well done.",
		"The finish line is in sight.",
		"You have done the bulk of it. Keep it up.",
		"Great consistency today.",
	},
	AlmostThere: {
		"Almost there! Just a little more.",
		"So close to a perfect day.",
		"One last push and today is complete.",
		"You are nearly done. Finish strong.",
	},
	Complete: {
		"Perfect day! Every task is done.",
		"All done. Take a moment to enjoy it.",
		"100% complete. You showed up for yourself today.",
		"Routine finished. See you tomorrow.",
	},
	Recovery: {
		"Welcome back. Today is a great day to restart.",
		"Good to see you again. Let's pick up where you left off.",
		"Breaks happen. What matters is coming back.",
		"You are back, and that is what counts. Start small.",
	},
}

var greetings = map[string]string{
	"morning":   "Good morning",
	"afternoon": "Good afternoon",
	"evening":   "Good evening",
	"night":     "Still up",
}

// Source is the randomness used to pick from a pool.
type Source interface {
	Intn(n int) int
}

type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (s *lockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Intn(n)
}

// Context carries optional facts that change which pool is used.
type Context struct {
	DaysSinceActive int
	Streak          int
}

// Engine selects messages. It holds no state apart from its random source.
type Engine struct {
	src Source
}

// NewEngine returns an Engine drawing from src, or from a time-seeded source
// when src is nil. A *rand.Rand passed here must not be shared across goroutines.
func NewEngine(src Source) *Engine {
	if src == nil {
		src = &lockedSource{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
	}
	return &Engine{src: src}
}

// NewSeeded returns an Engine with a deterministic, goroutine-safe source.
func NewSeeded(seed int64) *Engine {
	return &Engine{src: &lockedSource{r: rand.New(rand.NewSource(seed))}}
}

// BucketFor maps a completion percentage to its pool. Values outside 0..100
// are clamped.
func BucketFor(percent int) Bucket {
	switch {
	case percent <= 0:
		return NoProgress
	case percent <= 25:
		return Started
	case percent <= 50:
		return Progressing
	case percent <= 75:
		return Halfway
	case percent < 100:
		return AlmostThere
	default:
		return Complete
	}
}

// Pool returns a copy of the messages in b.
func Pool(b Bucket) []string {
	return append([]string(nil), pools[b]...)
}

func (e *Engine) pick(b Bucket) string {
	p := pools[b]
	return p[e.src.Intn(len(p))]
}

// GentleMessage returns a message for percent, or a recovery message when the
// user has been away for more than two days.
func (e *Engine) GentleMessage(percent int, ctx Context) string {
	if ctx.DaysSinceActive > recoveryAfterDays {
		return e.pick(Recovery)
	}
	return e.pick(BucketFor(percent))
}

// TimeOfDay names the part of the day for an hour 0-23.
func TimeOfDay(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 17:
		return "afternoon"
	case hour >= 17 && hour < 22:
		return "evening"
	default:
		return "night"
	}
}

// ReminderMessage prefixes the progress message with a greeting for hour.
func (e *Engine) ReminderMessage(hour, percent int) string {
	return fmt.Sprintf("%s! %s", greetings[TimeOfDay(hour)], e.pick(BucketFor(percent)))
}

// StreakMessage describes a streak length.
func StreakMessage(streak int) string {
	switch {
	case streak <= 0:
		return "Check in today to start a new streak."
	case streak == 1:
		return "Day one. Every streak starts here."
	case streak < 7:
		return fmt.Sprintf("%d days in a row. Keep it going!", streak)
	case streak < 30:
		return fmt.Sprintf("%d-day streak. This is becoming a habit.", streak)
	case streak < 100:
		return fmt.Sprintf("%d days strong. Remarkable consistency.", streak)
	default:
		return fmt.Sprintf("%d days! You are unstoppable.", streak)
	}
}

package app

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/robfig/cron/v3"

	"gumtree-monitor/internal/config"
)

// Scheduler decides how long to wait before the next cycle.
type Scheduler interface {
	Next(now time.Time) time.Duration
}

// RandomInterval picks a whole number of seconds uniformly in [Min, Max].
type RandomInterval struct {
	Min time.Duration
	Max time.Duration
	rng *rand.Rand
}

func NewRandomInterval(minDelay, maxDelay time.Duration, rng *rand.Rand) *RandomInterval {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &RandomInterval{Min: minDelay, Max: maxDelay, rng: rng}
}

func (r *RandomInterval) Next(time.Time) time.Duration {
	minS := int64(r.Min / time.Second)
	maxS := int64(r.Max / time.Second)
	if maxS <= minS {
		return r.Min
	}
	return time.Duration(minS+r.rng.Int64N(maxS-minS+1)) * time.Second
}

// CronSchedule waits until the next activation of a standard cron expression.
type CronSchedule struct {
	schedule cron.Schedule
}

func NewCronSchedule(expr string) (*CronSchedule, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return &CronSchedule{schedule: schedule}, nil
}

func (c *CronSchedule) Next(now time.Time) time.Duration {
	return c.schedule.Next(now).Sub(now)
}

// NewScheduler builds the scheduler for scheduler.mode. Mode "oneshot"
// returns nil, which makes the monitor stop after a single cycle.
func NewScheduler(cfg *config.Config) (Scheduler, error) {
	switch cfg.Scheduler.Mode {
	case "random":
		return NewRandomInterval(cfg.GetMinInterval(), cfg.GetMaxInterval(), nil), nil
	case "cron":
		c, err := NewCronSchedule(cfg.Scheduler.CronExpr)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "oneshot":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown scheduler mode: %s", cfg.Scheduler.Mode)
	}
}

package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"LPSentinel/internal/logger"
	"LPSentinel/internal/monitor"
	"LPSentinel/internal/notifier"
)

const schedLog = logger.Component("scheduler")

// Scheduler drives monitor cycles on a fixed interval. Cron ticks and chat
// commands share one mutex so cycles never overlap.
type Scheduler struct {
	Cron     *cron.Cron
	Monitor  *monitor.Monitor
	Interval time.Duration
	Ctx      context.Context

	mu sync.Mutex
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, mon *monitor.Monitor, interval time.Duration) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{}))),
		Monitor:  mon,
		Interval: interval,
		Ctx:      ctx,
	}
}

// Register adds the scan job.
func (s *Scheduler) Register() error {
	if s.Interval <= 0 {
		return fmt.Errorf("register scan task: interval must be positive, got %s", s.Interval)
	}
	if _, err := s.Cron.AddFunc("@every "+s.Interval.String(), s.RunNow); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	schedLog.L().Info().Dur("interval", s.Interval).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running cycle.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	schedLog.L().Info().Msg("scheduler stopped")
}

// RunNow executes one cycle immediately, serialized with scheduled ones.
func (s *Scheduler) RunNow() {
	s.mu.Lock()
	defer s.mu.Unlock()

	rep, err := s.Monitor.RunCycle(s.Ctx)
	if err != nil {
		schedLog.L().Error().Err(err).Msg("cycle failed")
		return
	}
	schedLog.L().Info().
		Str("cycle", rep.ID).
		Int("universe", rep.UniverseSize).
		Bool("posted", rep.Posted).
		Int("alerts", len(rep.Alerts)).
		Bool("reselected", rep.Reselected).
		Msg("cycle complete")
}

// ForceNow flags a forced post and runs a cycle.
func (s *Scheduler) ForceNow() {
	s.Monitor.Force()
	s.RunNow()
}

// HandleCommand processes a chat command and returns a reply. An empty
// reply means the cycle itself posted the result.
func (s *Scheduler) HandleCommand(command string) string {
	p := s.Monitor.Profile()
	switch strings.ToLower(strings.TrimSpace(command)) {
	case "/force":
		s.ForceNow()
		return ""
	case "/status":
		return notifier.FormatStatus(p.Label, s.Monitor.State(), p.Cadence.String(), time.Now())
	case "/picks":
		picks, err := s.Monitor.Preview(s.Ctx)
		if err != nil {
			return notifier.FormatError(p.Label, "preview", err)
		}
		if len(picks) == 0 {
			return notifier.FormatNoPicks(p.Label, false, time.Now())
		}
		return notifier.FormatPicks(p.Label+" PREVIEW", p.Mode, p.Chains, picks, time.Now())
	default:
		return "Commands:\n• /force - post a fresh selection now\n• /status - tracked pools\n• /picks - preview without posting"
	}
}

// cronLogger routes cron's own messages through zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	schedLog.L().Debug().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	schedLog.L().Error().Err(err).Fields(keysAndValues).Msg(msg)
}

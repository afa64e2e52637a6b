package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"LPSentinel/internal/collector"
	"LPSentinel/internal/logger"
	"LPSentinel/internal/metrics"
	"LPSentinel/internal/model"
	"LPSentinel/internal/notifier"
	"LPSentinel/internal/recorder"
	"LPSentinel/internal/state"
	"LPSentinel/internal/strategy"
)

const monitorLog = logger.Component("monitor")

// Error kinds attached to cycle failures. Use errors.Is to classify.
var (
	ErrFetch    = errors.New("fetch")
	ErrDelivery = errors.New("delivery")
)

// Phase is the monitor's position in its cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSelecting
	PhaseMonitoring
	PhaseDegraded
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseSelecting:
		return "SELECTING"
	case PhaseMonitoring:
		return "MONITORING"
	case PhaseDegraded:
		return "DEGRADED"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Clock abstracts time so cycles can be simulated.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Deps are the collaborators a Monitor drives. Oracle, Recorder and
// Metrics may be nil.
type Deps struct {
	Source   collector.PoolSource
	Notifier notifier.Notifier
	Store    state.Store
	Clock    Clock
	Oracle   collector.PriceOracle
	Recorder recorder.Recorder
	Metrics  *metrics.Metrics
}

// CycleReport describes what one RunCycle did.
type CycleReport struct {
	ID           string
	StartedAt    time.Time
	UniverseSize int
	Posted       bool
	Trigger      model.TriggerType
	Picks        []model.Pick
	Alerts       []model.Degradation
	Reselected   bool
	Dropped      []string
}

// Monitor owns the active recommendation set for one profile and advances
// it one cycle at a time. Cycles must not overlap; the scheduler
// serializes them.
type Monitor struct {
	profile  model.Profile
	cadence  time.Duration
	selector *strategy.Selector
	deps     Deps

	mu    sync.RWMutex
	state *model.MonitorState
	phase Phase
	force bool
}

// New builds a Monitor. Source, Notifier and Store are required.
func New(profile model.Profile, deps Deps) (*Monitor, error) {
	if deps.Source == nil || deps.Notifier == nil || deps.Store == nil {
		return nil, fmt.Errorf("monitor: source, notifier and store are required")
	}
	cadence, err := profile.Cadence.Duration()
	if err != nil {
		return nil, fmt.Errorf("monitor: %w", err)
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.Recorder == nil {
		deps.Recorder = recorder.NewNoopRecorder()
	}
	return &Monitor{
		profile:  profile,
		cadence:  cadence,
		selector: strategy.NewSelector(profile),
		deps:     deps,
		state:    &model.MonitorState{},
	}, nil
}

// Load restores persisted state. A load failure starts fresh.
func (m *Monitor) Load(_ context.Context) {
	st, err := m.deps.Store.Load()
	if err != nil {
		monitorLog.L().Warn().Err(err).Msg("load state failed, starting fresh")
		st = &model.MonitorState{}
	}
	m.mu.Lock()
	m.state = st
	m.mu.Unlock()
	m.deps.Metrics.SetActive(len(st.Current))

	ev := monitorLog.L().Info().Int("tracked", len(st.Current))
	if st.LastPostAt != nil {
		ev = ev.Time("last_post", *st.LastPostAt)
	}
	ev.Msg("state loaded")
}

// Force makes the next cycle post a selection regardless of cadence.
func (m *Monitor) Force() {
	m.mu.Lock()
	m.force = true
	m.mu.Unlock()
	monitorLog.L().Info().Msg("forced post requested")
}

func (m *Monitor) Phase() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase
}

// State returns a copy of the current state.
func (m *Monitor) State() *model.MonitorState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Clone()
}

func (m *Monitor) Profile() model.Profile { return m.profile }

// Preview runs a selection against a fresh fetch without notifying or
// persisting anything.
func (m *Monitor) Preview(ctx context.Context) ([]model.Pick, error) {
	pools, err := m.deps.Source.FetchPools(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return m.selector.Select(pools), nil
}

// RunCycle performs one fetch-evaluate-act iteration. A returned error has
// already been reported through the notifier; the prior known-good state
// is kept for whatever stage failed.
func (m *Monitor) RunCycle(ctx context.Context) (rep *CycleReport, err error) {
	now := m.deps.Clock.Now()
	rep = &CycleReport{ID: uuid.NewString(), StartedAt: now}
	log := monitorLog.L().With().Str("cycle", rep.ID).Logger()
	started := time.Now()

	defer func() {
		m.setPhase(PhaseIdle)
		m.deps.Metrics.ObserveCycle(time.Since(started))
		evt := &recorder.CycleEvent{
			CycleID:      rep.ID,
			At:           now,
			UniverseSize: rep.UniverseSize,
			Posted:       rep.Posted,
			Degraded:     len(rep.Alerts),
			Reselected:   rep.Reselected,
			Tracked:      len(m.State().Current),
		}
		if err != nil {
			evt.Error = err.Error()
		}
		if rerr := m.deps.Recorder.RecordCycle(evt); rerr != nil {
			log.Warn().Err(rerr).Msg("record cycle failed")
		}
	}()

	pools, ferr := m.deps.Source.FetchPools(ctx)
	if ferr != nil {
		return rep, m.fail(ctx, "universe", ErrFetch, ferr)
	}
	rep.UniverseSize = len(pools)
	m.deps.Metrics.SetUniverse(len(pools))

	index := make(map[string]model.Pool, len(pools))
	for _, p := range pools {
		if p.ID != "" {
			index[p.ID] = p
		}
	}

	m.mu.RLock()
	work := m.state.Clone()
	force := m.force
	m.mu.RUnlock()

	if m.due(work.LastPostAt, force, now) {
		m.setPhase(PhaseSelecting)
		trigger := model.TriggerScheduled
		if force {
			trigger = model.TriggerForced
		}
		picks := m.selector.Select(pools)

		var text string
		if len(picks) == 0 {
			text = notifier.FormatNoPicks(m.profile.Label, false, now)
		} else {
			text = notifier.FormatPicks(m.title(), m.profile.Mode, m.profile.Chains, picks, now)
		}
		if serr := m.deps.Notifier.Send(ctx, text); serr != nil {
			return rep, m.fail(ctx, "post", ErrDelivery, serr)
		}

		work.LastPostAt = &now
		if len(picks) > 0 {
			work.Current = m.snapshots(picks, now)
			rep.Posted = true
			rep.Trigger = trigger
			rep.Picks = picks
			m.recordSelection(rep.ID, now, trigger, picks)
		} else {
			// The empty notice counts as the post: the timestamp is kept and
			// force clears, so the next attempt waits a full cadence.
			log.Warn().Msg("no pools matched, keeping prior set")
		}

		m.mu.Lock()
		m.force = false
		m.mu.Unlock()
		m.commit(work)
		log.Info().Str("trigger", string(trigger)).Int("picks", len(picks)).Msg("selection posted")
	}

	m.setPhase(PhaseMonitoring)
	if len(work.Current) == 0 {
		m.commit(work)
		return rep, nil
	}

	degraded, refreshed, dropped := m.evaluate(ctx, work.Current, index, now)
	rep.Dropped = dropped
	for _, id := range dropped {
		log.Warn().Str("pool", id).Msg("tracked pool no longer listed, dropping")
	}

	if len(degraded) == 0 {
		work.Current = refreshed
		m.commit(work)
		return rep, nil
	}

	m.setPhase(PhaseDegraded)
	rep.Alerts = degraded
	m.deps.Metrics.Degraded(len(degraded))
	for _, d := range degraded {
		log.Warn().Str("pool", d.Snapshot.Pool).Str("symbol", d.Snapshot.Symbol).
			Strs("reasons", d.Reasons).Msg("pool degraded")
	}
	if serr := m.deps.Notifier.Send(ctx, notifier.FormatAlert(m.profile.Label, degraded, now)); serr != nil {
		return rep, m.fail(ctx, "alert", ErrDelivery, serr)
	}
	if rerr := m.deps.Recorder.RecordAlert(&recorder.AlertEvent{CycleID: rep.ID, At: now, Degraded: degraded}); rerr != nil {
		log.Warn().Err(rerr).Msg("record alert failed")
	}

	m.setPhase(PhaseSelecting)
	picks := m.selector.Select(pools)
	if len(picks) == 0 {
		if serr := m.deps.Notifier.Send(ctx, notifier.FormatNoPicks(m.profile.Label, true, now)); serr != nil {
			log.Warn().Err(serr).Msg("no-picks notice not delivered")
		}
		work.Current = refreshed
		m.setPhase(PhaseMonitoring)
		m.commit(work)
		return rep, nil
	}

	text := notifier.FormatPicks(m.title()+" (auto-refresh)", m.profile.Mode, m.profile.Chains, picks, now)
	if serr := m.deps.Notifier.Send(ctx, text); serr != nil {
		return rep, m.fail(ctx, "refresh", ErrDelivery, serr)
	}
	work.Current = m.snapshots(picks, now)
	rep.Reselected = true
	m.recordSelection(rep.ID, now, model.TriggerRefresh, picks)
	log.Info().Int("picks", len(picks)).Msg("auto-refreshed selection posted")

	m.setPhase(PhaseMonitoring)
	m.commit(work)
	return rep, nil
}

// due reports whether a scheduled post is owed. Force always posts;
// AutoPost only gates the cadence timer.
func (m *Monitor) due(last *time.Time, force bool, now time.Time) bool {
	if force {
		return true
	}
	if !m.profile.AutoPost {
		return false
	}
	if last == nil {
		return true
	}
	return now.Sub(*last) >= m.cadence
}

// evaluate re-checks every tracked snapshot against the current universe.
// Refreshed holds the current-value snapshots of every pool still listed.
func (m *Monitor) evaluate(ctx context.Context, tracked []model.PoolSnapshot, index map[string]model.Pool, now time.Time) (degraded []model.Degradation, refreshed []model.PoolSnapshot, dropped []string) {
	for _, prev := range tracked {
		p, ok := index[prev.Pool]
		if !ok {
			dropped = append(dropped, prev.Pool)
			continue
		}
		cur := strategy.Snapshot(p, m.profile.Haircut, now)
		refreshed = append(refreshed, cur)

		reasons := strategy.Check(prev, cur, m.profile.Tank)
		if r := m.divergence(ctx, p.Symbol); r != "" {
			reasons = append(reasons, r)
		}
		if len(reasons) > 0 {
			degraded = append(degraded, model.Degradation{Snapshot: cur, Reasons: reasons})
		}
	}
	return degraded, refreshed, dropped
}

// divergence returns a reason when the pair's legs moved apart. Unknown
// prices skip the signal.
func (m *Monitor) divergence(ctx context.Context, symbol string) string {
	if !m.profile.Divergence.Enabled || m.deps.Oracle == nil {
		return ""
	}
	a, b, ok := strategy.ExtractPair(symbol)
	if !ok {
		return ""
	}
	ca, okA := m.deps.Oracle.Change24h(ctx, a)
	if !okA {
		return ""
	}
	cb, okB := m.deps.Oracle.Change24h(ctx, b)
	if !okB {
		return ""
	}
	sev, div := strategy.Divergence(ca, cb, m.profile.Divergence)
	return strategy.DivergenceReason(sev, div)
}

func (m *Monitor) snapshots(picks []model.Pick, now time.Time) []model.PoolSnapshot {
	out := make([]model.PoolSnapshot, 0, len(picks))
	for _, p := range picks {
		out = append(out, strategy.Snapshot(p.Pool, m.profile.Haircut, now))
	}
	return out
}

func (m *Monitor) recordSelection(cycleID string, at time.Time, trigger model.TriggerType, picks []model.Pick) {
	m.deps.Metrics.Posted(string(trigger))
	if err := m.deps.Recorder.RecordSelection(&recorder.SelectionEvent{
		CycleID: cycleID, At: at, Trigger: trigger, Picks: picks,
	}); err != nil {
		monitorLog.L().Warn().Err(err).Msg("record selection failed")
	}
}

// commit adopts work as the current state and persists it. Save failure
// is only a warning.
func (m *Monitor) commit(work *model.MonitorState) {
	work.UpdatedAt = m.deps.Clock.Now()
	m.mu.Lock()
	m.state = work.Clone()
	m.mu.Unlock()
	m.deps.Metrics.SetActive(len(work.Current))

	if err := m.deps.Store.Save(work); err != nil {
		m.deps.Metrics.CycleError("save")
		monitorLog.L().Warn().Err(err).Msg("save state failed")
	}
}

// fail reports a cycle error through the notifier. A failure to deliver
// the notice is swallowed.
func (m *Monitor) fail(ctx context.Context, stage string, kind, cause error) error {
	m.deps.Metrics.CycleError(stage)
	monitorLog.L().Error().Err(cause).Str("stage", stage).Msg("cycle failed")

	notice := notifier.FormatError(m.profile.Label, kind.Error(), cause)
	if err := m.deps.Notifier.Send(ctx, notice); err != nil {
		monitorLog.L().Debug().Err(err).Msg("error notice not delivered")
	}
	return fmt.Errorf("%s %w: %w", stage, kind, cause)
}

func (m *Monitor) setPhase(p Phase) {
	m.mu.Lock()
	prev := m.phase
	m.phase = p
	m.mu.Unlock()
	if prev != p {
		monitorLog.L().Debug().Str("from", prev.String()).Str("to", p.String()).Msg("phase")
	}
}

func (m *Monitor) title() string {
	if m.profile.Label == "" {
		return "LP PICKS"
	}
	return m.profile.Label + " LP PICKS"
}

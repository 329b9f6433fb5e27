// Package telemetry keeps the bounded log of rejected candidates and the
// per-reaction acceptance statistics.  Every mutation is a whole-document
// load-modify-save under one mutex, so concurrent requests never interleave
// partial writes.
package telemetry

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/rxnguard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rxnguard/internal/intelligence/plausibility"
	"github.com/turtacn/rxnguard/pkg/errors"
)

// Publisher receives every failure entry after it has been persisted.
type Publisher interface {
	PublishFailure(ctx context.Context, entry FailureEntry) error
}

// Observer is told about every persistence operation and its outcome.
type Observer func(op string, err error)

// Operation names passed to an Observer.
const (
	OpAppendFailure = "append_failure"
	OpUpdateStats   = "update_stats"
	OpClear         = "clear"
	OpRemove        = "remove_failures"
)

// Sink is the telemetry facade.  It is safe for concurrent use.
type Sink struct {
	store       DocumentStore
	logger      logging.Logger
	maxFailures int
	now         func() time.Time
	newID       func() string
	publisher   Publisher
	observe     Observer

	mu sync.Mutex
}

// Option configures a Sink.
type Option func(*Sink)

// WithMaxFailures bounds the failure log.  Non-positive values keep the default.
func WithMaxFailures(n int) Option {
	return func(s *Sink) {
		if n > 0 {
			s.maxFailures = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Sink) {
		if now != nil {
			s.now = now
		}
	}
}

// WithPublisher forwards persisted failures to p.
func WithPublisher(p Publisher) Option {
	return func(s *Sink) { s.publisher = p }
}

// WithObserver registers a callback for persistence outcomes.
func WithObserver(o Observer) Option {
	return func(s *Sink) { s.observe = o }
}

// NewSink wraps a DocumentStore.
func NewSink(store DocumentStore, log logging.Logger, opts ...Option) *Sink {
	if log == nil {
		log = logging.NewNopLogger()
	}
	s := &Sink{
		store:       store,
		logger:      log,
		maxFailures: DefaultMaxFailures,
		now:         time.Now,
		newID:       func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend names the underlying store.
func (s *Sink) Backend() string { return s.store.Name() }

// MaxFailures is the failure log capacity.
func (s *Sink) MaxFailures() int { return s.maxFailures }

// Ping checks the underlying store.
func (s *Sink) Ping(ctx context.Context) error { return s.store.Ping(ctx) }

// Close releases the underlying store.
func (s *Sink) Close() error { return s.store.Close() }

// AppendFailure stamps entry with an id and timestamp when missing, appends
// it and evicts the oldest entries beyond capacity.
func (s *Sink) AppendFailure(ctx context.Context, entry FailureEntry) (FailureEntry, error) {
	s.mu.Lock()
	if entry.ID == "" {
		entry.ID = s.newID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now().UTC()
	}
	if entry.ValidationType == "" {
		entry.ValidationType = ValidationTypeEmbedding
	}
	err := s.appendLocked(ctx, entry)
	s.mu.Unlock()

	s.record(OpAppendFailure, err)
	if err != nil {
		return entry, err
	}
	if s.publisher != nil {
		if perr := s.publisher.PublishFailure(ctx, entry); perr != nil {
			s.logger.Warn("Failure publish failed", logging.String("id", entry.ID), logging.Err(perr))
		}
	}
	return entry, nil
}

func (s *Sink) appendLocked(ctx context.Context, entry FailureEntry) error {
	failures, err := s.loadFailures(ctx)
	if err != nil {
		return err
	}
	failures = append(failures, entry)
	if over := len(failures) - s.maxFailures; over > 0 {
		failures = failures[over:]
	}
	return s.saveDoc(ctx, DocFailures, failures)
}

// UpdateStats folds one invocation into the stats for label.  An empty label
// is recorded as "unknown".
func (s *Sink) UpdateStats(ctx context.Context, label string, total, accepted, rejected int) error {
	if label == "" {
		label = UnknownReaction
	}
	s.mu.Lock()
	err := s.updateStatsLocked(ctx, label, total, accepted, rejected)
	s.mu.Unlock()
	s.record(OpUpdateStats, err)
	return err
}

func (s *Sink) updateStatsLocked(ctx context.Context, label string, total, accepted, rejected int) error {
	stats, err := s.loadStats(ctx)
	if err != nil {
		return err
	}
	st := stats[label]
	st.TotalRuns++
	st.TotalProducts += int64(total)
	st.ValidProducts += int64(accepted)
	st.FailedProducts += int64(rejected)
	now := s.now().UTC()
	st.LastRun = &now
	st.recomputeRate()
	stats[label] = st
	return s.saveDoc(ctx, DocStats, stats)
}

// FailedReactions returns the newest entries, at most limit, oldest first.
func (s *Sink) FailedReactions(ctx context.Context, limit int) ([]FailureEntry, error) {
	if limit <= 0 {
		limit = DefaultFailureQueryLimit
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	failures, err := s.loadFailures(ctx)
	if err != nil {
		return nil, err
	}
	if s.backfillIDs(failures) {
		// Entries written without ids get stable ones so they can be removed later.
		if err := s.saveDoc(ctx, DocFailures, failures); err != nil {
			s.logger.Warn("Failure id backfill not persisted", logging.Err(err))
		}
	}
	if len(failures) > limit {
		failures = failures[len(failures)-limit:]
	}
	return failures, nil
}

// Stats returns the per-reaction statistics.
func (s *Sink) Stats(ctx context.Context) (map[string]TemplateStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadStats(ctx)
}

// Summarize builds the stats read model.
func (s *Sink) Summarize(ctx context.Context) (Summary, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return Summary{}, err
	}
	reasons := emptyReasons()
	for _, f := range snap.Failures {
		reasons[string(plausibility.Classify(f.Reason))]++
	}
	return Summary{
		TotalFailedLogged: len(snap.Failures),
		FailureReasons:    reasons,
		ReactionStats:     snap.Stats,
		Backend:           s.store.Name(),
	}, nil
}

// Snapshot reads both documents under the lock.
func (s *Sink) Snapshot(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	failures, err := s.loadFailures(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	stats, err := s.loadStats(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Failures: failures, Stats: stats}, nil
}

// Restore replaces both documents with snap.  Entries without an id get one
// and every success rate is recomputed from its counters.  The two documents
// are saved one after the other, so a failed second save leaves the new
// failure log next to the old stats.
func (s *Sink) Restore(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	failures := snap.Failures
	if over := len(failures) - s.maxFailures; over > 0 {
		failures = failures[over:]
	}
	failures = append(make([]FailureEntry, 0, len(failures)), failures...)
	s.backfillIDs(failures)
	stats := make(map[string]TemplateStats, len(snap.Stats))
	for name, st := range snap.Stats {
		st.recomputeRate()
		stats[name] = st
	}
	if err := s.saveDoc(ctx, DocFailures, failures); err != nil {
		return err
	}
	return s.saveDoc(ctx, DocStats, stats)
}

// Clear empties both documents.
func (s *Sink) Clear(ctx context.Context) error {
	err := s.Restore(ctx, Snapshot{})
	s.record(OpClear, err)
	if err == nil {
		s.logger.Info("Telemetry cleared", logging.String("backend", s.store.Name()))
	}
	return err
}

// RemoveFailures drops the entries with the given ids and returns how many
// were removed.  Empty ids match nothing.
func (s *Sink) RemoveFailures(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			drop[id] = struct{}{}
		}
	}
	if len(drop) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	failures, err := s.loadFailures(ctx)
	if err != nil {
		return 0, err
	}
	kept := failures[:0]
	for _, f := range failures {
		if _, ok := drop[f.ID]; !ok {
			kept = append(kept, f)
		}
	}
	removed := len(failures) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	err = s.saveDoc(ctx, DocFailures, kept)
	s.record(OpRemove, err)
	return removed, err
}

// ReactionNames lists labels with recorded stats, sorted.
func (s *Sink) ReactionNames(ctx context.Context) ([]string, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(stats))
	for n := range stats {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// ---------------------------------------------------------------------------
// Document codec
// ---------------------------------------------------------------------------

func (s *Sink) loadFailures(ctx context.Context) ([]FailureEntry, error) {
	raw, err := s.store.Load(ctx, DocFailures)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTelemetryLoad, "load failure log")
	}
	failures := []FailureEntry{}
	if len(raw) == 0 {
		return failures, nil
	}
	if err := json.Unmarshal(raw, &failures); err != nil {
		// A corrupt document is treated as empty so that logging keeps working.
		s.logger.Warn("Failure log unreadable, starting fresh", logging.Err(err))
		return []FailureEntry{}, nil
	}
	return failures, nil
}

// backfillIDs assigns ids to entries that have none and reports whether any
// changed.
func (s *Sink) backfillIDs(failures []FailureEntry) bool {
	changed := false
	for i := range failures {
		if failures[i].ID == "" {
			failures[i].ID = s.newID()
			changed = true
		}
	}
	return changed
}

func (s *Sink) loadStats(ctx context.Context) (map[string]TemplateStats, error) {
	raw, err := s.store.Load(ctx, DocStats)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTelemetryLoad, "load reaction stats")
	}
	stats := map[string]TemplateStats{}
	if len(raw) == 0 {
		return stats, nil
	}
	if err := json.Unmarshal(raw, &stats); err != nil {
		s.logger.Warn("Reaction stats unreadable, starting fresh", logging.Err(err))
		return map[string]TemplateStats{}, nil
	}
	if stats == nil {
		stats = map[string]TemplateStats{}
	}
	return stats, nil
}

func (s *Sink) saveDoc(ctx context.Context, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeTelemetryPersist, "encode "+name)
	}
	if err := s.store.Save(ctx, name, data); err != nil {
		return errors.Wrap(err, errors.ErrCodeTelemetryPersist, "persist "+name)
	}
	return nil
}

func (s *Sink) record(op string, err error) {
	if err != nil {
		s.logger.Error("Telemetry write failed", logging.String("op", op), logging.Err(err))
	}
	if s.observe != nil {
		s.observe(op, err)
	}
}

//Personal.AI order the ending

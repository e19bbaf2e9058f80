package tokenlist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/status-im/wallet-token-lists/events"
	"github.com/status-im/wallet-token-lists/kvstore"
	"github.com/status-im/wallet-token-lists/logging"
	"github.com/status-im/wallet-token-lists/metrics"
)

// Names of the persisted blobs
const (
	CacheKeyDocument = "token-list"
	CacheKeyETag     = "token-list-etag"
)

// ErrStopped is returned by Update once the store was stopped
var ErrStopped = errors.New("token list store stopped")

// Outcome of an Update call
type Outcome string

const (
	OutcomeUpdated  Outcome = "updated"
	OutcomeNoChange Outcome = "no_change"
	OutcomeFailed   Outcome = "failed"
)

// Source of an adopted document
type Source string

const (
	SourceCache  Source = "cache"
	SourceRemote Source = "remote"
)

//go:generate mockgen -destination=mocks/updater.go . Updater

// Updater refreshes the token list on demand
type Updater interface {
	Update(ctx context.Context) (Outcome, error)
}

// updateJob is the refresh shared by every Update call made while it runs.
// outcome and err are written before done is closed.
type updateJob struct {
	done    chan struct{}
	outcome Outcome
	err     error
}

// Store owns the accepted token list document and the indices derived from it.
// Reads are lock free; every change goes through setAcceptedDocument.
type Store struct {
	fetcher       Fetcher
	kv            kvstore.Store
	metricsWriter *metrics.MetricsWriter
	logger        *zap.Logger

	snapshot atomic.Pointer[Indices]
	adoptMu  sync.Mutex

	jobMu   sync.Mutex
	job     *updateJob
	stopped bool

	subscriptionManager *events.SubscriptionManager[*Indices]

	startOnce   sync.Once
	cacheLoaded chan struct{}
	wg          sync.WaitGroup
}

// NewStore creates a store serving baseline until a newer document is adopted
func NewStore(baseline *Document, fetcher Fetcher, kv kvstore.Store, metricsWriter *metrics.MetricsWriter, logger *zap.Logger) *Store {
	if metricsWriter == nil {
		metricsWriter = metrics.NewMetricsWriter(metrics.ServiceTokenList)
	}

	s := &Store{
		fetcher:             fetcher,
		kv:                  kv,
		metricsWriter:       metricsWriter,
		logger:              logging.OrNop(logger),
		subscriptionManager: events.NewSubscriptionManager[*Indices](),
		cacheLoaded:         make(chan struct{}),
	}

	indices := BuildIndices(baseline)
	s.snapshot.Store(indices)
	s.recordSizes(indices)

	return s
}

// Start loads the persisted document in the background. It never touches the network.
func (s *Store) Start(ctx context.Context) error {
	s.startOnce.Do(func() {
		s.jobMu.Lock()
		defer s.jobMu.Unlock()
		if s.stopped {
			close(s.cacheLoaded)
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer close(s.cacheLoaded)
			s.loadCache(ctx)
		}()
	})
	return nil
}

// Stop waits for the cache load and a running refresh to finish.
// Later Update calls fail with ErrStopped.
func (s *Store) Stop() {
	s.jobMu.Lock()
	s.stopped = true
	s.jobMu.Unlock()

	s.wg.Wait()
}

// CacheLoaded is closed once the startup cache load has finished
func (s *Store) CacheLoaded() <-chan struct{} {
	return s.cacheLoaded
}

// Snapshot returns the current indices
func (s *Store) Snapshot() *Indices {
	return s.snapshot.Load()
}

// Document returns the accepted document
func (s *Store) Document() *Document {
	return s.snapshot.Load().Document
}

// FullList returns every token keyed by lowercased address. The map must not be modified.
func (s *Store) FullList() map[string]Token {
	return s.snapshot.Load().Full
}

// Curated returns curated tokens keyed by lowercased address. The map must not be modified.
func (s *Store) Curated() map[string]Token {
	return s.snapshot.Load().Curated
}

// SafeNames returns lowercased curated names and symbols. The map must not be modified.
func (s *Store) SafeNames() map[string]string {
	return s.snapshot.Load().SafeNames
}

// SubscribeOnUpdate delivers the new indices after every adopted document
func (s *Store) SubscribeOnUpdate() events.ISubscription[*Indices] {
	return s.subscriptionManager.Subscribe()
}

// Update refreshes the document from the remote source. Concurrent calls share
// one refresh. The refresh is not cancelled with ctx; the caller only stops waiting.
// The error is non-nil only together with OutcomeFailed.
func (s *Store) Update(ctx context.Context) (Outcome, error) {
	s.jobMu.Lock()
	if s.stopped {
		s.jobMu.Unlock()
		return OutcomeFailed, ErrStopped
	}
	job := s.job
	if job == nil {
		job = &updateJob{done: make(chan struct{})}
		s.job = job
		s.wg.Add(1)
		go s.runJob(context.WithoutCancel(ctx), job)
	} else {
		s.metricsWriter.RecordUpdateJoin()
	}
	s.jobMu.Unlock()

	select {
	case <-job.done:
		return job.outcome, job.err
	case <-ctx.Done():
		return OutcomeFailed, ctx.Err()
	}
}

func (s *Store) runJob(ctx context.Context, job *updateJob) {
	defer s.wg.Done()
	defer func() {
		s.jobMu.Lock()
		s.job = nil
		s.jobMu.Unlock()
		close(job.done)
	}()

	stopTracking := s.metricsWriter.TrackDataFetchCycle()
	job.outcome, job.err = s.refresh(ctx)
	stopTracking()

	s.metricsWriter.RecordUpdateOutcome(string(job.outcome))
	if job.err != nil {
		s.logger.Error("Token list update failed", zap.Error(job.err))
		return
	}
	s.logger.Info("Token list update finished", zap.String("outcome", string(job.outcome)))
}

func (s *Store) refresh(ctx context.Context) (Outcome, error) {
	etag := s.readETag(ctx)

	result, err := s.fetcher.Fetch(ctx, etag)
	if err != nil {
		return OutcomeFailed, err
	}
	if result == nil {
		return OutcomeFailed, errors.New("fetcher returned no result")
	}
	if result.NotModified {
		return OutcomeNoChange, nil
	}
	if err := result.Document.validate(); err != nil {
		return OutcomeFailed, fmt.Errorf("invalid token list: %w", err)
	}

	current := s.snapshot.Load().Timestamp()
	if !IsNewer(result.Document.Timestamp, current) {
		s.logger.Debug("Fetched token list is not newer",
			zap.Timep("fetched", result.Document.Timestamp),
			zap.Timep("accepted", current),
		)
		return OutcomeNoChange, nil
	}

	adopted := s.setAcceptedDocument(result.Document, SourceRemote, func() {
		s.persist(ctx, result.Document, result.ETag)
	})
	if !adopted {
		return OutcomeNoChange, nil
	}
	return OutcomeUpdated, nil
}

// setAcceptedDocument adopts doc if it is strictly newer than the accepted
// document at the time of the call. beforeSwap runs only when doc is adopted,
// ahead of the swap. Subscribers are notified before the next adoption can start.
func (s *Store) setAcceptedDocument(doc *Document, source Source, beforeSwap func()) bool {
	if !IsNewer(doc.Timestamp, s.snapshot.Load().Timestamp()) {
		return false
	}
	indices := BuildIndices(doc)

	s.adoptMu.Lock()
	defer s.adoptMu.Unlock()

	previous := s.snapshot.Load()
	if !IsNewer(doc.Timestamp, previous.Timestamp()) {
		return false
	}

	if beforeSwap != nil {
		beforeSwap()
	}
	s.snapshot.Store(indices)
	s.subscriptionManager.Emit(context.Background(), indices)

	s.metricsWriter.RecordAdoption(string(source), derefTime(doc.Timestamp),
		len(indices.Full), len(indices.Curated), len(indices.SafeNames))
	s.logger.Info("Token list adopted",
		zap.String("source", string(source)),
		zap.Timep("timestamp", doc.Timestamp),
		zap.Timep("previous", previous.Timestamp()),
		zap.Int("tokens", len(indices.Full)),
		zap.Int("curated", len(indices.Curated)),
	)
	return true
}

func (s *Store) loadCache(ctx context.Context) {
	var doc Document
	err := s.kv.ReadJSON(ctx, CacheKeyDocument, &doc)
	if err == nil {
		err = doc.validate()
		if err != nil {
			err = fmt.Errorf("%w: %v", kvstore.ErrCorrupt, err)
		}
	}

	switch {
	case err == nil:
		if !s.setAcceptedDocument(&doc, SourceCache, nil) {
			s.logger.Debug("Cached token list is not newer", zap.Timep("cached", doc.Timestamp))
		}
	case errors.Is(err, kvstore.ErrNotFound):
		s.logger.Debug("No cached token list")
	case errors.Is(err, kvstore.ErrCorrupt):
		s.metricsWriter.RecordCacheAnomaly("corrupt")
		s.logger.Warn("Ignoring corrupt cached token list", zap.Error(err))
	default:
		s.metricsWriter.RecordCacheAnomaly("read_error")
		s.logger.Warn("Failed to read cached token list", zap.Error(err))
	}
}

// readETag returns the persisted validation token, empty when unusable
func (s *Store) readETag(ctx context.Context) string {
	var etag string
	err := s.kv.ReadJSON(ctx, CacheKeyETag, &etag)
	switch {
	case err == nil:
		return etag
	case errors.Is(err, kvstore.ErrNotFound):
	case errors.Is(err, kvstore.ErrCorrupt):
		s.metricsWriter.RecordCacheAnomaly("corrupt")
		s.logger.Warn("Ignoring corrupt cached etag", zap.Error(err))
	default:
		s.metricsWriter.RecordCacheAnomaly("read_error")
		s.logger.Warn("Failed to read cached etag", zap.Error(err))
	}
	return ""
}

// persist writes the document, then its validation token. The token is only
// written after the document so it never describes content we do not have.
func (s *Store) persist(ctx context.Context, doc *Document, etag string) {
	if err := s.kv.WriteJSON(ctx, CacheKeyDocument, doc); err != nil {
		s.metricsWriter.RecordPersistError()
		s.logger.Warn("Failed to persist token list", zap.Error(err))
		return
	}
	if err := s.kv.WriteJSON(ctx, CacheKeyETag, etag); err != nil {
		s.metricsWriter.RecordPersistError()
		s.logger.Warn("Failed to persist token list etag", zap.Error(err))
	}
}

func (s *Store) recordSizes(indices *Indices) {
	s.metricsWriter.RecordIndexSizes(derefTime(indices.Timestamp()),
		len(indices.Full), len(indices.Curated), len(indices.SafeNames))
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

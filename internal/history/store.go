// Package history implements the persisted transaction history log: an
// append-mostly, capped collection of records with filtered queries and
// derived statistics.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tippingchain/txhistory/internal/domain/model"
	"github.com/tippingchain/txhistory/internal/metrics"
	"github.com/tippingchain/txhistory/internal/storage"
	"github.com/tippingchain/txhistory/internal/tracing"
)

// DefaultStorageKey is the shared slot all consumers use unless a caller
// opts into a distinct key (e.g. per-wallet scoping).
const DefaultStorageKey = "tippingchain_transaction_history"

// maxRecords caps the collection by insertion order: when exceeded, the
// oldest-inserted records are silently dropped.
const maxRecords = 1000

// Store owns the persisted record collection at one storage key. Mutations
// are serialized; queries read a materialized snapshot and may run
// concurrently with anything.
type Store struct {
	backend storage.Backend
	key     string
	logger  *slog.Logger
	tracer  trace.Tracer

	mu    sync.Mutex
	nowFn func() time.Time
	idFn  func() string
}

// Option configures a Store.
type Option func(*Store)

// WithStorageKey scopes the store to a non-default slot.
func WithStorageKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithClock overrides the creation-timestamp source, used by tests.
func WithClock(nowFn func() time.Time) Option {
	return func(s *Store) { s.nowFn = nowFn }
}

// WithIDGenerator overrides record ID assignment, used by tests.
func WithIDGenerator(idFn func() string) Option {
	return func(s *Store) { s.idFn = idFn }
}

// New creates a history store over the given backend.
func New(backend storage.Backend, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		key:     DefaultStorageKey,
		logger:  logger.With("component", "history"),
		tracer:  tracing.Tracer("history"),
		nowFn:   time.Now,
		idFn:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StorageKey returns the slot this store persists under.
func (s *Store) StorageKey() string {
	return s.key
}

// Add appends a new record and returns its assigned ID. The store assigns
// ID and CreatedAt and normalizes Status to pending regardless of the
// input; builders always hand over pending records anyway. When the cap is
// exceeded the oldest-inserted records are dropped before persisting.
func (s *Store) Add(ctx context.Context, input model.RecordInput) (id string, err error) {
	ctx, span := s.tracer.Start(ctx, "history.Add")
	defer span.End()
	defer s.observe("add", s.nowFn(), &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return "", err
	}

	rec := input.Record()
	rec.ID = s.idFn()
	rec.CreatedAt = s.nowFn().UnixMilli()
	rec.Status = model.TxStatusPending

	records = append(records, rec)
	if trimmed := len(records) - maxRecords; trimmed > 0 {
		records = records[trimmed:]
		metrics.StoreTrimmedTotal.WithLabelValues(s.key).Add(float64(trimmed))
		s.logger.Debug("history cap exceeded, dropped oldest records", "dropped", trimmed)
	}

	if err := s.persist(ctx, records); err != nil {
		return "", err
	}

	span.SetAttributes(attribute.String("record.id", rec.ID), attribute.String("record.kind", rec.Kind.String()))
	s.logger.Info("history record added", "id", rec.ID, "kind", rec.Kind, "source_chain_id", rec.SourceChainID)
	return rec.ID, nil
}

// Update merges patch into the record with the given ID, keeping its
// creation-order position. A patch that would move a record out of a
// terminal status fails with ErrInvalidTransition. Error fields are held
// only while the merged status is failed.
func (s *Store) Update(ctx context.Context, id string, patch model.Patch) (err error) {
	ctx, span := s.tracer.Start(ctx, "history.Update", trace.WithAttributes(attribute.String("record.id", id)))
	defer span.End()
	defer s.observe("update", s.nowFn(), &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return err
	}

	idx := -1
	for i := range records {
		if records[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("update record %q: %w", id, ErrNotFound)
	}

	rec := &records[idx]
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return fmt.Errorf("update record %q: status %q: %w", id, *patch.Status, ErrInvalidTransition)
		}
		if rec.Status.Terminal() && *patch.Status != rec.Status {
			return fmt.Errorf("update record %q: %s -> %s: %w", id, rec.Status, *patch.Status, ErrInvalidTransition)
		}
	}

	applyPatch(rec, patch)

	if err := s.persist(ctx, records); err != nil {
		return err
	}

	s.logger.Info("history record updated", "id", id, "status", rec.Status)
	return nil
}

// Query returns the records matching filter, most recent first. Ties on
// CreatedAt are broken by reverse insertion order. The result is a
// materialized copy, safe to mutate or discard.
func (s *Store) Query(ctx context.Context, filter *model.Filter) (out []model.TransactionRecord, err error) {
	ctx, span := s.tracer.Start(ctx, "history.Query")
	defer span.End()
	defer s.observe("query", s.nowFn(), &err)

	records, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	// Walk newest-inserted-first so the stable sort below leaves
	// equal-timestamp records in last-added-first order.
	matched := make([]model.TransactionRecord, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		if filter.Matches(&records[i]) {
			matched = append(matched, records[i].Clone())
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt > matched[j].CreatedAt
	})

	span.SetAttributes(attribute.Int("records.matched", len(matched)))
	return matched, nil
}

// Stats aggregates over exactly the records Query would return for the
// same filter.
func (s *Store) Stats(ctx context.Context, filter *model.Filter) (model.Stats, error) {
	records, err := s.Query(ctx, filter)
	if err != nil {
		return model.Stats{}, err
	}
	return s.aggregate(records), nil
}

// Clear deletes every record at the store's key. Clearing an empty store
// succeeds.
func (s *Store) Clear(ctx context.Context) (err error) {
	ctx, span := s.tracer.Start(ctx, "history.Clear")
	defer span.End()
	defer s.observe("clear", s.nowFn(), &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	metrics.StoreRecords.WithLabelValues(s.key).Set(0)
	s.logger.Info("history cleared", "storage_key", s.key)
	return nil
}

func (s *Store) load(ctx context.Context) ([]model.TransactionRecord, error) {
	raw, ok, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if !ok || len(raw) == 0 {
		return nil, nil
	}
	var records []model.TransactionRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: decode history: %v", storage.ErrStorage, err)
	}
	return records, nil
}

func (s *Store) persist(ctx context.Context, records []model.TransactionRecord) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("%w: encode history: %v", storage.ErrStorage, err)
	}
	if err := s.backend.Set(ctx, s.key, raw); err != nil {
		return fmt.Errorf("persist history: %w", err)
	}
	metrics.StoreRecords.WithLabelValues(s.key).Set(float64(len(records)))
	return nil
}

func (s *Store) observe(op string, start time.Time, err *error) {
	outcome := "ok"
	if *err != nil {
		outcome = "error"
	}
	metrics.StoreOpsTotal.WithLabelValues(op, outcome).Inc()
	metrics.StoreOpDuration.WithLabelValues(op).Observe(s.nowFn().Sub(start).Seconds())
}

// applyPatch shallow-merges patch into rec and re-establishes the
// error-iff-failed invariant.
func applyPatch(rec *model.TransactionRecord, patch model.Patch) {
	if patch.Status != nil {
		rec.Status = *patch.Status
	}
	if patch.DestinationChainID != nil {
		rec.DestinationChainID = patch.DestinationChainID
	}
	if patch.SourceTxHash != nil {
		rec.SourceTxHash = patch.SourceTxHash
	}
	if patch.DestinationTxHash != nil {
		rec.DestinationTxHash = patch.DestinationTxHash
	}
	if patch.Amount != nil {
		rec.Amount = *patch.Amount
	}
	if patch.AmountRaw != nil {
		rec.AmountRaw = *patch.AmountRaw
	}
	if patch.EstimatedUsdValue != nil {
		rec.EstimatedUsdValue = patch.EstimatedUsdValue
	}
	if patch.EstimatedUsdcReceived != nil {
		rec.EstimatedUsdcReceived = patch.EstimatedUsdcReceived
	}
	if patch.PlatformFee != nil {
		rec.PlatformFee = patch.PlatformFee
	}
	if patch.PlatformFeeUsd != nil {
		rec.PlatformFeeUsd = patch.PlatformFeeUsd
	}
	if patch.RelayFee != nil {
		rec.RelayFee = patch.RelayFee
	}
	if patch.Error != nil {
		rec.Error = patch.Error
	}
	if patch.ErrorCode != nil {
		rec.ErrorCode = patch.ErrorCode
	}
	if patch.Title != nil {
		rec.Title = *patch.Title
	}
	if patch.Description != nil {
		rec.Description = *patch.Description
	}
	if patch.CanRetry != nil {
		rec.CanRetry = *patch.CanRetry
	}

	if rec.Status != model.TxStatusFailed {
		rec.Error = nil
		rec.ErrorCode = nil
	}
}

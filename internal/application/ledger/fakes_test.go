package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/agency/backend/internal/domain/client"
	"github.com/agency/backend/internal/domain/ledger"
	"github.com/agency/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// fakeB2CRepo keeps clients in memory and enforces the optimistic-lock version
type fakeB2CRepo struct {
	client.B2CClientRepository
	rows    map[uuid.UUID]client.B2CClient
	saveErr error
}

func newFakeB2CRepo() *fakeB2CRepo {
	return &fakeB2CRepo{rows: map[uuid.UUID]client.B2CClient{}}
}

func (r *fakeB2CRepo) FindByID(_ context.Context, scope shared.Scope, id uuid.UUID) (*client.B2CClient, error) {
	row, ok := r.rows[id]
	if !ok || !row.BelongsTo(scope) {
		return nil, shared.ErrNotFound
	}
	row.ClearDomainEvents()
	return &row, nil
}

func (r *fakeB2CRepo) Save(_ context.Context, c *client.B2CClient) error {
	r.rows[c.ID] = *c
	return nil
}

func (r *fakeB2CRepo) SaveWithLock(_ context.Context, c *client.B2CClient) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	stored, ok := r.rows[c.ID]
	if !ok || stored.Version != c.Version {
		return shared.ErrConcurrencyConflict
	}
	c.IncrementVersion()
	r.rows[c.ID] = *c
	return nil
}

// fakeB2BRepo keeps business clients in memory
type fakeB2BRepo struct {
	client.B2BClientRepository
	rows map[uuid.UUID]client.B2BClient
}

func newFakeB2BRepo() *fakeB2BRepo {
	return &fakeB2BRepo{rows: map[uuid.UUID]client.B2BClient{}}
}

func (r *fakeB2BRepo) FindByID(_ context.Context, scope shared.Scope, id uuid.UUID) (*client.B2BClient, error) {
	row, ok := r.rows[id]
	if !ok || !row.BelongsTo(scope) {
		return nil, shared.ErrNotFound
	}
	row.ClearDomainEvents()
	return &row, nil
}

func (r *fakeB2BRepo) Save(_ context.Context, c *client.B2BClient) error {
	r.rows[c.ID] = *c
	return nil
}

func (r *fakeB2BRepo) SaveWithLock(_ context.Context, c *client.B2BClient) error {
	stored, ok := r.rows[c.ID]
	if !ok || stored.Version != c.Version {
		return shared.ErrConcurrencyConflict
	}
	c.IncrementVersion()
	r.rows[c.ID] = *c
	return nil
}

// fakeTransactionRepo keeps transactions in memory
type fakeTransactionRepo struct {
	rows map[uuid.UUID]ledger.Transaction
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{rows: map[uuid.UUID]ledger.Transaction{}}
}

func (r *fakeTransactionRepo) FindByID(_ context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &row, nil
}

func (r *fakeTransactionRepo) FindByClient(_ context.Context, clientID uuid.UUID, filter shared.Filter) ([]ledger.Transaction, error) {
	var out []ledger.Transaction
	for _, row := range r.rows {
		if row.ClientID == clientID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	start := filter.Offset()
	if start > len(out) {
		return []ledger.Transaction{}, nil
	}
	end := start + filter.PageSize
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], nil
}

func (r *fakeTransactionRepo) CountByClient(_ context.Context, clientID uuid.UUID) (int64, error) {
	var n int64
	for _, row := range r.rows {
		if row.ClientID == clientID {
			n++
		}
	}
	return n, nil
}

func (r *fakeTransactionRepo) SumNetByClient(_ context.Context, clientID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, row := range r.rows {
		if row.ClientID == clientID {
			sum = sum.Add(row.Net())
		}
	}
	return sum, nil
}

func (r *fakeTransactionRepo) Save(_ context.Context, tx *ledger.Transaction) error {
	r.rows[tx.ID] = *tx
	return nil
}

func (r *fakeTransactionRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.rows[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

// snapshotScope emulates rollback by restoring repository state when fn fails
type snapshotScope struct {
	*NoOpTransactionScope
	b2c *fakeB2CRepo
	b2b *fakeB2BRepo
	txs *fakeTransactionRepo
}

func (s *snapshotScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	b2c := cloneMap(s.b2c.rows)
	b2b := cloneMap(s.b2b.rows)
	txs := cloneMap(s.txs.rows)
	if err := s.NoOpTransactionScope.Execute(ctx, fn); err != nil {
		s.b2c.rows, s.b2b.rows, s.txs.rows = b2c, b2b, txs
		return err
	}
	return nil
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// memoryIdempotencyStore is a minimal IdempotencyStore
type memoryIdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{keys: map[string]bool{}}
}

func (s *memoryIdempotencyStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *memoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[key], nil
}

func (s *memoryIdempotencyStore) Forget(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}

func (s *memoryIdempotencyStore) Close() error { return nil }

// recordingMetrics captures ledger metric calls
type recordingMetrics struct {
	operations []string
}

func (m *recordingMetrics) RecordLedgerOperation(_ context.Context, _ uuid.UUID, operation string, _ string, _ decimal.Decimal) {
	m.operations = append(m.operations, operation)
}

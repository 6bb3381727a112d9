// Package memstore is an in-memory ledger store for service tests. It
// implements repository.UnitOfWork and all repositories over maps. A single
// mutex serializes Do, mirroring the serializable boundary the SQL store
// gives transaction bodies; writes inside Do stage into a buffer so a
// returned error rolls everything back.
package memstore

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/obmenka/settlement/pkg/domain"
	"github.com/obmenka/settlement/pkg/domain/transaction"
	"github.com/obmenka/settlement/pkg/dto"
	"github.com/obmenka/settlement/pkg/repository"
)

type state struct {
	transactions map[uuid.UUID]dto.TransactionRead
	receipts     map[uuid.UUID]dto.ReceiptRead
	disputes     map[uuid.UUID]dto.DisputeRead
	balances     map[uuid.UUID]dto.BalanceRead
	entryCauses  map[string]struct{} // "causeType/causeID"
	order        []uuid.UUID         // transaction insertion order
}

func newState() *state {
	return &state{
		transactions: make(map[uuid.UUID]dto.TransactionRead),
		receipts:     make(map[uuid.UUID]dto.ReceiptRead),
		disputes:     make(map[uuid.UUID]dto.DisputeRead),
		balances:     make(map[uuid.UUID]dto.BalanceRead),
		entryCauses:  make(map[string]struct{}),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	for k, v := range s.receipts {
		c.receipts[k] = v
	}
	for k, v := range s.disputes {
		c.disputes[k] = v
	}
	for k, v := range s.balances {
		c.balances[k] = v
	}
	for k := range s.entryCauses {
		c.entryCauses[k] = struct{}{}
	}
	c.order = append(c.order, s.order...)
	return c
}

// Store is the in-memory UnitOfWork. The zero value is not usable; use New.
type Store struct {
	mu        sync.Mutex
	committed *state
	staged    *state // non-nil inside Do
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{committed: newState()}
}

// Do runs fn under the store mutex against a staged copy of the state.
// The copy is committed only when fn returns nil.
func (s *Store) Do(_ context.Context, fn func(uow repository.UnitOfWork) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged = s.committed.clone()
	err := fn(s)
	if err == nil {
		s.committed = s.staged
	}
	s.staged = nil
	return err
}

func (s *Store) current() *state {
	if s.staged != nil {
		return s.staged
	}
	return s.committed
}

// GetRepository implements repository.UnitOfWork.
func (s *Store) GetRepository(repoType reflect.Type) (any, error) {
	for _, repo := range []any{&txRepo{s}, &receiptRepo{s}, &disputeRepo{s}, &balanceRepo{s}} {
		if reflect.TypeOf(repo).Implements(repoType) {
			return repo, nil
		}
	}
	return nil, fmt.Errorf("unsupported repository type %s", repoType)
}

// TransactionRepository implements repository.UnitOfWork.
func (s *Store) TransactionRepository() (repository.TransactionRepository, error) {
	return &txRepo{s}, nil
}

// ReceiptRepository implements repository.UnitOfWork.
func (s *Store) ReceiptRepository() (repository.ReceiptRepository, error) {
	return &receiptRepo{s}, nil
}

// DisputeRepository implements repository.UnitOfWork.
func (s *Store) DisputeRepository() (repository.DisputeRepository, error) {
	return &disputeRepo{s}, nil
}

// BalanceRepository implements repository.UnitOfWork.
func (s *Store) BalanceRepository() (repository.BalanceRepository, error) {
	return &balanceRepo{s}, nil
}

// Seed inserts a transaction snapshot directly, bypassing the services.
func (s *Store) Seed(read dto.TransactionRead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.committed.transactions[read.ID]; !ok {
		s.committed.order = append(s.committed.order, read.ID)
	}
	s.committed.transactions[read.ID] = read
}

// Transaction returns the committed snapshot of a transaction.
func (s *Store) Transaction(id uuid.UUID) (dto.TransactionRead, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	read, ok := s.committed.transactions[id]
	return read, ok
}

// Balance returns the committed balance for a user (zero when absent).
func (s *Store) Balance(userID uuid.UUID) dto.BalanceRead {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.committed.balances[userID]; ok {
		return b
	}
	return dto.BalanceRead{UserID: userID}
}

// Credit applies a ledger entry directly, bypassing the services. Used to
// seed balances for tests.
func (s *Store) Credit(userID, causeID uuid.UUID, deltaRUB, deltaUSDT int64) error {
	return s.Do(context.Background(), func(uow repository.UnitOfWork) error {
		balances, err := uow.BalanceRepository()
		if err != nil {
			return err
		}
		return balances.ApplyEntry(context.Background(), dto.EntryCreate{
			ID:        uuid.New(),
			UserID:    userID,
			CauseType: "settlement",
			CauseID:   causeID,
			DeltaRUB:  deltaRUB,
			DeltaUSDT: deltaUSDT,
		})
	})
}

// EntryCount returns how many ledger entries have been applied.
func (s *Store) EntryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.committed.entryCauses)
}

var _ repository.UnitOfWork = (*Store)(nil)

type txRepo struct{ s *Store }

func (r *txRepo) Create(_ context.Context, create dto.TransactionCreate) error {
	st := r.s.current()
	if _, ok := st.transactions[create.ID]; ok {
		return fmt.Errorf("transaction %s already exists", create.ID)
	}
	st.transactions[create.ID] = dto.TransactionRead{
		ID:           create.ID,
		UserID:       create.UserID,
		AmountRUB:    create.AmountRUB,
		AmountUSDT:   create.AmountUSDT,
		ChargeRUB:    create.ChargeRUB,
		ChargeUSDT:   create.ChargeUSDT,
		ExchangeRate: create.ExchangeRate,
		Status:       create.Status,
		CreatedAt:    time.Now().UTC(),
	}
	st.order = append(st.order, create.ID)
	return nil
}

func (r *txRepo) Get(_ context.Context, id uuid.UUID) (*dto.TransactionRead, error) {
	if read, ok := r.s.current().transactions[id]; ok {
		return &read, nil
	}
	return nil, nil
}

func (r *txRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*dto.TransactionRead, error) {
	return r.Get(ctx, id)
}

func (r *txRepo) ClaimPending(_ context.Context, id, operatorID uuid.UUID, at time.Time) (bool, error) {
	st := r.s.current()
	cur, ok := st.transactions[id]
	if !ok || cur.Status != string(transaction.StatusPending) || cur.ClaimedBy != nil {
		return false, nil
	}
	cur.Status = string(transaction.StatusVerification)
	cur.ClaimedBy = &operatorID
	cur.ClaimedAt = &at
	st.transactions[id] = cur
	return true, nil
}

func (r *txRepo) ReleaseClaim(_ context.Context, id, operatorID uuid.UUID) (bool, error) {
	st := r.s.current()
	cur, ok := st.transactions[id]
	if !ok || cur.Status != string(transaction.StatusVerification) ||
		cur.ClaimedBy == nil || *cur.ClaimedBy != operatorID {
		return false, nil
	}
	cur.Status = string(transaction.StatusPending)
	cur.ClaimedBy = nil
	cur.ClaimedAt = nil
	st.transactions[id] = cur
	return true, nil
}

func (r *txRepo) ReleaseExpired(_ context.Context, cutoff time.Time) (int64, error) {
	st := r.s.current()
	var released int64
	for id, cur := range st.transactions {
		if cur.Status != string(transaction.StatusVerification) ||
			cur.ClaimedAt == nil || !cur.ClaimedAt.Before(cutoff) {
			continue
		}
		cur.Status = string(transaction.StatusPending)
		cur.ClaimedBy = nil
		cur.ClaimedAt = nil
		st.transactions[id] = cur
		released++
	}
	return released, nil
}

func (r *txRepo) Update(_ context.Context, id uuid.UUID, update dto.TransactionUpdate) error {
	st := r.s.current()
	cur, ok := st.transactions[id]
	if !ok {
		return domain.ErrNotFound
	}
	if update.Status != nil {
		cur.Status = *update.Status
	}
	if update.ClaimedBy != nil {
		cur.ClaimedBy = update.ClaimedBy
	}
	if update.ClaimedAt != nil {
		cur.ClaimedAt = update.ClaimedAt
	}
	if update.ClearClaim {
		cur.ClaimedBy = nil
		cur.ClaimedAt = nil
	}
	if update.ConfirmedAt != nil {
		cur.ConfirmedAt = update.ConfirmedAt
	}
	if update.Reason != nil {
		cur.Reason = *update.Reason
	}
	st.transactions[id] = cur
	return nil
}

func (r *txRepo) ListByStatus(_ context.Context, status string) ([]*dto.TransactionRead, error) {
	st := r.s.current()
	var reads []*dto.TransactionRead
	for _, id := range st.order {
		if cur, ok := st.transactions[id]; ok && cur.Status == status {
			read := cur
			reads = append(reads, &read)
		}
	}
	return reads, nil
}

func (r *txRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*dto.TransactionRead, error) {
	st := r.s.current()
	var reads []*dto.TransactionRead
	for _, id := range st.order {
		if cur, ok := st.transactions[id]; ok && cur.UserID == userID {
			read := cur
			reads = append(reads, &read)
		}
	}
	return reads, nil
}

type receiptRepo struct{ s *Store }

func (r *receiptRepo) Create(_ context.Context, create dto.ReceiptCreate) error {
	st := r.s.current()
	st.receipts[create.ID] = dto.ReceiptRead{
		ID:            create.ID,
		TransactionID: create.TransactionID,
		UploadedBy:    create.UploadedBy,
		Blob:          create.Blob,
		IsVerified:    create.IsVerified,
		IsFake:        create.IsFake,
		CreatedAt:     time.Now().UTC(),
	}
	return nil
}

func (r *receiptRepo) Latest(_ context.Context, transactionID uuid.UUID) (*dto.ReceiptRead, error) {
	st := r.s.current()
	var latest *dto.ReceiptRead
	for _, cur := range st.receipts {
		if cur.TransactionID != transactionID {
			continue
		}
		if latest == nil || cur.CreatedAt.After(latest.CreatedAt) {
			read := cur
			latest = &read
		}
	}
	return latest, nil
}

func (r *receiptRepo) SetVerdict(_ context.Context, id uuid.UUID, verified, fake bool) error {
	st := r.s.current()
	cur, ok := st.receipts[id]
	if !ok {
		return domain.ErrNotFound
	}
	cur.IsVerified = verified
	cur.IsFake = fake
	st.receipts[id] = cur
	return nil
}

func (r *receiptRepo) ListByTransaction(_ context.Context, transactionID uuid.UUID) ([]*dto.ReceiptRead, error) {
	st := r.s.current()
	var reads []*dto.ReceiptRead
	for _, cur := range st.receipts {
		if cur.TransactionID == transactionID {
			read := cur
			reads = append(reads, &read)
		}
	}
	return reads, nil
}

type disputeRepo struct{ s *Store }

func (r *disputeRepo) Create(_ context.Context, create dto.DisputeCreate) error {
	st := r.s.current()
	st.disputes[create.ID] = dto.DisputeRead{
		ID:             create.ID,
		TransactionID:  create.TransactionID,
		Currency:       create.Currency,
		OriginalAmount: create.OriginalAmount,
		ProposedAmount: create.ProposedAmount,
		Reason:         create.Reason,
		State:          create.State,
		CreatedAt:      time.Now().UTC(),
	}
	return nil
}

func (r *disputeRepo) Get(_ context.Context, id uuid.UUID) (*dto.DisputeRead, error) {
	if read, ok := r.s.current().disputes[id]; ok {
		return &read, nil
	}
	return nil, nil
}

func (r *disputeRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*dto.DisputeRead, error) {
	return r.Get(ctx, id)
}

func (r *disputeRepo) GetOpenByTransaction(_ context.Context, transactionID uuid.UUID) (*dto.DisputeRead, error) {
	st := r.s.current()
	for _, cur := range st.disputes {
		if cur.TransactionID == transactionID && cur.State == "PENDING_ACK" {
			read := cur
			return &read, nil
		}
	}
	return nil, nil
}

func (r *disputeRepo) Update(_ context.Context, id uuid.UUID, update dto.DisputeUpdate) error {
	st := r.s.current()
	cur, ok := st.disputes[id]
	if !ok {
		return domain.ErrNotFound
	}
	if update.State != nil {
		cur.State = *update.State
	}
	if update.SenderAck != nil {
		cur.SenderAck = *update.SenderAck
	}
	if update.RecipientAck != nil {
		cur.RecipientAck = *update.RecipientAck
	}
	if update.ResolvedAt != nil {
		cur.ResolvedAt = update.ResolvedAt
	}
	st.disputes[id] = cur
	return nil
}

func (r *disputeRepo) ListByTransaction(_ context.Context, transactionID uuid.UUID) ([]*dto.DisputeRead, error) {
	st := r.s.current()
	var reads []*dto.DisputeRead
	for _, cur := range st.disputes {
		if cur.TransactionID == transactionID {
			read := cur
			reads = append(reads, &read)
		}
	}
	return reads, nil
}

type balanceRepo struct{ s *Store }

func (r *balanceRepo) Get(_ context.Context, userID uuid.UUID) (*dto.BalanceRead, error) {
	st := r.s.current()
	if cur, ok := st.balances[userID]; ok {
		read := cur
		return &read, nil
	}
	return &dto.BalanceRead{UserID: userID}, nil
}

func (r *balanceRepo) ApplyEntry(_ context.Context, entry dto.EntryCreate) error {
	st := r.s.current()
	cause := entry.CauseType + "/" + entry.CauseID.String()
	if _, ok := st.entryCauses[cause]; ok {
		return domain.ErrDuplicateEntry
	}
	cur, ok := st.balances[entry.UserID]
	if !ok {
		cur = dto.BalanceRead{UserID: entry.UserID}
	}
	if cur.RUB+entry.DeltaRUB < 0 || cur.USDT+entry.DeltaUSDT < 0 {
		return domain.ErrInsufficientFunds
	}
	cur.RUB += entry.DeltaRUB
	cur.USDT += entry.DeltaUSDT
	st.entryCauses[cause] = struct{}{}
	st.balances[entry.UserID] = cur
	return nil
}

// Package memory implements the ledger store interfaces in process memory.
// It mirrors the Postgres store's semantics - version compare-and-swap on
// wallets, all-or-nothing atomic units, append-only transactions - and backs
// the engine tests as well as single-node embedded deployments.
package memory

import (
	"context"
	"sync"
	"time"

	"strategiz/internal/models"
	"strategiz/internal/repositories"
)

// Store is a mutex-guarded in-memory LedgerStore.
type Store struct {
	mu      sync.Mutex
	wallets map[string]*models.Wallet // by wallet id
	byUser  map[string]string         // user id -> wallet id
	txs     []*models.Transaction     // insertion order
	txByID  map[string]*models.Transaction

	// CreateTransactionHook, when set, runs before every transaction insert
	// and can veto it. Used to inject write failures.
	CreateTransactionHook func(*models.Transaction) error
}

func NewStore() *Store {
	return &Store{
		wallets: make(map[string]*models.Wallet),
		byUser:  make(map[string]string),
		txByID:  make(map[string]*models.Transaction),
	}
}

var _ repositories.LedgerStore = (*Store)(nil)

type snapshot struct {
	wallets map[string]*models.Wallet
	byUser  map[string]string
	txs     []*models.Transaction
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		wallets: make(map[string]*models.Wallet, len(s.wallets)),
		byUser:  make(map[string]string, len(s.byUser)),
		txs:     make([]*models.Transaction, len(s.txs)),
	}
	for id, w := range s.wallets {
		cp := *w
		snap.wallets[id] = &cp
	}
	for u, id := range s.byUser {
		snap.byUser[u] = id
	}
	for i, t := range s.txs {
		cp := *t
		snap.txs[i] = &cp
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.wallets = snap.wallets
	s.byUser = snap.byUser
	s.txs = snap.txs
	s.txByID = make(map[string]*models.Transaction, len(snap.txs))
	for _, t := range snap.txs {
		s.txByID[t.ID] = t
	}
}

// Atomic locks the store, snapshots its state and runs fn against an
// unlocked view. Any error rolls every staged write back.
func (s *Store) Atomic(ctx context.Context, fn func(repositories.LedgerStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snap := s.snapshot()
	if err := fn(&txView{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// txView exposes the store inside an atomic unit without re-locking.
type txView struct {
	s *Store
}

var _ repositories.LedgerStore = (*txView)(nil)

// Nested atomic units join the enclosing one.
func (v *txView) Atomic(ctx context.Context, fn func(repositories.LedgerStore) error) error {
	return fn(v)
}

func (v *txView) CreateWallet(ctx context.Context, w *models.Wallet) error {
	return v.s.createWallet(w)
}

func (v *txView) GetWallet(ctx context.Context, id string) (*models.Wallet, error) {
	return v.s.getWallet(id)
}

func (v *txView) GetWalletByUserID(ctx context.Context, userID string) (*models.Wallet, error) {
	return v.s.getWalletByUserID(userID)
}

func (v *txView) UpdateWalletVersioned(ctx context.Context, w *models.Wallet) error {
	return v.s.updateWalletVersioned(w)
}

func (v *txView) DeleteWalletByUserID(ctx context.Context, userID string) error {
	return v.s.deleteWalletByUserID(userID)
}

func (v *txView) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	return v.s.createTransaction(t)
}

func (v *txView) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	return v.s.getTransaction(id)
}

func (v *txView) FindTransactionsByUserID(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	return v.s.findTransactions(limit, func(t *models.Transaction) bool { return t.UserID == userID }), nil
}

func (v *txView) FindTransactionsByUserIDAndType(ctx context.Context, userID, txType string, limit int) ([]models.Transaction, error) {
	return v.s.findTransactions(limit, func(t *models.Transaction) bool {
		return t.UserID == userID && t.Type == txType
	}), nil
}

func (v *txView) FindPendingTransactionsByUserID(ctx context.Context, userID string) ([]models.Transaction, error) {
	return v.s.findTransactions(0, func(t *models.Transaction) bool {
		return t.UserID == userID && t.Status == models.TransactionStatusPending
	}), nil
}

func (v *txView) FindTransactionsByReference(ctx context.Context, refType, refID string) ([]models.Transaction, error) {
	return v.s.findTransactions(0, func(t *models.Transaction) bool {
		return t.ReferenceType == refType && t.ReferenceID == refID
	}), nil
}

func (v *txView) FindCompletedTransactionByReference(ctx context.Context, userID, refType, refID string) (*models.Transaction, error) {
	return v.s.findCompletedByReference(userID, refType, refID)
}

func (v *txView) UpdateTransactionStatus(ctx context.Context, id, status string) error {
	return v.s.updateTransactionStatus(id, status)
}

func (v *txView) DeleteTransactionsByUserID(ctx context.Context, userID string) error {
	return v.s.deleteTransactionsByUserID(userID)
}

// Locked pass-throughs for use outside an atomic unit.

func (s *Store) CreateWallet(ctx context.Context, w *models.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createWallet(w)
}

func (s *Store) GetWallet(ctx context.Context, id string) (*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getWallet(id)
}

func (s *Store) GetWalletByUserID(ctx context.Context, userID string) (*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getWalletByUserID(userID)
}

func (s *Store) UpdateWalletVersioned(ctx context.Context, w *models.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateWalletVersioned(w)
}

func (s *Store) DeleteWalletByUserID(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteWalletByUserID(userID)
}

func (s *Store) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createTransaction(t)
}

func (s *Store) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getTransaction(id)
}

func (s *Store) FindTransactionsByUserID(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findTransactions(limit, func(t *models.Transaction) bool { return t.UserID == userID }), nil
}

func (s *Store) FindTransactionsByUserIDAndType(ctx context.Context, userID, txType string, limit int) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findTransactions(limit, func(t *models.Transaction) bool {
		return t.UserID == userID && t.Type == txType
	}), nil
}

func (s *Store) FindPendingTransactionsByUserID(ctx context.Context, userID string) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findTransactions(0, func(t *models.Transaction) bool {
		return t.UserID == userID && t.Status == models.TransactionStatusPending
	}), nil
}

func (s *Store) FindTransactionsByReference(ctx context.Context, refType, refID string) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findTransactions(0, func(t *models.Transaction) bool {
		return t.ReferenceType == refType && t.ReferenceID == refID
	}), nil
}

func (s *Store) FindCompletedTransactionByReference(ctx context.Context, userID, refType, refID string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findCompletedByReference(userID, refType, refID)
}

func (s *Store) UpdateTransactionStatus(ctx context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateTransactionStatus(id, status)
}

func (s *Store) DeleteTransactionsByUserID(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteTransactionsByUserID(userID)
}

// Unlocked internals. Callers hold s.mu.

func (s *Store) createWallet(w *models.Wallet) error {
	if _, exists := s.byUser[w.UserID]; exists {
		return repositories.ErrDuplicateWallet
	}
	if _, exists := s.wallets[w.ID]; exists {
		return repositories.ErrDuplicateWallet
	}
	now := time.Now()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	w.UpdatedAt = now
	cp := *w
	s.wallets[w.ID] = &cp
	s.byUser[w.UserID] = w.ID
	return nil
}

func (s *Store) getWallet(id string) (*models.Wallet, error) {
	w, ok := s.wallets[id]
	if !ok {
		return nil, repositories.ErrWalletNotFound
	}
	cp := *w
	return &cp, nil
}

func (s *Store) getWalletByUserID(userID string) (*models.Wallet, error) {
	id, ok := s.byUser[userID]
	if !ok {
		return nil, repositories.ErrWalletNotFound
	}
	return s.getWallet(id)
}

func (s *Store) updateWalletVersioned(w *models.Wallet) error {
	cur, ok := s.wallets[w.ID]
	if !ok {
		return repositories.ErrWalletNotFound
	}
	if cur.Version != w.Version {
		return repositories.ErrVersionConflict
	}
	cp := *w
	cp.Version++
	cp.UpdatedAt = time.Now()
	s.wallets[w.ID] = &cp
	w.Version = cp.Version
	w.UpdatedAt = cp.UpdatedAt
	return nil
}

func (s *Store) deleteWalletByUserID(userID string) error {
	id, ok := s.byUser[userID]
	if !ok {
		return repositories.ErrWalletNotFound
	}
	delete(s.wallets, id)
	delete(s.byUser, userID)
	return nil
}

func (s *Store) createTransaction(t *models.Transaction) error {
	if s.CreateTransactionHook != nil {
		if err := s.CreateTransactionHook(t); err != nil {
			return err
		}
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	cp := *t
	s.txs = append(s.txs, &cp)
	s.txByID[cp.ID] = &cp
	return nil
}

func (s *Store) getTransaction(id string) (*models.Transaction, error) {
	t, ok := s.txByID[id]
	if !ok {
		return nil, repositories.ErrTransactionNotFound
	}
	cp := *t
	return &cp, nil
}

// findTransactions walks newest-first; limit <= 0 means no limit.
func (s *Store) findTransactions(limit int, match func(*models.Transaction) bool) []models.Transaction {
	var out []models.Transaction
	for i := len(s.txs) - 1; i >= 0; i-- {
		if !match(s.txs[i]) {
			continue
		}
		out = append(out, *s.txs[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func (s *Store) findCompletedByReference(userID, refType, refID string) (*models.Transaction, error) {
	for i := len(s.txs) - 1; i >= 0; i-- {
		t := s.txs[i]
		if t.UserID == userID && t.ReferenceType == refType && t.ReferenceID == refID &&
			t.Status == models.TransactionStatusCompleted {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repositories.ErrTransactionNotFound
}

func (s *Store) updateTransactionStatus(id, status string) error {
	t, ok := s.txByID[id]
	if !ok {
		return repositories.ErrTransactionNotFound
	}
	if t.Status != models.TransactionStatusPending {
		return repositories.ErrTransactionFinal
	}
	t.Status = status
	if status == models.TransactionStatusCompleted || status == models.TransactionStatusFailed {
		now := time.Now()
		t.CompletedAt = &now
	}
	return nil
}

func (s *Store) deleteTransactionsByUserID(userID string) error {
	kept := s.txs[:0]
	for _, t := range s.txs {
		if t.UserID == userID {
			delete(s.txByID, t.ID)
			continue
		}
		kept = append(kept, t)
	}
	s.txs = kept
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"arc-exchange/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// memState is one snapshot of every table the services touch.
type memState struct {
	users     map[uuid.UUID]domain.User
	wallets   map[uuid.UUID]domain.Wallet
	txs       []domain.Transaction
	pairs     map[string]domain.TradingPair
	history   []domain.PricePoint
	orders    map[string]domain.Order
	trades    []domain.Trade
	merchants map[uuid.UUID]domain.Merchant
	carts     map[string]domain.Cart
	idem      map[string]domain.IdempotencyLog
}

func newMemState() *memState {
	return &memState{
		users:     map[uuid.UUID]domain.User{},
		wallets:   map[uuid.UUID]domain.Wallet{},
		pairs:     map[string]domain.TradingPair{},
		orders:    map[string]domain.Order{},
		merchants: map[uuid.UUID]domain.Merchant{},
		carts:     map[string]domain.Cart{},
		idem:      map[string]domain.IdempotencyLog{},
	}
}

func (s *memState) clone() *memState {
	return &memState{
		users:     maps.Clone(s.users),
		wallets:   maps.Clone(s.wallets),
		txs:       slices.Clone(s.txs),
		pairs:     maps.Clone(s.pairs),
		history:   slices.Clone(s.history),
		orders:    maps.Clone(s.orders),
		trades:    slices.Clone(s.trades),
		merchants: maps.Clone(s.merchants),
		carts:     maps.Clone(s.carts),
		idem:      maps.Clone(s.idem),
	}
}

// memStore is an in-memory database. Transactions are serialized and work on
// a private copy that replaces the committed state on Commit.
type memStore struct {
	txMu      sync.Mutex
	mu        sync.RWMutex
	committed *memState
	commits   int
	failures  map[string]error
}

func newMemStore() *memStore {
	return &memStore{committed: newMemState(), failures: map[string]error{}}
}

// failOn makes the named repository operation return err.
func (s *memStore) failOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

func (s *memStore) failure(op string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failures[op]
}

func (s *memStore) Begin(_ context.Context) (pgx.Tx, error) {
	s.txMu.Lock()
	s.mu.RLock()
	work := s.committed.clone()
	s.mu.RUnlock()
	return &memTx{store: s, state: work}, nil
}

func (s *memStore) read(fn func(st *memState)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.committed)
}

// write applies fn outside any caller transaction.
func (s *memStore) write(fn func(st *memState) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.committed.clone()
	if err := fn(work); err != nil {
		return err
	}
	s.committed = work
	return nil
}

func (s *memStore) commitCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commits
}

// memTx implements the pgx.Tx methods the services call.
type memTx struct {
	pgx.Tx
	store *memStore
	state *memState
	done  bool
}

func (t *memTx) Commit(_ context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.store.mu.Lock()
	t.store.committed = t.state
	t.store.commits++
	t.store.mu.Unlock()
	t.store.txMu.Unlock()
	return nil
}

func (t *memTx) Rollback(_ context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.store.txMu.Unlock()
	return nil
}

func stateOf(tx pgx.Tx) *memState {
	return tx.(*memTx).state
}

// --- users ---

type memUserRepo struct{ s *memStore }

func (r *memUserRepo) Create(_ context.Context, tx pgx.Tx, u *domain.User) error {
	st := stateOf(tx)
	for _, x := range st.users {
		if x.Username == u.Username || x.Email == u.Email {
			return errors.New("duplicate user")
		}
	}
	st.users[u.ID] = *u
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	var out *domain.User
	r.s.read(func(st *memState) {
		if u, ok := st.users[id]; ok {
			out = &u
		}
	})
	return out, nil
}

func (r *memUserRepo) find(match func(u domain.User) bool) *domain.User {
	var out *domain.User
	r.s.read(func(st *memState) {
		for _, u := range st.users {
			if match(u) {
				out = &u
				return
			}
		}
	})
	return out
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Username == username }), nil
}

func (r *memUserRepo) GetByLogin(_ context.Context, login string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Username == login || u.Email == login }), nil
}

func (r *memUserRepo) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	return r.find(func(u domain.User) bool { return u.Username == username || u.Email == email }) != nil, nil
}

func (r *memUserRepo) ListMerchants(_ context.Context) ([]domain.User, error) {
	var out []domain.User
	r.s.read(func(st *memState) {
		for _, u := range st.users {
			if u.IsMerchant {
				out = append(out, u)
			}
		}
	})
	slices.SortFunc(out, func(a, b domain.User) int { return strings.Compare(a.Username, b.Username) })
	return out, nil
}

func (r *memUserRepo) SetMerchant(_ context.Context, tx pgx.Tx, id uuid.UUID, name string) error {
	st := stateOf(tx)
	u, ok := st.users[id]
	if !ok {
		return fmt.Errorf("user not found: %s", id)
	}
	u.IsMerchant = true
	u.MerchantName = &name
	st.users[id] = u
	return nil
}

// --- wallets ---

type memWalletRepo struct{ s *memStore }

func findWallet(st *memState, owner uuid.UUID, symbol string) *domain.Wallet {
	for _, w := range st.wallets {
		if w.OwnerID == owner && w.Symbol == symbol {
			return &w
		}
	}
	return nil
}

func (r *memWalletRepo) Create(_ context.Context, tx pgx.Tx, w *domain.Wallet) error {
	st := stateOf(tx)
	if findWallet(st, w.OwnerID, w.Symbol) != nil {
		return errors.New("duplicate wallet")
	}
	st.wallets[w.ID] = *w
	return nil
}

func (r *memWalletRepo) GetByOwner(_ context.Context, owner uuid.UUID, symbol string) (*domain.Wallet, error) {
	var out *domain.Wallet
	r.s.read(func(st *memState) { out = findWallet(st, owner, symbol) })
	return out, nil
}

func (r *memWalletRepo) GetByOwnerForUpdate(_ context.Context, tx pgx.Tx, owner uuid.UUID, symbol string) (*domain.Wallet, error) {
	return findWallet(stateOf(tx), owner, symbol), nil
}

func (r *memWalletRepo) GetByAddress(_ context.Context, address string) (*domain.Wallet, error) {
	var out *domain.Wallet
	r.s.read(func(st *memState) {
		for _, w := range st.wallets {
			if w.Address == address {
				out = &w
				return
			}
		}
	})
	return out, nil
}

func (r *memWalletRepo) ListByOwner(_ context.Context, owner uuid.UUID) ([]domain.Wallet, error) {
	var out []domain.Wallet
	r.s.read(func(st *memState) {
		for _, w := range st.wallets {
			if w.OwnerID == owner {
				out = append(out, w)
			}
		}
	})
	slices.SortFunc(out, func(a, b domain.Wallet) int { return strings.Compare(a.Symbol, b.Symbol) })
	return out, nil
}

func (r *memWalletRepo) UpdateBalance(_ context.Context, tx pgx.Tx, id uuid.UUID, balance decimal.Decimal) error {
	if err := r.s.failure("wallets.update"); err != nil {
		return err
	}
	st := stateOf(tx)
	w, ok := st.wallets[id]
	if !ok {
		return fmt.Errorf("wallet not found: %s", id)
	}
	if balance.IsNegative() {
		return errors.New("balance check constraint violated")
	}
	w.Balance = balance
	st.wallets[id] = w
	return nil
}

// --- transactions ---

type memTxRepo struct{ s *memStore }

func (r *memTxRepo) Create(_ context.Context, tx pgx.Tx, t *domain.Transaction) error {
	if err := r.s.failure("transactions.create"); err != nil {
		return err
	}
	st := stateOf(tx)
	st.txs = append(st.txs, *t)
	return nil
}

func findTx(st *memState, hash string) *domain.Transaction {
	for _, t := range st.txs {
		if t.Hash == hash {
			return &t
		}
	}
	return nil
}

func (r *memTxRepo) GetByHash(_ context.Context, hash string) (*domain.Transaction, error) {
	var out *domain.Transaction
	r.s.read(func(st *memState) { out = findTx(st, hash) })
	return out, nil
}

func (r *memTxRepo) GetByHashForUpdate(_ context.Context, tx pgx.Tx, hash string) (*domain.Transaction, error) {
	return findTx(stateOf(tx), hash), nil
}

func (r *memTxRepo) UpdateStatus(_ context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus, memo string) error {
	st := stateOf(tx)
	for i := range st.txs {
		if st.txs[i].ID == id {
			st.txs[i].Status = status
			st.txs[i].Memo = memo
			return nil
		}
	}
	return fmt.Errorf("transaction not found: %s", id)
}

func (r *memTxRepo) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]domain.Transaction, error) {
	var out []domain.Transaction
	r.s.read(func(st *memState) {
		for i := len(st.txs) - 1; i >= 0 && len(out) < limit; i-- {
			t := st.txs[i]
			if t.UserID == userID || (t.CounterpartyID != nil && *t.CounterpartyID == userID) {
				out = append(out, t)
			}
		}
	})
	return out, nil
}

func (r *memTxRepo) SumReceived(_ context.Context, userID uuid.UUID, types []domain.TransactionType, since *time.Time) ([]domain.SymbolStats, error) {
	sums := map[string]*domain.SymbolStats{}
	r.s.read(func(st *memState) {
		for _, t := range st.txs {
			if t.CounterpartyID == nil || *t.CounterpartyID != userID || t.Status != domain.TransactionStatusConfirmed {
				continue
			}
			if !slices.Contains(types, t.Type) || (since != nil && t.CreatedAt.Before(*since)) {
				continue
			}
			agg, ok := sums[t.Symbol]
			if !ok {
				agg = &domain.SymbolStats{Symbol: t.Symbol, TotalAmount: decimal.Zero}
				sums[t.Symbol] = agg
			}
			agg.Count++
			agg.TotalAmount = agg.TotalAmount.Add(t.Amount)
		}
	})
	var out []domain.SymbolStats
	for _, sym := range slices.Sorted(maps.Keys(sums)) {
		out = append(out, *sums[sym])
	}
	return out, nil
}

// --- trading pairs and history ---

type memPairRepo struct{ s *memStore }

func (r *memPairRepo) CreateIfNotExists(_ context.Context, p *domain.TradingPair) (bool, error) {
	created := false
	err := r.s.write(func(st *memState) error {
		if _, ok := st.pairs[p.Pair]; ok {
			return nil
		}
		st.pairs[p.Pair] = *p
		created = true
		return nil
	})
	return created, err
}

func (r *memPairRepo) GetByPair(_ context.Context, pair string) (*domain.TradingPair, error) {
	var out *domain.TradingPair
	r.s.read(func(st *memState) {
		if p, ok := st.pairs[pair]; ok {
			out = &p
		}
	})
	return out, nil
}

func (r *memPairRepo) GetByPairForUpdate(_ context.Context, tx pgx.Tx, pair string) (*domain.TradingPair, error) {
	if p, ok := stateOf(tx).pairs[pair]; ok {
		return &p, nil
	}
	return nil, nil
}

func activePairs(st *memState) []domain.TradingPair {
	var out []domain.TradingPair
	for _, key := range slices.Sorted(maps.Keys(st.pairs)) {
		if p := st.pairs[key]; p.IsActive {
			out = append(out, p)
		}
	}
	return out
}

func (r *memPairRepo) ListActive(_ context.Context) ([]domain.TradingPair, error) {
	var out []domain.TradingPair
	r.s.read(func(st *memState) { out = activePairs(st) })
	return out, nil
}

func (r *memPairRepo) ListActiveForUpdate(_ context.Context, tx pgx.Tx) ([]domain.TradingPair, error) {
	return activePairs(stateOf(tx)), nil
}

func (r *memPairRepo) Update(_ context.Context, tx pgx.Tx, p *domain.TradingPair) error {
	st := stateOf(tx)
	if _, ok := st.pairs[p.Pair]; !ok {
		return fmt.Errorf("trading pair not found: %s", p.Pair)
	}
	st.pairs[p.Pair] = *p
	return nil
}

type memHistoryRepo struct{ s *memStore }

func (r *memHistoryRepo) Create(_ context.Context, tx pgx.Tx, p *domain.PricePoint) error {
	st := stateOf(tx)
	st.history = append(st.history, *p)
	return nil
}

func (r *memHistoryRepo) ListRecent(_ context.Context, pair string, limit int) ([]domain.PricePoint, error) {
	var out []domain.PricePoint
	r.s.read(func(st *memState) {
		for i := len(st.history) - 1; i >= 0 && len(out) < limit; i-- {
			if st.history[i].Pair == pair {
				out = append(out, st.history[i])
			}
		}
	})
	slices.Reverse(out)
	return out, nil
}

// --- orders and trades ---

type memOrderRepo struct{ s *memStore }

func (r *memOrderRepo) Create(_ context.Context, tx pgx.Tx, o *domain.Order) error {
	st := stateOf(tx)
	if _, ok := st.orders[o.OrderID]; ok {
		return errors.New("duplicate order id")
	}
	st.orders[o.OrderID] = *o
	return nil
}

func (r *memOrderRepo) GetByOrderID(_ context.Context, orderID string) (*domain.Order, error) {
	var out *domain.Order
	r.s.read(func(st *memState) {
		if o, ok := st.orders[orderID]; ok {
			out = &o
		}
	})
	return out, nil
}

func (r *memOrderRepo) GetByOrderIDForUpdate(_ context.Context, tx pgx.Tx, orderID string) (*domain.Order, error) {
	if o, ok := stateOf(tx).orders[orderID]; ok {
		return &o, nil
	}
	return nil, nil
}

func (r *memOrderRepo) Update(_ context.Context, tx pgx.Tx, o *domain.Order) error {
	st := stateOf(tx)
	if _, ok := st.orders[o.OrderID]; !ok {
		return fmt.Errorf("order not found: %s", o.OrderID)
	}
	st.orders[o.OrderID] = *o
	return nil
}

func sortedOrders(st *memState, keep func(o domain.Order) bool) []domain.Order {
	var out []domain.Order
	for _, o := range st.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	slices.SortFunc(out, func(a, b domain.Order) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.OrderID, b.OrderID)
	})
	return out
}

func (r *memOrderRepo) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]domain.Order, error) {
	var out []domain.Order
	r.s.read(func(st *memState) {
		out = sortedOrders(st, func(o domain.Order) bool { return o.UserID == userID })
	})
	slices.Reverse(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memOrderRepo) ListPendingLimit(_ context.Context, pair string) ([]domain.Order, error) {
	var out []domain.Order
	r.s.read(func(st *memState) {
		out = sortedOrders(st, func(o domain.Order) bool {
			return o.Pair == pair && o.Type == domain.OrderTypeLimit && o.Status == domain.OrderStatusPending
		})
	})
	return out, nil
}

type memTradeRepo struct{ s *memStore }

func (r *memTradeRepo) Create(_ context.Context, tx pgx.Tx, t *domain.Trade) error {
	st := stateOf(tx)
	st.trades = append(st.trades, *t)
	return nil
}

func (r *memTradeRepo) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]domain.Trade, error) {
	var out []domain.Trade
	r.s.read(func(st *memState) {
		for i := len(st.trades) - 1; i >= 0 && len(out) < limit; i-- {
			if st.trades[i].UserID == userID {
				out = append(out, st.trades[i])
			}
		}
	})
	return out, nil
}

// --- merchants and carts ---

type memMerchantRepo struct{ s *memStore }

func (r *memMerchantRepo) Create(_ context.Context, tx pgx.Tx, m *domain.Merchant) error {
	st := stateOf(tx)
	for _, x := range st.merchants {
		if x.MerchantName == m.MerchantName || x.UserID == m.UserID {
			return errors.New("duplicate merchant")
		}
	}
	st.merchants[m.ID] = *m
	return nil
}

func (r *memMerchantRepo) find(match func(m domain.Merchant) bool) *domain.Merchant {
	var out *domain.Merchant
	r.s.read(func(st *memState) {
		for _, m := range st.merchants {
			if match(m) {
				out = &m
				return
			}
		}
	})
	return out
}

func (r *memMerchantRepo) GetByName(_ context.Context, name string) (*domain.Merchant, error) {
	return r.find(func(m domain.Merchant) bool { return m.MerchantName == name }), nil
}

func (r *memMerchantRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*domain.Merchant, error) {
	return r.find(func(m domain.Merchant) bool { return m.UserID == userID }), nil
}

func (r *memMerchantRepo) AddReceived(_ context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) error {
	st := stateOf(tx)
	m, ok := st.merchants[id]
	if !ok {
		return fmt.Errorf("merchant not found: %s", id)
	}
	m.TotalReceived = m.TotalReceived.Add(amount)
	st.merchants[id] = m
	return nil
}

func (r *memMerchantRepo) UpdateWebhookURL(_ context.Context, id uuid.UUID, url *string) error {
	return r.s.write(func(st *memState) error {
		m, ok := st.merchants[id]
		if !ok {
			return fmt.Errorf("merchant not found: %s", id)
		}
		m.WebhookURL = url
		st.merchants[id] = m
		return nil
	})
}

type memCartRepo struct{ s *memStore }

func (r *memCartRepo) Create(_ context.Context, c *domain.Cart) error {
	return r.s.write(func(st *memState) error {
		if _, ok := st.carts[c.CartID]; ok {
			return errors.New("duplicate cart id")
		}
		st.carts[c.CartID] = *c
		return nil
	})
}

func (r *memCartRepo) GetByCartID(_ context.Context, cartID string) (*domain.Cart, error) {
	var out *domain.Cart
	r.s.read(func(st *memState) {
		if c, ok := st.carts[cartID]; ok {
			out = &c
		}
	})
	return out, nil
}

func (r *memCartRepo) GetByCartIDForUpdate(_ context.Context, tx pgx.Tx, cartID string) (*domain.Cart, error) {
	if c, ok := stateOf(tx).carts[cartID]; ok {
		return &c, nil
	}
	return nil, nil
}

func (r *memCartRepo) MarkPaid(_ context.Context, tx pgx.Tx, cartID string, p *domain.CartPayment) error {
	st := stateOf(tx)
	c, ok := st.carts[cartID]
	if !ok {
		return fmt.Errorf("cart not found: %s", cartID)
	}
	c.Status = domain.CartStatusPaid
	c.Payment = p
	c.UpdatedAt = p.PaidAt
	st.carts[cartID] = c
	return nil
}

type memIdempotencyRepo struct{ s *memStore }

func (r *memIdempotencyRepo) Claim(_ context.Context, tx pgx.Tx, l *domain.IdempotencyLog) (bool, error) {
	st := stateOf(tx)
	if _, ok := st.idem[l.Key]; ok {
		return false, nil
	}
	st.idem[l.Key] = *l
	return true, nil
}

func (r *memIdempotencyRepo) Get(_ context.Context, key string) (*domain.IdempotencyLog, error) {
	var out *domain.IdempotencyLog
	r.s.read(func(st *memState) {
		if l, ok := st.idem[key]; ok {
			out = &l
		}
	})
	return out, nil
}

// --- collaborators ---

type seqKeyGen struct {
	mu sync.Mutex
	n  int
}

func (g *seqKeyGen) Generate() (string, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("0x%040x", g.n), fmt.Sprintf("%064x", g.n), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixedRand struct{ v float64 }

func (r fixedRand) Float64() float64 { return r.v }

func newTestLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// fixture wires every in-memory repository around one store.
type fixture struct {
	store     *memStore
	users     *memUserRepo
	wallets   *memWalletRepo
	txs       *memTxRepo
	pairs     *memPairRepo
	history   *memHistoryRepo
	orders    *memOrderRepo
	trades    *memTradeRepo
	merchants *memMerchantRepo
	carts     *memCartRepo
	idem      *memIdempotencyRepo
	enc       *AESEncryptionService
	ledger    *Ledger
	events    *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := newMemStore()
	enc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	f := &fixture{
		store:     s,
		users:     &memUserRepo{s},
		wallets:   &memWalletRepo{s},
		txs:       &memTxRepo{s},
		pairs:     &memPairRepo{s},
		history:   &memHistoryRepo{s},
		orders:    &memOrderRepo{s},
		trades:    &memTradeRepo{s},
		merchants: &memMerchantRepo{s},
		carts:     &memCartRepo{s},
		idem:      &memIdempotencyRepo{s},
		enc:       enc,
		events:    &recordingPublisher{},
	}
	f.ledger = NewLedger(f.wallets, f.txs, &seqKeyGen{}, enc)
	return f
}

func (f *fixture) addUser(t *testing.T, username string) domain.User {
	t.Helper()
	u := domain.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	require.NoError(t, f.store.write(func(st *memState) error {
		st.users[u.ID] = u
		return nil
	}))
	return u
}

// fund provisions a wallet holding amount.
func (f *fixture) fund(t *testing.T, owner uuid.UUID, symbol, amount string) domain.Wallet {
	t.Helper()
	ctx := context.Background()
	tx, err := f.store.Begin(ctx)
	require.NoError(t, err)
	w, err := f.ledger.provisionWallet(ctx, tx, owner, symbol, decimal.RequireFromString(amount))
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	return *w
}

func (f *fixture) balance(t *testing.T, owner uuid.UUID, symbol string) decimal.Decimal {
	t.Helper()
	w, err := f.wallets.GetByOwner(context.Background(), owner, symbol)
	require.NoError(t, err)
	if w == nil {
		return decimal.Zero
	}
	return w.Balance
}

// totalSupply sums every balance of symbol.
func (f *fixture) totalSupply(symbol string) decimal.Decimal {
	total := decimal.Zero
	f.store.read(func(st *memState) {
		for _, w := range st.wallets {
			if w.Symbol == symbol {
				total = total.Add(w.Balance)
			}
		}
	})
	return total
}

func (f *fixture) setInactive(t *testing.T, owner uuid.UUID, symbol string) {
	t.Helper()
	require.NoError(t, f.store.write(func(st *memState) error {
		w := findWallet(st, owner, symbol)
		require.NotNil(t, w)
		w.IsActive = false
		st.wallets[w.ID] = *w
		return nil
	}))
}

func (f *fixture) addPair(t *testing.T, base, price string) domain.TradingPair {
	t.Helper()
	p := domain.TradingPair{
		ID:           uuid.New(),
		Pair:         domain.PairSymbol(base, domain.QuoteAsset),
		BaseSymbol:   base,
		QuoteSymbol:  domain.QuoteAsset,
		CurrentPrice: decimal.RequireFromString(price),
		Volume24h:    decimal.NewFromInt(1000000),
		IsActive:     true,
		LastUpdated:  time.Now().UTC().Add(-time.Minute),
	}
	_, err := f.pairs.CreateIfNotExists(context.Background(), &p)
	require.NoError(t, err)
	return p
}

func (f *fixture) setPrice(t *testing.T, pair, price string) {
	t.Helper()
	require.NoError(t, f.store.write(func(st *memState) error {
		p := st.pairs[pair]
		p.CurrentPrice = decimal.RequireFromString(price)
		st.pairs[pair] = p
		return nil
	}))
}

func (f *fixture) transactionCount() int {
	n := 0
	f.store.read(func(st *memState) { n = len(st.txs) })
	return n
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

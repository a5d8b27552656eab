// internal/service/memstore_test.go
package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"rewardvault/internal/domain"
	"rewardvault/internal/repository"
	"rewardvault/internal/util"
	"rewardvault/pkg/db"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var errInjected = errors.New("injected failure")

// memState is one consistent snapshot of every table.
type memState struct {
	users     map[uuid.UUID]domain.User
	devices   map[uuid.UUID]domain.Device
	entries   []domain.BalanceEntry
	income    []domain.IncomeRecord
	recharges map[uuid.UUID]domain.RechargeRecord
	withdraws map[uuid.UUID]domain.WithdrawRecord
	accounts  map[uuid.UUID]domain.WithdrawalAccount
}

func (s *memState) clone() *memState {
	return &memState{
		users:     cloneMap(s.users),
		devices:   cloneMap(s.devices),
		entries:   slices.Clone(s.entries),
		income:    slices.Clone(s.income),
		recharges: cloneMap(s.recharges),
		withdraws: cloneMap(s.withdraws),
		accounts:  cloneMap(s.accounts),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

// memStore is an in-memory ledger store. Transactions are fully serialized by
// mu and work on a private snapshot that replaces the committed state on Commit,
// so it behaves like a database where every transaction locks everything.
// It implements every repository interface and repository.DBExecutor.
type memStore struct {
	mu    sync.Mutex
	state *memState

	failIncome map[uuid.UUID]bool
	commits    int
	// racedCodes are claimed by a competing registration between the code
	// lookup and the insert; each fails one CreateUser.
	racedCodes map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		state: &memState{
			users:     map[uuid.UUID]domain.User{},
			devices:   map[uuid.UUID]domain.Device{},
			recharges: map[uuid.UUID]domain.RechargeRecord{},
			withdraws: map[uuid.UUID]domain.WithdrawRecord{},
			accounts:  map[uuid.UUID]domain.WithdrawalAccount{},
		},
		failIncome: map[uuid.UUID]bool{},
		racedCodes: map[string]bool{},
	}
}

func (m *memStore) GetContext(context.Context, interface{}, string, ...interface{}) error {
	panic("memStore: raw SQL not supported")
}

func (m *memStore) SelectContext(context.Context, interface{}, string, ...interface{}) error {
	panic("memStore: raw SQL not supported")
}

func (m *memStore) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	panic("memStore: raw SQL not supported")
}

func (m *memStore) QueryRowContext(context.Context, string, ...interface{}) *sql.Row {
	panic("memStore: raw SQL not supported")
}

type memTx struct {
	*memStore
	tx   *memState
	done bool
}

func (t *memTx) Commit() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	t.memStore.state = t.tx
	t.memStore.commits++
	t.memStore.mu.Unlock()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	t.memStore.mu.Unlock()
	return nil
}

func (m *memStore) beginTx(ctx context.Context, _ db.DBTxBeginner) (db.TxController, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	return &memTx{memStore: m, tx: m.state.clone()}, nil
}

func (m *memStore) runner() *TxRunner {
	return NewTxRunner(nil, m.beginTx, db.CommitTx, db.RollbackTx, 3, discardLogger())
}

// with runs fn against the transaction snapshot, or as an auto-committed
// statement when q is the store itself.
func (m *memStore) with(q repository.DBExecutor, fn func(s *memState) error) error {
	if tx, ok := q.(*memTx); ok {
		return fn(tx.tx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.state.clone()
	if err := fn(snap); err != nil {
		return err
	}
	m.state = snap
	return nil
}

// snapshot returns the committed state for assertions.
func (m *memStore) snapshot() *memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Users.

func (m *memStore) CreateUser(_ context.Context, q repository.DBExecutor, user *domain.User) error {
	return m.with(q, func(s *memState) error {
		if m.racedCodes[user.UniqueCode] {
			delete(m.racedCodes, user.UniqueCode)
			return util.ErrCodeTaken
		}
		for _, u := range s.users {
			if u.UniqueCode == user.UniqueCode {
				return util.ErrCodeTaken
			}
			if u.ID == user.ID || u.Phone == user.Phone {
				return util.ErrDuplicateEntry
			}
		}
		s.users[user.ID] = *user
		return nil
	})
}

func (m *memStore) findUser(q repository.DBExecutor, match func(u domain.User) bool) (*domain.User, error) {
	var found *domain.User
	err := m.with(q, func(s *memState) error {
		for _, u := range s.users {
			if match(u) {
				u := u
				found = &u
				return nil
			}
		}
		return util.ErrUserNotFound
	})
	return found, err
}

func (m *memStore) GetUserByID(_ context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.User, error) {
	return m.findUser(q, func(u domain.User) bool { return u.ID == id })
}

func (m *memStore) GetUserForUpdate(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.User, error) {
	return m.GetUserByID(ctx, q, id)
}

func (m *memStore) GetUserByPhone(_ context.Context, q repository.DBExecutor, phone string) (*domain.User, error) {
	return m.findUser(q, func(u domain.User) bool { return u.Phone == phone })
}

func (m *memStore) GetUserByUniqueCode(_ context.Context, q repository.DBExecutor, code string) (*domain.User, error) {
	return m.findUser(q, func(u domain.User) bool { return u.UniqueCode == code })
}

func (m *memStore) updateUser(q repository.DBExecutor, id uuid.UUID, fn func(u *domain.User)) error {
	return m.with(q, func(s *memState) error {
		u, ok := s.users[id]
		if !ok {
			return util.ErrUserNotFound
		}
		fn(&u)
		s.users[id] = u
		return nil
	})
}

func (m *memStore) UpdateUserBalance(_ context.Context, q repository.DBExecutor, id uuid.UUID, balance decimal.Decimal) error {
	return m.updateUser(q, id, func(u *domain.User) { u.Balance = balance })
}

func (m *memStore) UpdateLastCheckin(_ context.Context, q repository.DBExecutor, id uuid.UUID, at time.Time) error {
	return m.updateUser(q, id, func(u *domain.User) { u.LastCheckinAt = &at })
}

func (m *memStore) SetBlocked(_ context.Context, q repository.DBExecutor, id uuid.UUID, blocked bool) error {
	return m.updateUser(q, id, func(u *domain.User) { u.IsBlocked = blocked })
}

func (m *memStore) CountReferrals(_ context.Context, q repository.DBExecutor, code string) (int64, error) {
	var n int64
	err := m.with(q, func(s *memState) error {
		for _, u := range s.users {
			if u.InvitationCode != nil && *u.InvitationCode == code {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (m *memStore) GetPlatformStats(_ context.Context, q repository.DBExecutor) (*domain.PlatformStats, error) {
	stats := &domain.PlatformStats{TotalBalance: decimal.Zero}
	err := m.with(q, func(s *memState) error {
		for _, u := range s.users {
			stats.TotalUsers++
			stats.TotalBalance = stats.TotalBalance.Add(u.Balance)
		}
		stats.TotalDevices = int64(len(s.devices))
		return nil
	})
	return stats, err
}

// Devices.

func (m *memStore) CreateDevice(_ context.Context, q repository.DBExecutor, d *domain.Device) error {
	return m.with(q, func(s *memState) error {
		if _, ok := s.devices[d.ID]; ok {
			return util.ErrDuplicateEntry
		}
		s.devices[d.ID] = *d
		return nil
	})
}

func (m *memStore) GetDeviceByID(_ context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.Device, error) {
	var found *domain.Device
	err := m.with(q, func(s *memState) error {
		d, ok := s.devices[id]
		if !ok {
			return util.ErrDeviceNotFound
		}
		found = &d
		return nil
	})
	return found, err
}

func (m *memStore) GetDeviceForUpdate(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.Device, error) {
	return m.GetDeviceByID(ctx, q, id)
}

func (m *memStore) ListDevicesByUser(_ context.Context, q repository.DBExecutor, userID uuid.UUID) ([]domain.Device, error) {
	out := []domain.Device{}
	err := m.with(q, func(s *memState) error {
		for _, d := range s.devices {
			if d.UserID == userID {
				out = append(out, d)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b domain.Device) int { return b.PurchasedAt.Compare(a.PurchasedAt) })
	return out, err
}

func (m *memStore) CountDevicesByUser(ctx context.Context, q repository.DBExecutor, userID uuid.UUID) (int64, error) {
	devices, err := m.ListDevicesByUser(ctx, q, userID)
	return int64(len(devices)), err
}

func (m *memStore) ListEligibleDeviceIDs(_ context.Context, q repository.DBExecutor, cutoff time.Time, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := m.with(q, func(s *memState) error {
		for _, d := range s.devices {
			if !d.LastPayoutAt.After(cutoff) && bytes.Compare(d.ID[:], after[:]) > 0 {
				ids = append(ids, d.ID)
			}
		}
		return nil
	})
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	return page(ids, limit, 0), err
}

func (m *memStore) AdvancePayout(_ context.Context, q repository.DBExecutor, id uuid.UUID, expected, next time.Time) error {
	return m.with(q, func(s *memState) error {
		d, ok := s.devices[id]
		if !ok || !d.LastPayoutAt.Equal(expected) {
			return util.ErrConcurrentModification
		}
		d.LastPayoutAt = next
		s.devices[id] = d
		return nil
	})
}

// Ledger and income.

func (m *memStore) CreateEntry(_ context.Context, q repository.DBExecutor, e *domain.BalanceEntry) error {
	return m.with(q, func(s *memState) error {
		for _, existing := range s.entries {
			if existing.Kind == e.Kind && existing.Reference == e.Reference {
				return util.ErrDuplicateEntry
			}
		}
		s.entries = append(s.entries, *e)
		return nil
	})
}

func (m *memStore) ListEntriesByUser(_ context.Context, q repository.DBExecutor, userID uuid.UUID, limit, offset int) ([]domain.BalanceEntry, int64, error) {
	var all []domain.BalanceEntry
	err := m.with(q, func(s *memState) error {
		for i := len(s.entries) - 1; i >= 0; i-- {
			if s.entries[i].UserID == userID {
				all = append(all, s.entries[i])
			}
		}
		return nil
	})
	return page(all, limit, offset), int64(len(all)), err
}

func (m *memStore) CreateIncomeRecord(_ context.Context, q repository.DBExecutor, r *domain.IncomeRecord) error {
	return m.with(q, func(s *memState) error {
		if m.failIncome[r.DeviceID] {
			return errInjected
		}
		for _, existing := range s.income {
			if existing.DeviceID == r.DeviceID && existing.WindowStart.Equal(r.WindowStart) {
				return util.ErrDuplicateEntry
			}
		}
		s.income = append(s.income, *r)
		return nil
	})
}

func (m *memStore) ListIncomeByUser(_ context.Context, q repository.DBExecutor, userID uuid.UUID, limit, offset int) ([]domain.IncomeRecord, int64, error) {
	var all []domain.IncomeRecord
	err := m.with(q, func(s *memState) error {
		for i := len(s.income) - 1; i >= 0; i-- {
			if s.income[i].UserID == userID {
				all = append(all, s.income[i])
			}
		}
		return nil
	})
	return page(all, limit, offset), int64(len(all)), err
}

func (m *memStore) ListIncomeByDevice(_ context.Context, q repository.DBExecutor, deviceID uuid.UUID) ([]domain.IncomeRecord, error) {
	out := []domain.IncomeRecord{}
	err := m.with(q, func(s *memState) error {
		for _, r := range s.income {
			if r.DeviceID == deviceID {
				out = append(out, r)
			}
		}
		return nil
	})
	return out, err
}

// Recharges.

func (m *memStore) CreateRecharge(_ context.Context, q repository.DBExecutor, r *domain.RechargeRecord) error {
	return m.with(q, func(s *memState) error {
		s.recharges[r.ID] = *r
		return nil
	})
}

func (m *memStore) GetRechargeForUpdate(_ context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.RechargeRecord, error) {
	var found *domain.RechargeRecord
	err := m.with(q, func(s *memState) error {
		r, ok := s.recharges[id]
		if !ok {
			return util.ErrNotFound
		}
		found = &r
		return nil
	})
	return found, err
}

func (m *memStore) UpdateRecharge(_ context.Context, q repository.DBExecutor, r *domain.RechargeRecord) error {
	return m.with(q, func(s *memState) error {
		if _, ok := s.recharges[r.ID]; !ok {
			return util.ErrNotFound
		}
		s.recharges[r.ID] = *r
		return nil
	})
}

func (m *memStore) listRecharges(q repository.DBExecutor, match func(r domain.RechargeRecord) bool, limit, offset int) ([]domain.RechargeRecord, int64, error) {
	var all []domain.RechargeRecord
	err := m.with(q, func(s *memState) error {
		for _, r := range s.recharges {
			if match(r) {
				all = append(all, r)
			}
		}
		return nil
	})
	slices.SortFunc(all, func(a, b domain.RechargeRecord) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return page(all, limit, offset), int64(len(all)), err
}

func (m *memStore) ListRechargesByUser(_ context.Context, q repository.DBExecutor, userID uuid.UUID, limit, offset int) ([]domain.RechargeRecord, int64, error) {
	return m.listRecharges(q, func(r domain.RechargeRecord) bool { return r.UserID == userID }, limit, offset)
}

func (m *memStore) ListRechargesByStatus(_ context.Context, q repository.DBExecutor, status domain.RecordStatus, limit, offset int) ([]domain.RechargeRecord, int64, error) {
	return m.listRecharges(q, func(r domain.RechargeRecord) bool { return r.Status == status }, limit, offset)
}

// Withdrawals.

func (m *memStore) CreateWithdraw(_ context.Context, q repository.DBExecutor, r *domain.WithdrawRecord) error {
	return m.with(q, func(s *memState) error {
		s.withdraws[r.ID] = *r
		return nil
	})
}

func (m *memStore) GetWithdrawForUpdate(_ context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.WithdrawRecord, error) {
	var found *domain.WithdrawRecord
	err := m.with(q, func(s *memState) error {
		r, ok := s.withdraws[id]
		if !ok {
			return util.ErrNotFound
		}
		found = &r
		return nil
	})
	return found, err
}

func (m *memStore) UpdateWithdrawStatus(_ context.Context, q repository.DBExecutor, r *domain.WithdrawRecord) error {
	return m.with(q, func(s *memState) error {
		if _, ok := s.withdraws[r.ID]; !ok {
			return util.ErrNotFound
		}
		s.withdraws[r.ID] = *r
		return nil
	})
}

func (m *memStore) listWithdraws(q repository.DBExecutor, match func(r domain.WithdrawRecord) bool, limit, offset int) ([]domain.WithdrawRecord, int64, error) {
	var all []domain.WithdrawRecord
	err := m.with(q, func(s *memState) error {
		for _, r := range s.withdraws {
			if match(r) {
				all = append(all, r)
			}
		}
		return nil
	})
	slices.SortFunc(all, func(a, b domain.WithdrawRecord) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return page(all, limit, offset), int64(len(all)), err
}

func (m *memStore) ListWithdrawsByUser(_ context.Context, q repository.DBExecutor, userID uuid.UUID, limit, offset int) ([]domain.WithdrawRecord, int64, error) {
	return m.listWithdraws(q, func(r domain.WithdrawRecord) bool { return r.UserID == userID }, limit, offset)
}

func (m *memStore) ListWithdrawsByStatus(_ context.Context, q repository.DBExecutor, status domain.RecordStatus, limit, offset int) ([]domain.WithdrawRecord, int64, error) {
	return m.listWithdraws(q, func(r domain.WithdrawRecord) bool { return r.Status == status }, limit, offset)
}

// Withdrawal accounts.

func (m *memStore) CreateAccount(_ context.Context, q repository.DBExecutor, a *domain.WithdrawalAccount) error {
	return m.with(q, func(s *memState) error {
		for _, existing := range s.accounts {
			if existing.UserID == a.UserID && existing.AccountNumber == a.AccountNumber && existing.Provider == a.Provider {
				return util.ErrDuplicateEntry
			}
		}
		s.accounts[a.ID] = *a
		return nil
	})
}

func (m *memStore) GetAccountByID(_ context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.WithdrawalAccount, error) {
	var found *domain.WithdrawalAccount
	err := m.with(q, func(s *memState) error {
		a, ok := s.accounts[id]
		if !ok {
			return util.ErrAccountNotFound
		}
		found = &a
		return nil
	})
	return found, err
}

func (m *memStore) ListAccountsByUser(_ context.Context, q repository.DBExecutor, userID uuid.UUID) ([]domain.WithdrawalAccount, error) {
	out := []domain.WithdrawalAccount{}
	err := m.with(q, func(s *memState) error {
		for _, a := range s.accounts {
			if a.UserID == userID {
				out = append(out, a)
			}
		}
		return nil
	})
	return out, err
}

func (m *memStore) DeleteAccount(_ context.Context, q repository.DBExecutor, id, userID uuid.UUID) error {
	return m.with(q, func(s *memState) error {
		a, ok := s.accounts[id]
		if !ok || a.UserID != userID {
			return util.ErrAccountNotFound
		}
		delete(s.accounts, id)
		return nil
	})
}

// testClock is a settable clock shared by all services of a fixture.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fixture wires every service to one memStore and one clock.
type fixture struct {
	store       *memStore
	clock       *testClock
	balance     BalanceService
	accrual     AccrualService
	devices     DeviceService
	withdrawals WithdrawalService
	recharges   RechargeService
	users       UserService
}

var (
	signupBonus  = decimal.NewFromInt(20)
	checkinBonus = decimal.NewFromInt(1)
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	clock := &testClock{now: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}
	tx := store.runner()
	logger := discardLogger()

	balance := NewBalanceService(store, tx, store, store)
	return &fixture{
		store:   store,
		clock:   clock,
		balance: balance,
		accrual: NewAccrualService(store, tx, balance, store, store, 2, clock.Now, logger),
		devices: NewDeviceService(store, tx, balance, store, store, store, signupBonus, clock.Now, logger),
		withdrawals: NewWithdrawalService(store, tx, balance, store, store, store, WithdrawalPolicy{
			Minimum: decimal.NewFromInt(20),
			FeeRate: decimal.RequireFromString("0.15"),
		}, logger),
		recharges: NewRechargeService(store, tx, balance, store, store, clock.Now, logger),
		users: NewUserService(store, tx, balance, store, UserConfig{
			SignupBonus:  signupBonus,
			CheckinBonus: checkinBonus,
		}, clock.Now, logger),
	}
}

// seedUser inserts a user with the given balance, bypassing the journal.
func (f *fixture) seedUser(t *testing.T, balance int64) uuid.UUID {
	t.Helper()
	id := uuid.New()
	user := domain.NewUser(id, "024"+id.String()[:7], "", id.String()[:5], nil)
	user.Balance = decimal.NewFromInt(balance)
	require.NoError(t, f.store.CreateUser(context.Background(), f.store, user))
	return id
}

func (f *fixture) balanceOf(t *testing.T, id uuid.UUID) decimal.Decimal {
	t.Helper()
	b, err := f.balance.GetBalance(context.Background(), id)
	require.NoError(t, err)
	return b
}

func assertBalance(t *testing.T, f *fixture, id uuid.UUID, want int64) {
	t.Helper()
	got := f.balanceOf(t, id)
	require.Truef(t, got.Equal(decimal.NewFromInt(want)), "balance = %s, want %d", got, want)
}

package syncer

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradeportal/ledger"
	"github.com/rustyeddy/tradeportal/remote"
)

var errUnavailable = errors.New("backend unavailable")

// fakeBackend is an in-memory remote.Backend for one or more users.
type fakeBackend struct {
	mu sync.Mutex

	users       map[string]remote.User
	trades      map[string][]ledger.Trade
	withdrawals map[string][]ledger.Withdrawal
	goals       map[string]ledger.MonthlyGoals
	expenses    map[string]map[string]ledger.Expense
	incomes     map[string]map[string]ledger.Income
	settings    map[string]remote.Settings

	down     bool            // every call fails
	hang     bool            // every call blocks until ctx is done
	failKind map[string]bool // named calls fail
	calls    []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		users:       map[string]remote.User{},
		trades:      map[string][]ledger.Trade{},
		withdrawals: map[string][]ledger.Withdrawal{},
		goals:       map[string]ledger.MonthlyGoals{},
		expenses:    map[string]map[string]ledger.Expense{},
		incomes:     map[string]map[string]ledger.Income{},
		settings:    map[string]remote.Settings{},
		failKind:    map[string]bool{},
	}
}

func (f *fakeBackend) setDown(down bool) {
	f.mu.Lock()
	f.down = down
	f.mu.Unlock()
}

func (f *fakeBackend) setHang(hang bool) {
	f.mu.Lock()
	f.hang = hang
	f.mu.Unlock()
}

func (f *fakeBackend) setFail(call string, fail bool) {
	f.mu.Lock()
	f.failKind[call] = fail
	f.mu.Unlock()
}

func (f *fakeBackend) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

// enter records the call and reports whether it should fail. It returns
// with f.mu held on success.
func (f *fakeBackend) enter(ctx context.Context, call string) error {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	hang := f.hang
	if f.down || f.failKind[call] {
		f.mu.Unlock()
		return errUnavailable
	}
	if hang {
		f.mu.Unlock()
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (f *fakeBackend) Ping(ctx context.Context) error {
	if err := f.enter(ctx, "ping"); err != nil {
		return err
	}
	f.mu.Unlock()
	return nil
}

func (f *fakeBackend) EnsureUser(ctx context.Context, u remote.User) error {
	if err := f.enter(ctx, "ensure_user"); err != nil {
		return err
	}
	defer f.mu.Unlock()
	if _, ok := f.users[u.ID]; !ok {
		f.users[u.ID] = u
	}
	return nil
}

func (f *fakeBackend) ListTrades(ctx context.Context, userID string) ([]ledger.Trade, error) {
	if err := f.enter(ctx, "list_trades"); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	return append([]ledger.Trade{}, f.trades[userID]...), nil
}

func (f *fakeBackend) InsertTrades(ctx context.Context, userID string, trades []ledger.Trade) error {
	if err := f.enter(ctx, "insert_trades"); err != nil {
		return err
	}
	defer f.mu.Unlock()
	f.trades[userID] = append(f.trades[userID], trades...)
	return nil
}

func (f *fakeBackend) ListWithdrawals(ctx context.Context, userID string) ([]ledger.Withdrawal, error) {
	if err := f.enter(ctx, "list_withdrawals"); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	return append([]ledger.Withdrawal{}, f.withdrawals[userID]...), nil
}

func (f *fakeBackend) InsertWithdrawal(ctx context.Context, userID string, w ledger.Withdrawal) error {
	if err := f.enter(ctx, "insert_withdrawal"); err != nil {
		return err
	}
	defer f.mu.Unlock()
	f.withdrawals[userID] = append(f.withdrawals[userID], w)
	return nil
}

func (f *fakeBackend) ListGoals(ctx context.Context, userID string) (ledger.MonthlyGoals, error) {
	if err := f.enter(ctx, "list_goals"); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	out := ledger.MonthlyGoals{}
	for k, v := range f.goals[userID] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeBackend) UpsertGoal(ctx context.Context, userID, month string, amount decimal.Decimal) error {
	if err := f.enter(ctx, "upsert_goal"); err != nil {
		return err
	}
	defer f.mu.Unlock()
	if f.goals[userID] == nil {
		f.goals[userID] = ledger.MonthlyGoals{}
	}
	f.goals[userID][month] = amount
	return nil
}

func (f *fakeBackend) DeleteGoal(ctx context.Context, userID, month string) error {
	if err := f.enter(ctx, "delete_goal"); err != nil {
		return err
	}
	defer f.mu.Unlock()
	delete(f.goals[userID], month)
	return nil
}

func (f *fakeBackend) ListExpenses(ctx context.Context, userID string) ([]ledger.Expense, error) {
	if err := f.enter(ctx, "list_expenses"); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	var out []ledger.Expense
	for _, e := range f.expenses[userID] {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeBackend) UpsertExpense(ctx context.Context, userID string, e ledger.Expense) error {
	if err := f.enter(ctx, "upsert_expense"); err != nil {
		return err
	}
	defer f.mu.Unlock()
	if f.expenses[userID] == nil {
		f.expenses[userID] = map[string]ledger.Expense{}
	}
	f.expenses[userID][e.ID] = e
	return nil
}

func (f *fakeBackend) DeleteExpense(ctx context.Context, userID, id string) error {
	if err := f.enter(ctx, "delete_expense"); err != nil {
		return err
	}
	defer f.mu.Unlock()
	delete(f.expenses[userID], id)
	return nil
}

func (f *fakeBackend) ListIncomes(ctx context.Context, userID string) ([]ledger.Income, error) {
	if err := f.enter(ctx, "list_incomes"); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	var out []ledger.Income
	for _, in := range f.incomes[userID] {
		out = append(out, in)
	}
	return out, nil
}

func (f *fakeBackend) UpsertIncome(ctx context.Context, userID string, in ledger.Income) error {
	if err := f.enter(ctx, "upsert_income"); err != nil {
		return err
	}
	defer f.mu.Unlock()
	if f.incomes[userID] == nil {
		f.incomes[userID] = map[string]ledger.Income{}
	}
	f.incomes[userID][in.ID] = in
	return nil
}

func (f *fakeBackend) DeleteIncome(ctx context.Context, userID, id string) error {
	if err := f.enter(ctx, "delete_income"); err != nil {
		return err
	}
	defer f.mu.Unlock()
	delete(f.incomes[userID], id)
	return nil
}

func (f *fakeBackend) GetSettings(ctx context.Context, userID string) (remote.Settings, bool, error) {
	if err := f.enter(ctx, "get_settings"); err != nil {
		return remote.Settings{}, false, err
	}
	defer f.mu.Unlock()
	s, ok := f.settings[userID]
	return s, ok, nil
}

func (f *fakeBackend) SaveSettings(ctx context.Context, userID string, s remote.Settings) error {
	if err := f.enter(ctx, "save_settings"); err != nil {
		return err
	}
	defer f.mu.Unlock()
	f.settings[userID] = s
	return nil
}

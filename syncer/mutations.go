package syncer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rustyeddy/tradeportal/importer"
	"github.com/rustyeddy/tradeportal/internal/id"
	"github.com/rustyeddy/tradeportal/journal"
	"github.com/rustyeddy/tradeportal/ledger"
	"github.com/rustyeddy/tradeportal/remote"
)

// commit applies a locally, persists the snapshot and hands ops to push.
// A changed cash balance adds a settings write. Callers hold syncMu.
func (c *Coordinator) commit(ctx context.Context, a ledger.Action, ops ...Op) error {
	c.mu.Lock()
	before := c.state.CurrentCash
	c.state = ledger.Reduce(c.state, a)
	after := c.state.CurrentCash
	c.mu.Unlock()
	c.metrics.Mutation(a.Kind())

	if !after.Equal(before) && !hasKind(ops, OpSaveSettings) {
		ops = append(ops, saveSettingsOp(after))
	}

	var err error
	if ledger.Persistent(a) {
		if perr := c.persist(ctx); perr != nil {
			c.log.Error("save local snapshot", zap.String("action", a.Kind()), zap.Error(perr))
			err = fmt.Errorf("save local snapshot: %w", perr)
		}
	}
	c.push(ctx, ops)
	return err
}

func hasKind(ops []Op, kind OpKind) bool {
	for _, op := range ops {
		if op.Kind == kind {
			return true
		}
	}
	return false
}

func (c *Coordinator) today() string {
	return c.opts.Now().Format(ledger.DayLayout)
}

// ImportCSV parses a broker export and imports the trades it contains. It
// returns how many trades were imported.
func (c *Coordinator) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	trades, err := importer.Parse(r, c.opts.Now())
	if err != nil {
		c.dispatch(ledger.SetError{Error: "Failed to import trades"})
		return 0, err
	}
	if err := c.ImportTrades(ctx, trades); err != nil {
		return 0, err
	}
	return len(trades), nil
}

// ImportTrades appends trades to the journal.
func (c *Coordinator) ImportTrades(ctx context.Context, trades []ledger.Trade) error {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	c.dispatch(ledger.SetLoading{Loading: true})
	var ops []Op
	if len(trades) > 0 {
		ops = append(ops, insertTradesOp(trades))
	}
	return c.commit(ctx, ledger.ImportTrades{Trades: trades}, ops...)
}

// AddWithdrawal records a payout. ID and Date are filled in when empty.
func (c *Coordinator) AddWithdrawal(ctx context.Context, w ledger.Withdrawal) (ledger.Withdrawal, error) {
	if strings.TrimSpace(w.Account) == "" {
		return w, fmt.Errorf("%w: withdrawal account is required", ErrInvalid)
	}
	if !w.Amount.IsPositive() {
		return w, fmt.Errorf("%w: withdrawal amount must be positive", ErrInvalid)
	}
	if w.ID == "" {
		w.ID = id.New()
	}
	if w.Date == "" {
		w.Date = c.today()
	}

	c.syncMu.Lock()
	defer c.syncMu.Unlock()
	return w, c.commit(ctx, ledger.AddWithdrawal{Withdrawal: w}, insertWithdrawalOp(w))
}

func (c *Coordinator) SetMonthlyGoal(ctx context.Context, month string, amount decimal.Decimal) error {
	if strings.TrimSpace(month) == "" {
		return fmt.Errorf("%w: goal month is required", ErrInvalid)
	}
	c.syncMu.Lock()
	defer c.syncMu.Unlock()
	return c.commit(ctx, ledger.SetMonthlyGoal{Month: month, Amount: amount}, upsertGoalOp(month, amount))
}

func (c *Coordinator) DeleteMonthlyGoal(ctx context.Context, month string) error {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()
	return c.commit(ctx, ledger.DeleteMonthlyGoal{Month: month}, deleteGoalOp(month))
}

func (c *Coordinator) SetCurrentCash(ctx context.Context, amount decimal.Decimal) error {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()
	return c.commit(ctx, ledger.SetCurrentCash{Amount: amount}, saveSettingsOp(amount))
}

// AddExpense stores a new expense. ID and CreatedAt are filled in when
// empty; a paid expense is taken out of cash.
func (c *Coordinator) AddExpense(ctx context.Context, e ledger.Expense) (ledger.Expense, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = c.createdAt(e.ID)
	}
	if e.ID == "" {
		e.ID = id.New()
	}
	c.syncMu.Lock()
	defer c.syncMu.Unlock()
	return e, c.commit(ctx, ledger.AddExpense{Expense: e}, upsertExpenseOp(e))
}

// createdAt dates a new record from its ID when the ID is a ULID minted
// elsewhere, and from the clock otherwise.
func (c *Coordinator) createdAt(recordID string) time.Time {
	if ts, err := id.Time(recordID); err == nil {
		return ts
	}
	return c.opts.Now()
}

// UpdateExpense replaces the expense with the same ID.
func (c *Coordinator) UpdateExpense(ctx context.Context, e ledger.Expense) (ledger.Expense, error) {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	old, ok := c.findExpense(e.ID)
	if !ok {
		return e, fmt.Errorf("expense %q: %w", e.ID, ErrNotFound)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = old.CreatedAt
	}
	return e, c.commit(ctx, ledger.UpdateExpense{Expense: e}, upsertExpenseOp(e))
}

func (c *Coordinator) DeleteExpense(ctx context.Context, expenseID string) error {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	if _, ok := c.findExpense(expenseID); !ok {
		return fmt.Errorf("expense %q: %w", expenseID, ErrNotFound)
	}
	return c.commit(ctx, ledger.DeleteExpense{ID: expenseID}, deleteExpenseOp(expenseID))
}

// AddIncome stores a new income. A received income is added to cash.
func (c *Coordinator) AddIncome(ctx context.Context, in ledger.Income) (ledger.Income, error) {
	if in.CreatedAt.IsZero() {
		in.CreatedAt = c.createdAt(in.ID)
	}
	if in.ID == "" {
		in.ID = id.New()
	}
	c.syncMu.Lock()
	defer c.syncMu.Unlock()
	return in, c.commit(ctx, ledger.AddIncome{Income: in}, upsertIncomeOp(in))
}

func (c *Coordinator) UpdateIncome(ctx context.Context, in ledger.Income) (ledger.Income, error) {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	old, ok := c.findIncome(in.ID)
	if !ok {
		return in, fmt.Errorf("income %q: %w", in.ID, ErrNotFound)
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = old.CreatedAt
	}
	return in, c.commit(ctx, ledger.UpdateIncome{Income: in}, upsertIncomeOp(in))
}

func (c *Coordinator) DeleteIncome(ctx context.Context, incomeID string) error {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	if _, ok := c.findIncome(incomeID); !ok {
		return fmt.Errorf("income %q: %w", incomeID, ErrNotFound)
	}
	return c.commit(ctx, ledger.DeleteIncome{ID: incomeID}, deleteIncomeOp(incomeID))
}

func (c *Coordinator) findExpense(expenseID string) (ledger.Expense, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.state.Expenses {
		if e.ID == expenseID {
			return e, true
		}
	}
	return ledger.Expense{}, false
}

func (c *Coordinator) findIncome(incomeID string) (ledger.Income, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, in := range c.state.Incomes {
		if in.ID == incomeID {
			return in, true
		}
	}
	return ledger.Income{}, false
}

// ClearData wipes the local state, snapshot and outbox. Remote data is
// left untouched.
func (c *Coordinator) ClearData(ctx context.Context) error {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	c.dispatch(ledger.ClearData{})
	c.metrics.Mutation(ledger.ClearData{}.Kind())

	c.mu.Lock()
	c.outbox = nil
	c.mu.Unlock()

	if err := journal.ClearSnapshot(ctx, c.opts.Store); err != nil {
		c.dispatch(ledger.SetError{Error: "Failed to clear data"})
		return fmt.Errorf("clear snapshot: %w", err)
	}
	if err := c.saveOutbox(ctx); err != nil {
		return fmt.Errorf("clear pending queue: %w", err)
	}
	c.log.Info("all data cleared")
	return nil
}

// SignOut detaches the user. Local data and queued writes are kept. Later
// writes are queued and sent after the next SignIn.
func (c *Coordinator) SignOut(ctx context.Context) error {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	c.dispatch(ledger.SetLoading{Loading: true})
	c.dispatch(ledger.SetError{Error: ""})

	c.setOnline(false, nil)
	c.mu.Lock()
	c.user = remote.User{}
	c.mu.Unlock()

	c.dispatch(ledger.SetLoading{Loading: false})
	c.log.Info("signed out")
	return nil
}

// SignIn attaches u and loads its remote data, falling back to offline
// mode like Start does.
func (c *Coordinator) SignIn(ctx context.Context, u remote.User) error {
	if u.ID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalid)
	}
	if c.opts.Backend == nil {
		return ErrLocalOnly
	}

	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	c.mu.Lock()
	c.user = u
	c.online = false
	c.mu.Unlock()
	c.claimUnowned(ctx, u.ID)

	c.dispatch(ledger.SetLoading{Loading: true})
	if err := c.connect(ctx, c.opts.InitialTimeout); err != nil {
		c.setOnline(false, err)
		c.dispatch(ledger.SetError{Error: OfflineMessage})
	}
	c.startProbe()
	return nil
}

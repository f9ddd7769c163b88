package syncer

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradeportal/internal/id"
	"github.com/rustyeddy/tradeportal/internal/metrics"
	"github.com/rustyeddy/tradeportal/journal"
	"github.com/rustyeddy/tradeportal/ledger"
	"github.com/rustyeddy/tradeportal/remote"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func testOptions(store journal.Store, backend remote.Backend) Options {
	opts := Options{
		Store:          store,
		Now:            func() time.Time { return testNow },
		InitialTimeout: time.Second,
		RetryDelay:     10 * time.Millisecond,
		RetryTimeout:   time.Second,
		WriteTimeout:   200 * time.Millisecond,
		ProbeInterval:  time.Hour,
		ProbeTimeout:   200 * time.Millisecond,
		Metrics:        metrics.New(nil),
	}
	if backend != nil {
		opts.Backend = backend
		opts.User = remote.User{ID: "u1", Email: "trader@example.com"}
	}
	return opts
}

func newCoordinator(t *testing.T, opts Options) *Coordinator {
	t.Helper()
	c, err := New(opts)
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func ts(day string) time.Time {
	t, _ := time.Parse(ledger.DayLayout, day)
	return t.Add(14 * time.Hour)
}

func sampleTrades() []ledger.Trade {
	return []ledger.Trade{
		{ID: "A1", Account: "PA-1", Date: "2025-03-03", Symbol: "NQ", Side: ledger.Long, Quantity: 1, Profit: decimal.NewFromInt(500), Timestamp: ts("2025-03-03")},
		{ID: "A2", Account: "EVAL-1", Date: "2025-03-04", Symbol: "ES", Side: ledger.Short, Quantity: 1, Profit: decimal.NewFromInt(-200), Timestamp: ts("2025-03-04")},
	}
}

func TestNewRequiresStore(t *testing.T) {
	t.Parallel()

	_, err := New(Options{})
	assert.Error(t, err)
}

func TestLocalOnly(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := journal.NewMemoryStore()
	c := newCoordinator(t, testOptions(store, nil))

	require.NoError(t, c.ImportTrades(ctx, sampleTrades()))
	w, err := c.AddWithdrawal(ctx, ledger.Withdrawal{Account: "PA-1", Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)
	assert.NotEmpty(t, w.ID)
	assert.Equal(t, "2025-03-10", w.Date)

	st := c.Status()
	assert.False(t, st.Remote)
	assert.False(t, st.Online)
	assert.Zero(t, st.Pending)
	assert.Empty(t, st.Error)

	_, err = c.ProbeNow(ctx)
	assert.ErrorIs(t, err, ErrLocalOnly)
	assert.NoError(t, c.Reload(ctx))

	s := c.State()
	assert.Len(t, s.Trades, 2)
	assert.True(t, decimal.NewFromInt(100400).Equal(s.Accounts["PA-1"].CurrentBalance))
	assert.False(t, s.Loading)

	// a fresh coordinator on the same store sees the same state
	again, err := New(testOptions(store, nil))
	require.NoError(t, err)
	require.NoError(t, again.Start(ctx))
	restored := again.State()
	assert.Len(t, restored.Trades, 2)
	assert.Len(t, restored.Withdrawals, 1)
	assert.True(t, s.Accounts["PA-1"].CurrentBalance.Equal(restored.Accounts["PA-1"].CurrentBalance))
}

func TestStartLoadsRemote(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fb := newFakeBackend()
	fb.trades["u1"] = sampleTrades()
	fb.goals["u1"] = ledger.MonthlyGoals{"March 2025": decimal.NewFromInt(1000)}
	fb.settings["u1"] = remote.Settings{CurrentCash: decimal.NewFromInt(2500)}

	c := newCoordinator(t, testOptions(journal.NewMemoryStore(), fb))

	st := c.Status()
	assert.True(t, st.Remote)
	assert.True(t, st.Online)
	assert.Equal(t, "trader@example.com", st.User)
	assert.Equal(t, testNow, st.LastSync)
	assert.Contains(t, fb.users, "u1")

	s := c.State()
	assert.Len(t, s.Trades, 2)
	assert.Len(t, s.Accounts, 2)
	assert.True(t, decimal.NewFromInt(2500).Equal(s.CurrentCash))
	assert.False(t, s.Loading)
	assert.Empty(t, s.Error)

	require.NoError(t, c.SetMonthlyGoal(ctx, "April 2025", decimal.NewFromInt(3000)))
	assert.True(t, decimal.NewFromInt(3000).Equal(fb.goals["u1"]["April 2025"]))
	assert.Zero(t, c.Status().Pending)
}

func TestStartRetriesOnceThenGoesOffline(t *testing.T) {
	t.Parallel()

	fb := newFakeBackend()
	fb.setDown(true)

	store := journal.NewMemoryStore()
	require.NoError(t, journal.SaveSnapshot(context.Background(), store,
		ledger.Reduce(ledger.Empty(), ledger.ImportTrades{Trades: sampleTrades()})))

	c := newCoordinator(t, testOptions(store, fb))

	assert.Equal(t, 2, fb.count("ensure_user"))
	st := c.Status()
	assert.False(t, st.Online)
	assert.Equal(t, OfflineMessage, st.Error)
	assert.Equal(t, OfflineUser, st.User)
	assert.Contains(t, st.LastError, "backend unavailable")

	s := c.State()
	assert.Len(t, s.Trades, 2, "local snapshot is kept")
	assert.False(t, s.Loading)
}

func TestInitialLoadTimesOut(t *testing.T) {
	t.Parallel()

	fb := newFakeBackend()
	fb.setHang(true)

	opts := testOptions(journal.NewMemoryStore(), fb)
	opts.InitialTimeout = 50 * time.Millisecond
	opts.RetryTimeout = 50 * time.Millisecond

	start := time.Now()
	c := newCoordinator(t, opts)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.False(t, c.Status().Online)
	assert.Equal(t, OfflineMessage, c.Status().Error)
}

func TestOfflineWritesQueueAndFlushInOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fb := newFakeBackend()
	fb.setDown(true)
	store := journal.NewMemoryStore()
	c := newCoordinator(t, testOptions(store, fb))
	require.False(t, c.Status().Online)

	require.NoError(t, c.ImportTrades(ctx, sampleTrades()))
	require.NoError(t, c.SetMonthlyGoal(ctx, "March 2025", decimal.NewFromInt(1000)))
	require.NoError(t, c.SetMonthlyGoal(ctx, "March 2025", decimal.NewFromInt(1500)))
	_, err := c.AddWithdrawal(ctx, ledger.Withdrawal{Account: "PA-1", Amount: decimal.NewFromInt(250), Date: "2025-03-05"})
	require.NoError(t, err)

	assert.Equal(t, 4, c.Status().Pending)
	var queued []Op
	found, err := journal.LoadJSON(ctx, store, PendingKey, &queued)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, queued, 4)
	assert.Equal(t, OpInsertTrades, queued[0].Kind)
	assert.Equal(t, "u1", queued[0].UserID)

	// still down: probe fails and nothing is lost
	ok, err := c.ProbeNow(ctx)
	assert.False(t, ok)
	assert.Error(t, err)
	assert.Equal(t, 4, c.Status().Pending)

	fb.setDown(false)
	ok, err = c.ProbeNow(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	st := c.Status()
	assert.True(t, st.Online)
	assert.Zero(t, st.Pending)
	assert.Empty(t, st.Error)

	_, found, err = store.Get(ctx, PendingKey)
	require.NoError(t, err)
	assert.False(t, found)

	assert.Len(t, fb.trades["u1"], 2)
	assert.True(t, decimal.NewFromInt(1500).Equal(fb.goals["u1"]["March 2025"]), "later goal write wins")
	assert.Len(t, fb.withdrawals["u1"], 1)

	// the reload after the flush keeps the offline edits
	s := c.State()
	assert.Len(t, s.Trades, 2)
	assert.Len(t, s.Withdrawals, 1)
	assert.True(t, decimal.NewFromInt(100250).Equal(s.Accounts["PA-1"].CurrentBalance))
}

func TestWriteFailureGoesOffline(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fb := newFakeBackend()
	reg := metrics.New(nil)
	opts := testOptions(journal.NewMemoryStore(), fb)
	opts.Metrics = reg
	c := newCoordinator(t, opts)
	require.True(t, c.Status().Online)

	fb.setFail("insert_trades", true)
	require.NoError(t, c.ImportTrades(ctx, sampleTrades()), "remote failures are not returned")

	st := c.Status()
	assert.False(t, st.Online)
	assert.Equal(t, 1, st.Pending)
	assert.Len(t, c.State().Trades, 2, "local state is updated optimistically")
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.RemoteErrors.WithLabelValues("insert_trades")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.ModeTransitions.WithLabelValues("offline")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.PendingOps))

	// offline: later writes skip the backend entirely
	before := fb.count("upsert_goal")
	require.NoError(t, c.SetMonthlyGoal(ctx, "March 2025", decimal.NewFromInt(10)))
	assert.Equal(t, before, fb.count("upsert_goal"))
	assert.Equal(t, 2, c.Status().Pending)
}

func TestWriteTimeoutGoesOffline(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fb := newFakeBackend()
	c := newCoordinator(t, testOptions(journal.NewMemoryStore(), fb))

	fb.setHang(true)
	start := time.Now()
	require.NoError(t, c.SetCurrentCash(ctx, decimal.NewFromInt(900)))
	assert.Less(t, time.Since(start), 2*time.Second)

	assert.False(t, c.Status().Online)
	assert.Contains(t, c.Status().LastError, "deadline exceeded")
	assert.True(t, decimal.NewFromInt(900).Equal(c.State().CurrentCash))
}

func TestFlushStopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fb := newFakeBackend()
	fb.setDown(true)
	c := newCoordinator(t, testOptions(journal.NewMemoryStore(), fb))

	require.NoError(t, c.SetMonthlyGoal(ctx, "March 2025", decimal.NewFromInt(1)))
	_, err := c.AddWithdrawal(ctx, ledger.Withdrawal{Account: "PA-1", Amount: decimal.NewFromInt(5)})
	require.NoError(t, err)
	require.NoError(t, c.SetMonthlyGoal(ctx, "April 2025", decimal.NewFromInt(2)))

	fb.setDown(false)
	fb.setFail("insert_withdrawal", true)
	ok, err := c.ProbeNow(ctx)
	assert.False(t, ok)
	assert.ErrorContains(t, err, "insert_withdrawal")

	st := c.Status()
	assert.False(t, st.Online)
	assert.Equal(t, 2, st.Pending)
	assert.Contains(t, fb.goals["u1"], "March 2025")
	assert.NotContains(t, fb.goals["u1"], "April 2025")
}

func TestPaidExpenseSyncsCash(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fb := newFakeBackend()
	c := newCoordinator(t, testOptions(journal.NewMemoryStore(), fb))

	require.NoError(t, c.SetCurrentCash(ctx, decimal.NewFromInt(1000)))
	e, err := c.AddExpense(ctx, ledger.Expense{Category: "Bills", Amount: decimal.NewFromInt(200), DueDate: "2025-03-12"})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, testNow, e.CreatedAt)
	assert.True(t, decimal.NewFromInt(1000).Equal(fb.settings["u1"].CurrentCash), "unpaid expense leaves cash")

	e.IsPaid = true
	_, err = c.UpdateExpense(ctx, e)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(800).Equal(c.State().CurrentCash))
	assert.True(t, decimal.NewFromInt(800).Equal(fb.settings["u1"].CurrentCash))
	assert.True(t, fb.expenses["u1"][e.ID].IsPaid)

	require.NoError(t, c.DeleteExpense(ctx, e.ID))
	assert.True(t, decimal.NewFromInt(1000).Equal(fb.settings["u1"].CurrentCash))
	assert.NotContains(t, fb.expenses["u1"], e.ID)
}

func TestIncomeLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newCoordinator(t, testOptions(journal.NewMemoryStore(), nil))

	in, err := c.AddIncome(ctx, ledger.Income{Category: "Salary", Amount: decimal.NewFromInt(900), Date: "2025-03-15", IsPaid: true})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(900).Equal(c.State().CurrentCash))

	in.Amount = decimal.NewFromInt(1000)
	in.CreatedAt = time.Time{}
	updated, err := c.UpdateIncome(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, testNow, updated.CreatedAt, "created time is kept")
	assert.True(t, decimal.NewFromInt(1000).Equal(c.State().CurrentCash))

	require.NoError(t, c.DeleteIncome(ctx, in.ID))
	assert.True(t, c.State().CurrentCash.IsZero())
	assert.Empty(t, c.State().Incomes)
}

func TestUnknownRecords(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newCoordinator(t, testOptions(journal.NewMemoryStore(), nil))

	_, err := c.UpdateExpense(ctx, ledger.Expense{ID: "nope"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, c.DeleteExpense(ctx, "nope"), ErrNotFound)
	_, err = c.UpdateIncome(ctx, ledger.Income{ID: "nope"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, c.DeleteIncome(ctx, "nope"), ErrNotFound)
}

func TestValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newCoordinator(t, testOptions(journal.NewMemoryStore(), nil))

	_, err := c.AddWithdrawal(ctx, ledger.Withdrawal{Amount: decimal.NewFromInt(5)})
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = c.AddWithdrawal(ctx, ledger.Withdrawal{Account: "PA-1"})
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorIs(t, c.SetMonthlyGoal(ctx, " ", decimal.NewFromInt(1)), ErrInvalid)
	assert.Empty(t, c.State().Withdrawals)
}

func TestImportCSV(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newCoordinator(t, testOptions(journal.NewMemoryStore(), nil))

	csv := "name,order_id,symbol,mov_time,mov_type,exec_qty,price_done,points,profit\n" +
		"PA-1,O1,NQ,2025-03-03 09:31:00,1,2,18000,10,400\n" +
		"PA-1,O2,NQ,2025-03-03 10:00:00,-1,1,18010,-5,0\n" +
		"PA-1,O3,NQ,2025-03-03 10:30:00,-1,1,18010,-5,-100\n"

	n, err := c.ImportCSV(ctx, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, c.State().Trades, 2)
	assert.True(t, decimal.NewFromInt(100300).Equal(c.State().Accounts["PA-1"].CurrentBalance))

	_, err = c.ImportCSV(ctx, strings.NewReader("name,profit\nPA-1,\"12"))
	assert.Error(t, err)
	assert.Equal(t, "Failed to import trades", c.State().Error)
}

func TestClearData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fb := newFakeBackend()
	fb.setDown(true)
	store := journal.NewMemoryStore()
	c := newCoordinator(t, testOptions(store, fb))

	require.NoError(t, c.ImportTrades(ctx, sampleTrades()))
	require.Equal(t, 1, c.Status().Pending)

	require.NoError(t, c.ClearData(ctx))
	s := c.State()
	assert.Empty(t, s.Trades)
	assert.Empty(t, s.Accounts)
	assert.Zero(t, c.Status().Pending)

	for _, key := range []string{journal.SnapshotKey, PendingKey} {
		_, found, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, found, key)
	}
}

func TestSignOutKeepsData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fb := newFakeBackend()
	fb.trades["u1"] = sampleTrades()
	c := newCoordinator(t, testOptions(journal.NewMemoryStore(), fb))
	require.True(t, c.Status().Online)

	require.NoError(t, c.SignOut(ctx))
	st := c.Status()
	assert.False(t, st.Remote)
	assert.False(t, st.Online)
	assert.False(t, st.Loading)
	assert.Len(t, c.State().Trades, 2)

	// signed out: writes wait in the outbox
	before := fb.count("upsert_goal")
	require.NoError(t, c.SetMonthlyGoal(ctx, "March 2025", decimal.NewFromInt(1)))
	assert.Equal(t, before, fb.count("upsert_goal"))
	assert.Equal(t, 1, c.Status().Pending)

	require.NoError(t, c.SignIn(ctx, remote.User{ID: "u1"}))
	assert.True(t, c.Status().Online)
	assert.Zero(t, c.Status().Pending)
	assert.True(t, decimal.NewFromInt(1).Equal(fb.goals["u1"]["March 2025"]))
}

func TestSignedOutEditsSurviveSignIn(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fb := newFakeBackend()
	c := newCoordinator(t, testOptions(journal.NewMemoryStore(), fb))
	require.True(t, c.Status().Online)
	require.NoError(t, c.ImportTrades(ctx, sampleTrades()))

	require.NoError(t, c.SignOut(ctx))
	w, err := c.AddWithdrawal(ctx, ledger.Withdrawal{Account: "PA-1", Amount: decimal.NewFromInt(250)})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Status().Pending)
	assert.Zero(t, fb.count("insert_withdrawal"))

	require.NoError(t, c.SignIn(ctx, remote.User{ID: "u1"}))
	st := c.Status()
	assert.True(t, st.Online)
	assert.Zero(t, st.Pending)
	assert.Equal(t, 1, fb.count("insert_withdrawal"))

	s := c.State()
	require.Len(t, s.Withdrawals, 1)
	assert.Equal(t, w.ID, s.Withdrawals[0].ID)
	assert.True(t, decimal.NewFromInt(250).Equal(s.Accounts["PA-1"].Withdrawn))
}

func TestSignedOutEditsKeptWhenSignInFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fb := newFakeBackend()
	store := journal.NewMemoryStore()
	c := newCoordinator(t, testOptions(store, fb))

	require.NoError(t, c.SignOut(ctx))
	require.NoError(t, c.SetCurrentCash(ctx, decimal.NewFromInt(700)))

	fb.setDown(true)
	require.NoError(t, c.SignIn(ctx, remote.User{ID: "u1"}))
	assert.False(t, c.Status().Online)
	assert.Equal(t, 1, c.Status().Pending)

	var queued []Op
	found, err := journal.LoadJSON(ctx, store, PendingKey, &queued)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, queued, 1)
	assert.Equal(t, "u1", queued[0].UserID)
	assert.True(t, decimal.NewFromInt(700).Equal(c.State().CurrentCash))
}

func TestUnownedQueueClaimedAtStart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := journal.NewMemoryStore()
	require.NoError(t, journal.SaveJSON(ctx, store, PendingKey, []Op{upsertGoalOp("May 2025", decimal.NewFromInt(800))}))

	fb := newFakeBackend()
	c := newCoordinator(t, testOptions(store, fb))
	assert.True(t, c.Status().Online)
	assert.Zero(t, c.Status().Pending)
	assert.True(t, decimal.NewFromInt(800).Equal(fb.goals["u1"]["May 2025"]))
	assert.True(t, decimal.NewFromInt(800).Equal(c.State().MonthlyGoals["May 2025"]))
}

func TestBackgroundReconnect(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fb := newFakeBackend()
	fb.setDown(true)
	opts := testOptions(journal.NewMemoryStore(), fb)
	opts.ProbeInterval = time.Second
	c := newCoordinator(t, opts)
	require.False(t, c.Status().Online)

	require.NoError(t, c.SetMonthlyGoal(ctx, "March 2025", decimal.NewFromInt(900)))
	require.Equal(t, 1, c.Status().Pending)

	fb.setDown(false)
	assert.Eventually(t, func() bool {
		st := c.Status()
		return st.Online && st.Pending == 0
	}, 5*time.Second, 50*time.Millisecond)
	assert.Equal(t, 1, fb.count("upsert_goal"))

	// the scheduled check stays quiet while online
	pings := fb.count("ping")
	time.Sleep(2200 * time.Millisecond)
	assert.Equal(t, pings, fb.count("ping"))
	assert.True(t, c.Status().Online)
}

func TestQueuedOpsForAnotherUserAreDropped(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fb := newFakeBackend()
	fb.setDown(true)
	c := newCoordinator(t, testOptions(journal.NewMemoryStore(), fb))

	require.NoError(t, c.SetMonthlyGoal(ctx, "March 2025", decimal.NewFromInt(1)))
	require.NoError(t, c.SignOut(ctx))

	fb.setDown(false)
	require.NoError(t, c.SignIn(ctx, remote.User{ID: "u2"}))
	assert.True(t, c.Status().Online)
	assert.Zero(t, c.Status().Pending)
	assert.Empty(t, fb.goals["u2"])
	assert.Empty(t, fb.goals["u1"])
}

func TestReloadReplacesLocalWithRemote(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fb := newFakeBackend()
	c := newCoordinator(t, testOptions(journal.NewMemoryStore(), fb))
	assert.Empty(t, c.State().Trades)

	fb.mu.Lock()
	fb.trades["u1"] = sampleTrades()
	fb.mu.Unlock()

	require.NoError(t, c.Reload(ctx))
	assert.Len(t, c.State().Trades, 2)

	fb.setDown(true)
	assert.Error(t, c.Reload(ctx))
	assert.False(t, c.Status().Online)
	assert.Len(t, c.State().Trades, 2, "failed reload keeps local data")
}

func TestOpApplyUnknownKind(t *testing.T) {
	t.Parallel()

	err := Op{Kind: "bogus"}.Apply(context.Background(), newFakeBackend())
	assert.ErrorContains(t, err, "unknown op kind")

	err = Op{Kind: OpUpsertGoal, Month: "March 2025"}.Apply(context.Background(), newFakeBackend())
	assert.ErrorContains(t, err, "missing amount")
}

func TestSavedAt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	mem := newCoordinator(t, testOptions(journal.NewMemoryStore(), nil))
	require.NoError(t, mem.SetCurrentCash(ctx, decimal.NewFromInt(1)))
	_, ok := mem.SavedAt(ctx)
	assert.False(t, ok, "memory store keeps no write times")

	store, err := journal.NewSQLite(filepath.Join(t.TempDir(), "portal.db"))
	require.NoError(t, err)
	c := newCoordinator(t, testOptions(store, nil))
	_, ok = c.SavedAt(ctx)
	assert.False(t, ok)

	before := time.Now().Add(-time.Second)
	require.NoError(t, c.SetCurrentCash(ctx, decimal.NewFromInt(1)))
	at, ok := c.SavedAt(ctx)
	require.True(t, ok)
	assert.True(t, at.After(before))
}

func TestCreatedAtFromRecordID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newCoordinator(t, testOptions(journal.NewMemoryStore(), nil))

	minted := id.New()
	want, err := id.Time(minted)
	require.NoError(t, err)
	e, err := c.AddExpense(ctx, ledger.Expense{ID: minted, Description: "rent", Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)
	assert.True(t, want.Equal(e.CreatedAt))

	in, err := c.AddIncome(ctx, ledger.Income{ID: "legacy-7", Description: "refund", Amount: decimal.NewFromInt(5)})
	require.NoError(t, err)
	assert.True(t, testNow.Equal(in.CreatedAt))

	e, err = c.AddExpense(ctx, ledger.Expense{Description: "gym", Amount: decimal.NewFromInt(40)})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.True(t, testNow.Equal(e.CreatedAt))
}

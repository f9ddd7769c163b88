// Package syncer owns the portal state and keeps it in step with the local
// store and, when one is configured, the remote backend. Mutations apply
// locally first; remote writes that fail switch the coordinator to offline
// mode and are queued until a probe finds the backend again.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/tradeportal/internal/cron"
	"github.com/rustyeddy/tradeportal/internal/logger"
	"github.com/rustyeddy/tradeportal/internal/metrics"
	"github.com/rustyeddy/tradeportal/journal"
	"github.com/rustyeddy/tradeportal/ledger"
	"github.com/rustyeddy/tradeportal/remote"
)

// PendingKey is the local store key holding the outbox.
const PendingKey = journal.SnapshotKey + ".pending"

const (
	// OfflineMessage is set as the state error when the initial load gives up.
	OfflineMessage = "Using offline mode - data saved locally"

	// OfflineUser is reported as the user while in offline mode.
	OfflineUser = "offline@local"
)

var (
	// ErrNotFound is returned when updating or deleting an unknown record.
	ErrNotFound = errors.New("syncer: record not found")

	// ErrInvalid wraps input validation failures.
	ErrInvalid = errors.New("syncer: invalid input")

	// ErrLocalOnly is returned by remote-only operations when no backend or
	// user is configured.
	ErrLocalOnly = errors.New("syncer: no remote backend configured")
)

// Options configures a Coordinator. Store is required; everything else is
// optional. Zero durations take the defaults.
type Options struct {
	Store   journal.Store
	Backend remote.Backend
	User    remote.User

	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Now     func() time.Time

	InitialTimeout time.Duration
	RetryDelay     time.Duration
	RetryTimeout   time.Duration
	WriteTimeout   time.Duration
	ProbeInterval  time.Duration
	ProbeTimeout   time.Duration
}

func (o *Options) setDefaults() {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	def := func(d *time.Duration, v time.Duration) {
		if *d <= 0 {
			*d = v
		}
	}
	def(&o.InitialTimeout, 10*time.Second)
	def(&o.RetryDelay, 2*time.Second)
	def(&o.RetryTimeout, 5*time.Second)
	def(&o.WriteTimeout, 10*time.Second)
	def(&o.ProbeInterval, time.Minute)
	def(&o.ProbeTimeout, 3*time.Second)
}

// Status describes the sync side of the coordinator.
type Status struct {
	Remote    bool      `json:"remote"`
	Online    bool      `json:"online"`
	Pending   int       `json:"pending"`
	LastSync  time.Time `json:"lastSync,omitempty"`
	LastError string    `json:"lastError,omitempty"`
	Error     string    `json:"error,omitempty"`
	Loading   bool      `json:"loading"`
	User      string    `json:"user,omitempty"`
}

type Coordinator struct {
	opts    Options
	log     *zap.Logger
	metrics *metrics.Metrics

	// mu guards the fields below it.
	mu        sync.RWMutex
	state     ledger.State
	user      remote.User
	online    bool
	outbox    []Op
	lastSync  time.Time
	lastError string

	// syncMu serializes mutations, probes, flushes and reloads.
	syncMu sync.Mutex

	runner *cron.Runner
	cancel context.CancelFunc
}

func New(opts Options) (*Coordinator, error) {
	if opts.Store == nil {
		return nil, errors.New("syncer: store is required")
	}
	opts.setDefaults()
	return &Coordinator{
		opts:    opts,
		log:     logger.OrNop(opts.Logger).Named("syncer"),
		metrics: opts.Metrics,
		state:   ledger.Empty(),
		user:    opts.User,
	}, nil
}

// remoteEnabled reports whether remote writes should be attempted at all.
// Callers hold mu.
func (c *Coordinator) remoteEnabled() bool {
	return c.opts.Backend != nil && c.user.ID != ""
}

// Start restores the local snapshot and outbox, then, if a backend and user
// are configured, loads remote data. The initial load is retried once;
// after that the coordinator runs offline and a background probe watches
// for the backend to come back. Start only fails on local store errors.
func (c *Coordinator) Start(ctx context.Context) error {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	snap, found, err := journal.LoadSnapshot(ctx, c.opts.Store)
	switch {
	case err != nil && !found:
		return fmt.Errorf("load local snapshot: %w", err)
	case err != nil:
		c.log.Warn("local snapshot unreadable, starting empty", zap.Error(err))
	case found:
		c.dispatch(ledger.LoadSnapshot{Snapshot: snap})
		c.log.Info("restored local snapshot", zap.Int("trades", len(snap.Trades)))
	}

	var outbox []Op
	if _, err := journal.LoadJSON(ctx, c.opts.Store, PendingKey, &outbox); err != nil {
		c.log.Warn("pending queue unreadable, dropping it", zap.Error(err))
		outbox = nil
	}
	c.mu.Lock()
	c.outbox = outbox
	remoteOn, uid := c.remoteEnabled(), c.user.ID
	c.mu.Unlock()
	c.metrics.SetPending(len(outbox))

	if !remoteOn {
		c.log.Info("no remote backend configured, running local-only")
		return nil
	}
	c.claimUnowned(ctx, uid)

	c.dispatch(ledger.SetLoading{Loading: true})
	err = c.connect(ctx, c.opts.InitialTimeout)
	if err != nil {
		c.log.Warn("initial load failed, retrying once", zap.Error(err), zap.Duration("delay", c.opts.RetryDelay))
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-time.After(c.opts.RetryDelay):
			err = c.connect(ctx, c.opts.RetryTimeout)
		}
	}
	if err != nil {
		c.log.Warn("switching to offline mode", zap.Error(err))
		c.setOnline(false, err)
		c.dispatch(ledger.SetError{Error: OfflineMessage})
	}

	c.startProbe()
	return nil
}

func (c *Coordinator) startProbe() {
	if c.runner != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.runner = cron.New(c.log, ctx)
	spec := fmt.Sprintf("@every %s", c.opts.ProbeInterval)
	if _, err := c.runner.Add(spec, c.probeIfOffline); err != nil {
		c.log.Error("schedule probe", zap.Error(err))
		return
	}
	c.runner.Start()
}

func (c *Coordinator) probeIfOffline(ctx context.Context) {
	if c.Status().Online {
		return
	}
	if _, err := c.ProbeNow(ctx); err != nil && !errors.Is(err, ErrLocalOnly) {
		c.log.Debug("probe failed", zap.Error(err))
	}
}

// Close stops the probe and closes the local store.
func (c *Coordinator) Close() error {
	if c.runner != nil {
		c.cancel()
		c.runner.Stop()
		c.runner = nil
	}
	return c.opts.Store.Close()
}

// State returns a deep copy of the current state.
func (c *Coordinator) State() ledger.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Clone()
}

func (c *Coordinator) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st := Status{
		Remote:    c.remoteEnabled(),
		Online:    c.online && c.remoteEnabled(),
		Pending:   len(c.outbox),
		LastSync:  c.lastSync,
		LastError: c.lastError,
		Error:     c.state.Error,
		Loading:   c.state.Loading,
		User:      c.user.Email,
	}
	if st.User == "" {
		st.User = c.user.ID
	}
	if st.Remote && !st.Online {
		st.User = OfflineUser
	}
	return st
}

// SavedAt reports when the local snapshot was last written. It returns
// false for stores that do not track write times or have no snapshot yet.
func (c *Coordinator) SavedAt(ctx context.Context) (time.Time, bool) {
	ts, ok := c.opts.Store.(journal.Timestamped)
	if !ok {
		return time.Time{}, false
	}
	at, found, err := ts.UpdatedAt(ctx, journal.SnapshotKey)
	if err != nil {
		c.log.Warn("read snapshot time", zap.Error(err))
		return time.Time{}, false
	}
	return at, found
}

// ProbeNow checks reachability. When the backend answers, the coordinator
// goes online, flushes the outbox in order and reloads remote state.
func (c *Coordinator) ProbeNow(ctx context.Context) (bool, error) {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	c.mu.RLock()
	enabled := c.remoteEnabled()
	c.mu.RUnlock()
	if !enabled {
		return false, ErrLocalOnly
	}

	pctx, cancel := context.WithTimeout(ctx, c.opts.ProbeTimeout)
	err := c.opts.Backend.Ping(pctx)
	cancel()
	if err != nil {
		c.metrics.RemoteError("ping")
		c.noteError(err)
		return false, err
	}

	c.log.Info("backend reachable, reconnecting")
	if err := c.connect(ctx, c.opts.InitialTimeout); err != nil {
		c.setOnline(false, err)
		return false, err
	}
	return true, nil
}

// Reload flushes pending writes and replaces local data with the remote
// copy. It does nothing in local-only mode.
func (c *Coordinator) Reload(ctx context.Context) error {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	c.mu.RLock()
	enabled := c.remoteEnabled()
	c.mu.RUnlock()
	if !enabled {
		return nil
	}
	if err := c.connect(ctx, c.opts.InitialTimeout); err != nil {
		c.setOnline(false, err)
		return err
	}
	return nil
}

// connect makes sure the user row exists, sends the outbox and loads every
// table, all within timeout. On success the coordinator is online. Callers
// hold syncMu.
func (c *Coordinator) connect(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c.mu.RLock()
	user := c.user
	c.mu.RUnlock()

	if err := c.opts.Backend.EnsureUser(ctx, user); err != nil {
		c.metrics.RemoteError("ensure_user")
		return fmt.Errorf("ensure user: %w", err)
	}
	if err := c.flush(ctx); err != nil {
		return err
	}

	data, err := c.fetch(ctx, user.ID)
	if err != nil {
		return err
	}

	c.dispatch(ledger.LoadWithdrawals{Withdrawals: data.withdrawals})
	c.dispatch(ledger.LoadGoals{Goals: data.goals})
	c.dispatch(ledger.LoadExpenses{Expenses: data.expenses})
	c.dispatch(ledger.LoadIncomes{Incomes: data.incomes})
	if data.settingsFound {
		c.dispatch(ledger.LoadCash{Amount: data.settings.CurrentCash})
	}
	// LoadTrades last: it clears the loading flag and the error.
	c.dispatch(ledger.LoadTrades{Trades: data.trades})

	if err := c.persist(ctx); err != nil {
		c.log.Warn("save snapshot after load", zap.Error(err))
	}

	c.mu.Lock()
	c.lastSync = c.opts.Now()
	c.lastError = ""
	c.mu.Unlock()
	c.setOnline(true, nil)

	c.log.Info("loaded remote data",
		zap.Int("trades", len(data.trades)),
		zap.Int("withdrawals", len(data.withdrawals)),
		zap.Int("goals", len(data.goals)),
	)
	return nil
}

type remoteData struct {
	trades        []ledger.Trade
	withdrawals   []ledger.Withdrawal
	goals         ledger.MonthlyGoals
	expenses      []ledger.Expense
	incomes       []ledger.Income
	settings      remote.Settings
	settingsFound bool
}

func (c *Coordinator) fetch(ctx context.Context, userID string) (remoteData, error) {
	var d remoteData
	var err error
	b := c.opts.Backend

	if d.trades, err = b.ListTrades(ctx, userID); err != nil {
		c.metrics.RemoteError("list_trades")
		return d, fmt.Errorf("load trades: %w", err)
	}
	if d.withdrawals, err = b.ListWithdrawals(ctx, userID); err != nil {
		c.metrics.RemoteError("list_withdrawals")
		return d, fmt.Errorf("load withdrawals: %w", err)
	}
	if d.goals, err = b.ListGoals(ctx, userID); err != nil {
		c.metrics.RemoteError("list_goals")
		return d, fmt.Errorf("load goals: %w", err)
	}
	if d.expenses, err = b.ListExpenses(ctx, userID); err != nil {
		c.metrics.RemoteError("list_expenses")
		return d, fmt.Errorf("load expenses: %w", err)
	}
	if d.incomes, err = b.ListIncomes(ctx, userID); err != nil {
		c.metrics.RemoteError("list_incomes")
		return d, fmt.Errorf("load incomes: %w", err)
	}
	if d.settings, d.settingsFound, err = b.GetSettings(ctx, userID); err != nil {
		c.metrics.RemoteError("get_settings")
		return d, fmt.Errorf("load settings: %w", err)
	}
	return d, nil
}

// claimUnowned assigns ops queued while signed out to uid. Callers hold
// syncMu.
func (c *Coordinator) claimUnowned(ctx context.Context, uid string) {
	c.mu.Lock()
	claimed := 0
	for i := range c.outbox {
		if c.outbox[i].UserID == "" {
			c.outbox[i].UserID = uid
			claimed++
		}
	}
	c.mu.Unlock()
	if claimed == 0 {
		return
	}
	c.log.Info("claimed signed-out writes", zap.Int("ops", claimed), zap.String("user", uid))
	if err := c.saveOutbox(ctx); err != nil {
		c.log.Warn("save pending queue", zap.Error(err))
	}
}

// flush sends queued ops oldest first and stops at the first failure. Ops
// queued for a different user are dropped. Callers hold syncMu.
func (c *Coordinator) flush(ctx context.Context) error {
	for {
		c.mu.RLock()
		if len(c.outbox) == 0 {
			c.mu.RUnlock()
			return nil
		}
		op := c.outbox[0]
		uid := c.user.ID
		c.mu.RUnlock()

		if op.UserID != uid {
			c.log.Warn("dropping queued op for another user", zap.String("op", string(op.Kind)), zap.String("id", op.ID))
		} else if err := c.send(ctx, op); err != nil {
			return fmt.Errorf("flush %s: %w", op.Kind, err)
		}

		c.mu.Lock()
		c.outbox = c.outbox[1:]
		c.mu.Unlock()
		if err := c.saveOutbox(ctx); err != nil {
			c.log.Warn("save pending queue", zap.Error(err))
		}
	}
}

// send applies one op with the write timeout.
func (c *Coordinator) send(ctx context.Context, op Op) error {
	wctx, cancel := context.WithTimeout(ctx, c.opts.WriteTimeout)
	defer cancel()
	if err := op.Apply(wctx, c.opts.Backend); err != nil {
		c.metrics.RemoteError(string(op.Kind))
		return err
	}
	return nil
}

// push sends ops right away when online and queues them otherwise. A
// failed send takes the coordinator offline and queues the rest. With a
// backend but no user, ops are queued unowned until the next SignIn.
// Callers hold syncMu.
func (c *Coordinator) push(ctx context.Context, ops []Op) {
	if len(ops) == 0 || c.opts.Backend == nil {
		return
	}

	c.mu.RLock()
	online, uid := c.online && c.remoteEnabled(), c.user.ID
	c.mu.RUnlock()

	for i := range ops {
		ops[i].UserID = uid
		ops[i].QueuedAt = c.opts.Now()
	}

	if online {
		for i, op := range ops {
			if err := c.send(ctx, op); err != nil {
				c.log.Warn("remote write failed, saving locally", zap.String("op", string(op.Kind)), zap.Error(err))
				c.setOnline(false, err)
				c.enqueue(ctx, ops[i:])
				return
			}
		}
		c.mu.Lock()
		c.lastSync = c.opts.Now()
		c.mu.Unlock()
		return
	}
	c.enqueue(ctx, ops)
}

func (c *Coordinator) enqueue(ctx context.Context, ops []Op) {
	c.mu.Lock()
	c.outbox = append(c.outbox, ops...)
	c.mu.Unlock()
	if err := c.saveOutbox(ctx); err != nil {
		c.log.Warn("save pending queue", zap.Error(err))
	}
}

func (c *Coordinator) saveOutbox(ctx context.Context) error {
	c.mu.RLock()
	outbox := append([]Op{}, c.outbox...)
	c.mu.RUnlock()
	c.metrics.SetPending(len(outbox))

	if len(outbox) == 0 {
		return c.opts.Store.Delete(ctx, PendingKey)
	}
	return journal.SaveJSON(ctx, c.opts.Store, PendingKey, outbox)
}

func (c *Coordinator) setOnline(online bool, cause error) {
	c.mu.Lock()
	changed := c.online != online
	c.online = online
	if cause != nil {
		c.lastError = cause.Error()
	}
	c.mu.Unlock()

	if changed {
		c.metrics.SetOnline(online)
		if online {
			c.log.Info("online")
		} else {
			c.log.Warn("offline", zap.Error(cause))
		}
	}
}

func (c *Coordinator) noteError(err error) {
	c.mu.Lock()
	c.lastError = err.Error()
	c.mu.Unlock()
}

// dispatch applies a to the state. It does not persist.
func (c *Coordinator) dispatch(a ledger.Action) {
	c.mu.Lock()
	c.state = ledger.Reduce(c.state, a)
	c.mu.Unlock()
}

func (c *Coordinator) persist(ctx context.Context) error {
	c.mu.RLock()
	s := c.state
	c.mu.RUnlock()
	return journal.SaveSnapshot(ctx, c.opts.Store, s)
}

// Package sqlstore is a remote.Backend on top of gorm. Production uses the
// postgres driver; tests and single-machine setups can use sqlite.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/rustyeddy/tradeportal/ledger"
	"github.com/rustyeddy/tradeportal/remote"
)

// Options configures the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type Store struct {
	db *gorm.DB
}

var _ remote.Backend = (*Store)(nil)

// OpenPostgres connects to dsn and migrates the schema.
func OpenPostgres(dsn string, opts Options) (*Store, error) {
	return open(postgres.Open(dsn), opts)
}

// OpenSQLite opens (or creates) a sqlite database file and migrates the
// schema. Use "file::memory:?cache=shared" for a throwaway database.
func OpenSQLite(path string) (*Store, error) {
	return open(sqlite.Open(path), Options{MaxOpenConns: 1})
}

func open(dialector gorm.Dialector, opts Options) (*Store, error) {
	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqldb, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if opts.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqldb.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	s := &Store{db: gdb}
	if err := s.AutoMigrate(); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// New wraps an existing gorm handle. The caller is responsible for the
// schema.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(remote.Models()...)
}

func (s *Store) Close() error {
	sqldb, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqldb.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	sqldb, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqldb.PingContext(ctx)
}

func (s *Store) EnsureUser(ctx context.Context, u remote.User) error {
	row := remote.UserRow{ID: u.ID, Email: u.Email}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

func (s *Store) ListTrades(ctx context.Context, userID string) ([]ledger.Trade, error) {
	var rows []remote.TradeRow
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("trade_timestamp ASC").
		Limit(remote.TradeLimit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]ledger.Trade, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Trade())
	}
	return out, nil
}

func (s *Store) InsertTrades(ctx context.Context, userID string, trades []ledger.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	rows := make([]remote.TradeRow, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, remote.TradeToRow(userID, t))
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, 200).Error
}

func (s *Store) ListWithdrawals(ctx context.Context, userID string) ([]ledger.Withdrawal, error) {
	var rows []remote.WithdrawalRow
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("withdrawal_date ASC").
		Limit(remote.WithdrawalLimit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]ledger.Withdrawal, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Withdrawal())
	}
	return out, nil
}

func (s *Store) InsertWithdrawal(ctx context.Context, userID string, w ledger.Withdrawal) error {
	row := remote.WithdrawalToRow(userID, w)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"account_name", "amount", "withdrawal_date", "description"}),
	}).Create(&row).Error
}

func (s *Store) ListGoals(ctx context.Context, userID string) (ledger.MonthlyGoals, error) {
	var rows []remote.GoalRow
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Limit(remote.GoalLimit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return remote.GoalsFromRows(rows), nil
}

func (s *Store) UpsertGoal(ctx context.Context, userID, month string, amount decimal.Decimal) error {
	row := remote.GoalRow{UserID: userID, Month: month, GoalAmount: amount}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "month"}},
		DoUpdates: clause.AssignmentColumns([]string{"goal_amount"}),
	}).Create(&row).Error
}

func (s *Store) DeleteGoal(ctx context.Context, userID, month string) error {
	return s.db.WithContext(ctx).
		Where("user_id = ? AND month = ?", userID, month).
		Delete(&remote.GoalRow{}).Error
}

func (s *Store) ListExpenses(ctx context.Context, userID string) ([]ledger.Expense, error) {
	var rows []remote.ExpenseRow
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]ledger.Expense, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Expense())
	}
	return out, nil
}

func (s *Store) UpsertExpense(ctx context.Context, userID string, e ledger.Expense) error {
	row := remote.ExpenseToRow(userID, e)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"category",
			"description",
			"amount",
			"due_date",
			"is_paid",
			"is_recurring",
		}),
	}).Create(&row).Error
}

func (s *Store) DeleteExpense(ctx context.Context, userID, id string) error {
	return s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Delete(&remote.ExpenseRow{}).Error
}

func (s *Store) ListIncomes(ctx context.Context, userID string) ([]ledger.Income, error) {
	var rows []remote.IncomeRow
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]ledger.Income, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Income())
	}
	return out, nil
}

func (s *Store) UpsertIncome(ctx context.Context, userID string, in ledger.Income) error {
	row := remote.IncomeToRow(userID, in)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"category",
			"description",
			"amount",
			"income_date",
			"is_paid",
			"is_recurring",
		}),
	}).Create(&row).Error
}

func (s *Store) DeleteIncome(ctx context.Context, userID, id string) error {
	return s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Delete(&remote.IncomeRow{}).Error
}

func (s *Store) GetSettings(ctx context.Context, userID string) (remote.Settings, bool, error) {
	var row remote.SettingsRow
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return remote.Settings{}, false, nil
	}
	if err != nil {
		return remote.Settings{}, false, err
	}
	return remote.Settings{CurrentCash: row.CurrentCash}, true, nil
}

func (s *Store) SaveSettings(ctx context.Context, userID string, st remote.Settings) error {
	row := remote.SettingsRow{UserID: userID, CurrentCash: st.CurrentCash, UpdatedAt: time.Now().UTC()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"current_cash", "updated_at"}),
	}).Create(&row).Error
}

package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradeportal/internal/id"
	"github.com/rustyeddy/tradeportal/ledger"
	"github.com/rustyeddy/tradeportal/remote"
)

// OpKind names the backend call an Op replays.
type OpKind string

const (
	OpInsertTrades     OpKind = "insert_trades"
	OpInsertWithdrawal OpKind = "insert_withdrawal"
	OpUpsertGoal       OpKind = "upsert_goal"
	OpDeleteGoal       OpKind = "delete_goal"
	OpSaveSettings     OpKind = "save_settings"
	OpUpsertExpense    OpKind = "upsert_expense"
	OpDeleteExpense    OpKind = "delete_expense"
	OpUpsertIncome     OpKind = "upsert_income"
	OpDeleteIncome     OpKind = "delete_income"
)

// Op is one remote write. Ops that could not be sent are kept, in order,
// in the persisted outbox.
type Op struct {
	ID       string    `json:"id"`
	Kind     OpKind    `json:"kind"`
	UserID   string    `json:"userId"`
	QueuedAt time.Time `json:"queuedAt"`

	Trades     []ledger.Trade     `json:"trades,omitempty"`
	Withdrawal *ledger.Withdrawal `json:"withdrawal,omitempty"`
	Month      string             `json:"month,omitempty"`
	Amount     *decimal.Decimal   `json:"amount,omitempty"`
	Expense    *ledger.Expense    `json:"expense,omitempty"`
	Income     *ledger.Income     `json:"income,omitempty"`
	TargetID   string             `json:"targetId,omitempty"`
}

func newOp(kind OpKind) Op {
	return Op{ID: id.New(), Kind: kind}
}

func insertTradesOp(trades []ledger.Trade) Op {
	op := newOp(OpInsertTrades)
	op.Trades = append([]ledger.Trade{}, trades...)
	return op
}

func insertWithdrawalOp(w ledger.Withdrawal) Op {
	op := newOp(OpInsertWithdrawal)
	op.Withdrawal = &w
	return op
}

func upsertGoalOp(month string, amount decimal.Decimal) Op {
	op := newOp(OpUpsertGoal)
	op.Month = month
	op.Amount = &amount
	return op
}

func deleteGoalOp(month string) Op {
	op := newOp(OpDeleteGoal)
	op.Month = month
	return op
}

func saveSettingsOp(cash decimal.Decimal) Op {
	op := newOp(OpSaveSettings)
	op.Amount = &cash
	return op
}

func upsertExpenseOp(e ledger.Expense) Op {
	op := newOp(OpUpsertExpense)
	op.Expense = &e
	return op
}

func deleteExpenseOp(expenseID string) Op {
	op := newOp(OpDeleteExpense)
	op.TargetID = expenseID
	return op
}

func upsertIncomeOp(in ledger.Income) Op {
	op := newOp(OpUpsertIncome)
	op.Income = &in
	return op
}

func deleteIncomeOp(incomeID string) Op {
	op := newOp(OpDeleteIncome)
	op.TargetID = incomeID
	return op
}

// Apply sends the op to b on behalf of op.UserID.
func (op Op) Apply(ctx context.Context, b remote.Backend) error {
	uid := op.UserID
	switch op.Kind {
	case OpInsertTrades:
		return b.InsertTrades(ctx, uid, op.Trades)
	case OpInsertWithdrawal:
		if op.Withdrawal == nil {
			return fmt.Errorf("%s: missing withdrawal", op.Kind)
		}
		return b.InsertWithdrawal(ctx, uid, *op.Withdrawal)
	case OpUpsertGoal:
		if op.Amount == nil {
			return fmt.Errorf("%s: missing amount", op.Kind)
		}
		return b.UpsertGoal(ctx, uid, op.Month, *op.Amount)
	case OpDeleteGoal:
		return b.DeleteGoal(ctx, uid, op.Month)
	case OpSaveSettings:
		if op.Amount == nil {
			return fmt.Errorf("%s: missing amount", op.Kind)
		}
		return b.SaveSettings(ctx, uid, remote.Settings{CurrentCash: *op.Amount})
	case OpUpsertExpense:
		if op.Expense == nil {
			return fmt.Errorf("%s: missing expense", op.Kind)
		}
		return b.UpsertExpense(ctx, uid, *op.Expense)
	case OpDeleteExpense:
		return b.DeleteExpense(ctx, uid, op.TargetID)
	case OpUpsertIncome:
		if op.Income == nil {
			return fmt.Errorf("%s: missing income", op.Kind)
		}
		return b.UpsertIncome(ctx, uid, *op.Income)
	case OpDeleteIncome:
		return b.DeleteIncome(ctx, uid, op.TargetID)
	}
	return fmt.Errorf("unknown op kind %q", op.Kind)
}

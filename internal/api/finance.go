package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradeportal/ledger"
	"github.com/rustyeddy/tradeportal/syncer"
)

// FinanceHandler serves expenses and incomes.
type FinanceHandler struct {
	Portal *syncer.Coordinator
}

func (h *FinanceHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1")

	g.GET("/expenses", h.listExpenses)
	g.POST("/expenses", h.addExpense)
	g.PUT("/expenses/:id", h.updateExpense)
	g.POST("/expenses/:id/pay", h.payExpense)
	g.DELETE("/expenses/:id", h.deleteExpense)

	g.GET("/incomes", h.listIncomes)
	g.POST("/incomes", h.addIncome)
	g.PUT("/incomes/:id", h.updateIncome)
	g.DELETE("/incomes/:id", h.deleteIncome)
}

type expenseRequest struct {
	Category    string          `json:"category"`
	Description string          `json:"description" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     string          `json:"dueDate"`
	IsPaid      bool            `json:"isPaid"`
	IsRecurring bool            `json:"isRecurring"`
}

func (r expenseRequest) expense(id string) ledger.Expense {
	return ledger.Expense{
		ID:          id,
		Category:    r.Category,
		Description: r.Description,
		Amount:      r.Amount,
		DueDate:     r.DueDate,
		IsPaid:      r.IsPaid,
		IsRecurring: r.IsRecurring,
	}
}

type incomeRequest struct {
	Category    string          `json:"category"`
	Description string          `json:"description" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	IsPaid      bool            `json:"isPaid"`
	IsRecurring bool            `json:"isRecurring"`
}

func (r incomeRequest) income(id string) ledger.Income {
	return ledger.Income{
		ID:          id,
		Category:    r.Category,
		Description: r.Description,
		Amount:      r.Amount,
		Date:        r.Date,
		IsPaid:      r.IsPaid,
		IsRecurring: r.IsRecurring,
	}
}

func validDay(day string) bool {
	if day == "" {
		return true
	}
	_, err := time.Parse(ledger.DayLayout, day)
	return err == nil
}

func (h *FinanceHandler) listExpenses(c *gin.Context) {
	out := h.Portal.State().Expenses
	Ok(c, out, map[string]any{"total": len(out)})
}

func (h *FinanceHandler) addExpense(c *gin.Context) {
	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil || !validDay(req.DueDate) {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	e, err := h.Portal.AddExpense(c.Request.Context(), req.expense(""))
	if err != nil {
		fail(c, err)
		return
	}
	Created(c, e)
}

func (h *FinanceHandler) updateExpense(c *gin.Context) {
	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil || !validDay(req.DueDate) {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	e, err := h.Portal.UpdateExpense(c.Request.Context(), req.expense(c.Param("id")))
	if err != nil {
		fail(c, err)
		return
	}
	Ok(c, e, nil)
}

// payExpense marks an expense paid, which takes it out of cash.
func (h *FinanceHandler) payExpense(c *gin.Context) {
	expenseID := c.Param("id")
	var (
		found ledger.Expense
		ok    bool
	)
	for _, e := range h.Portal.State().Expenses {
		if e.ID == expenseID {
			found, ok = e, true
			break
		}
	}
	if !ok {
		Error(c, http.StatusNotFound, "expense not found", nil)
		return
	}
	found.IsPaid = true
	e, err := h.Portal.UpdateExpense(c.Request.Context(), found)
	if err != nil {
		fail(c, err)
		return
	}
	Ok(c, e, nil)
}

func (h *FinanceHandler) deleteExpense(c *gin.Context) {
	if err := h.Portal.DeleteExpense(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	Ok(c, gin.H{"id": c.Param("id")}, nil)
}

func (h *FinanceHandler) listIncomes(c *gin.Context) {
	out := h.Portal.State().Incomes
	Ok(c, out, map[string]any{"total": len(out)})
}

func (h *FinanceHandler) addIncome(c *gin.Context) {
	var req incomeRequest
	if err := c.ShouldBindJSON(&req); err != nil || !validDay(req.Date) {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	in, err := h.Portal.AddIncome(c.Request.Context(), req.income(""))
	if err != nil {
		fail(c, err)
		return
	}
	Created(c, in)
}

func (h *FinanceHandler) updateIncome(c *gin.Context) {
	var req incomeRequest
	if err := c.ShouldBindJSON(&req); err != nil || !validDay(req.Date) {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	in, err := h.Portal.UpdateIncome(c.Request.Context(), req.income(c.Param("id")))
	if err != nil {
		fail(c, err)
		return
	}
	Ok(c, in, nil)
}

func (h *FinanceHandler) deleteIncome(c *gin.Context) {
	if err := h.Portal.DeleteIncome(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	Ok(c, gin.H{"id": c.Param("id")}, nil)
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradeportal/ledger"
	"github.com/rustyeddy/tradeportal/syncer"
)

// PortalHandler serves the ledger and its derived views.
type PortalHandler struct {
	Portal *syncer.Coordinator
	Now    func() time.Time
}

func (h *PortalHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1")
	g.GET("/state", h.state)
	g.GET("/accounts", h.accounts)
	g.GET("/summary", h.summary)
	g.GET("/networth", h.netWorth)
	g.GET("/cashflow", h.cashFlow)
	g.GET("/performance", h.performance)

	g.POST("/trades/import", h.importTrades)
	g.GET("/trades", h.trades)
	g.POST("/withdrawals", h.addWithdrawal)

	g.GET("/goals", h.goals)
	g.PUT("/goals/:month", h.setGoal)
	g.DELETE("/goals/:month", h.deleteGoal)

	g.PUT("/cash", h.setCash)
	g.DELETE("/data", h.clear)

	g.GET("/sync/status", h.syncStatus)
	g.POST("/sync/probe", h.syncProbe)
	g.POST("/sync/reload", h.syncReload)
}

func (h *PortalHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

type stateView struct {
	ledger.Snapshot
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

func (h *PortalHandler) state(c *gin.Context) {
	s := h.Portal.State()
	Ok(c, stateView{Snapshot: s.Snapshot(), Loading: s.Loading, Error: s.Error}, nil)
}

// accounts lists accounts by name.
func (h *PortalHandler) accounts(c *gin.Context) {
	s := h.Portal.State()
	out := make([]ledger.Account, 0, len(s.Accounts))
	for _, a := range s.Accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	Ok(c, out, map[string]any{"total": len(out)})
}

func (h *PortalHandler) summary(c *gin.Context) {
	Ok(c, ledger.Summarize(h.Portal.State()), nil)
}

func (h *PortalHandler) netWorth(c *gin.Context) {
	s := h.Portal.State()
	Ok(c, gin.H{
		"netWorth":    ledger.NetWorth(s),
		"currentCash": s.CurrentCash,
	}, nil)
}

func (h *PortalHandler) cashFlow(c *gin.Context) {
	p := ledger.ParsePeriod(strings.TrimSpace(c.Query("period")))
	Ok(c, ledger.ComputeCashFlow(h.Portal.State(), p, h.now()), nil)
}

func (h *PortalHandler) performance(c *gin.Context) {
	s := h.Portal.State()
	Ok(c, gin.H{
		"daily":   ledger.DailyPL(s.Trades),
		"symbols": ledger.BySymbol(s.Trades),
	}, nil)
}

// trades returns the journal, optionally restricted to one account and day.
func (h *PortalHandler) trades(c *gin.Context) {
	account := strings.TrimSpace(c.Query("account"))
	day := strings.TrimSpace(c.Query("date"))
	out := []ledger.Trade{}
	for _, t := range h.Portal.State().Trades {
		if account != "" && t.Account != account {
			continue
		}
		if day != "" && t.Date != day {
			continue
		}
		out = append(out, t)
	}
	Ok(c, out, map[string]any{"total": len(out)})
}

// importTrades takes the raw CSV export as the request body.
func (h *PortalHandler) importTrades(c *gin.Context) {
	n, err := h.Portal.ImportCSV(c.Request.Context(), c.Request.Body)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	Created(c, gin.H{"imported": n})
}

type withdrawalRequest struct {
	Account     string          `json:"account" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
}

func (h *PortalHandler) addWithdrawal(c *gin.Context) {
	var req withdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if req.Date != "" {
		if _, err := time.Parse(ledger.DayLayout, req.Date); err != nil {
			Error(c, http.StatusBadRequest, "date must be YYYY-MM-DD", nil)
			return
		}
	}
	w, err := h.Portal.AddWithdrawal(c.Request.Context(), ledger.Withdrawal{
		Account:     req.Account,
		Amount:      req.Amount,
		Date:        req.Date,
		Description: req.Description,
	})
	if err != nil {
		fail(c, err)
		return
	}
	Created(c, w)
}

func (h *PortalHandler) goals(c *gin.Context) {
	s := h.Portal.State()
	Ok(c, gin.H{
		"progress": ledger.Progress(s.MonthlyGoals, s.Trades),
		"planner":  ledger.Planner(s.MonthlyGoals, s.Trades),
	}, nil)
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *PortalHandler) setGoal(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	month := strings.TrimSpace(c.Param("month"))
	if err := h.Portal.SetMonthlyGoal(c.Request.Context(), month, req.Amount); err != nil {
		fail(c, err)
		return
	}
	Ok(c, gin.H{"month": month, "amount": req.Amount}, nil)
}

func (h *PortalHandler) deleteGoal(c *gin.Context) {
	month := strings.TrimSpace(c.Param("month"))
	if err := h.Portal.DeleteMonthlyGoal(c.Request.Context(), month); err != nil {
		fail(c, err)
		return
	}
	Ok(c, gin.H{"month": month}, nil)
}

// cashRequest takes the amount as a JSON number or string. Values that do
// not parse set the cash balance to zero.
type cashRequest struct {
	Amount json.RawMessage `json:"amount"`
}

func (r cashRequest) amount() decimal.Decimal {
	var s string
	if err := json.Unmarshal(r.Amount, &s); err != nil {
		s = string(r.Amount)
	}
	return ledger.ParseAmount(s)
}

func (h *PortalHandler) setCash(c *gin.Context) {
	var req cashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	amount := req.amount()
	if err := h.Portal.SetCurrentCash(c.Request.Context(), amount); err != nil {
		fail(c, err)
		return
	}
	Ok(c, gin.H{"currentCash": amount}, nil)
}

func (h *PortalHandler) clear(c *gin.Context) {
	if c.Query("confirm") != "true" {
		Error(c, http.StatusBadRequest, "pass confirm=true to clear all local data", nil)
		return
	}
	if err := h.Portal.ClearData(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	Ok(c, nil, nil)
}

func (h *PortalHandler) syncStatus(c *gin.Context) {
	var meta map[string]any
	if at, ok := h.Portal.SavedAt(c.Request.Context()); ok {
		meta = map[string]any{"savedAt": at}
	}
	Ok(c, h.Portal.Status(), meta)
}

func (h *PortalHandler) syncProbe(c *gin.Context) {
	online, err := h.Portal.ProbeNow(c.Request.Context())
	if errors.Is(err, syncer.ErrLocalOnly) {
		Error(c, http.StatusConflict, err.Error(), nil)
		return
	}
	meta := map[string]any{}
	if err != nil {
		meta["error"] = err.Error()
	}
	Ok(c, gin.H{"online": online, "status": h.Portal.Status()}, meta)
}

func (h *PortalHandler) syncReload(c *gin.Context) {
	if err := h.Portal.Reload(c.Request.Context()); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, h.Portal.Status(), nil)
}

// fail maps coordinator errors onto status codes. Anything else is a
// local store failure.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, syncer.ErrNotFound):
		Error(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, syncer.ErrInvalid):
		Error(c, http.StatusBadRequest, err.Error(), nil)
	default:
		Error(c, http.StatusInternalServerError, err.Error(), nil)
	}
}

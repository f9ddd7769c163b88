// Package rest is a remote.Backend that talks to a PostgREST-style API
// (as exposed by Supabase) over HTTP.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradeportal/ledger"
	"github.com/rustyeddy/tradeportal/remote"
)

// ClientInfo is sent in the x-client-info header.
const ClientInfo = "trading-portal@1.0.0"

// Client is a PostgREST client scoped to one project.
type Client struct {
	baseURL    string
	apiKey     string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for baseURL using the anon apiKey. token is
// the user's access token; when empty the apiKey is used as the bearer.
func NewClient(baseURL, apiKey, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

var _ remote.Backend = (*Client)(nil)

// APIError is the error body PostgREST returns on failure.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error (status %d)", e.Status)
	}
	return fmt.Sprintf("API error (status %d): %s", e.Status, e.Message)
}

// Is makes a 404 match remote.ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == remote.ErrNotFound && e.Status == http.StatusNotFound
}

type request struct {
	method string
	table  string
	query  url.Values
	prefer []string
	body   any
	out    any
}

func (c *Client) do(ctx context.Context, r request) error {
	apiURL := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, r.table)
	if len(r.query) > 0 {
		apiURL += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode %s: %w", r.table, err)
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, r.method, apiURL, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	bearer := c.token
	if bearer == "" {
		bearer = c.apiKey
	}
	httpReq.Header.Set("apikey", c.apiKey)
	httpReq.Header.Set("Authorization", "Bearer "+bearer)
	httpReq.Header.Set("x-client-info", ClientInfo)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if len(r.prefer) > 0 {
		httpReq.Header.Set("Prefer", strings.Join(r.prefer, ","))
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}

	if r.out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(r.out); err != nil {
		return fmt.Errorf("decode %s: %w", r.table, err)
	}
	return nil
}

func eq(v string) string { return "eq." + v }

func byUser(userID string, limit int) url.Values {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", eq(userID))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

// Ping reads a single user id, which is the cheapest authenticated query.
func (c *Client) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("select", "id")
	q.Set("limit", "1")
	var rows []remote.UserRow
	return c.do(ctx, request{method: http.MethodGet, table: "users", query: q, out: &rows})
}

func (c *Client) EnsureUser(ctx context.Context, u remote.User) error {
	q := url.Values{}
	q.Set("select", "id")
	q.Set("id", eq(u.ID))
	var rows []remote.UserRow
	if err := c.do(ctx, request{method: http.MethodGet, table: "users", query: q, out: &rows}); err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if len(rows) > 0 {
		return nil
	}

	row := remote.UserRow{ID: u.ID, Email: u.Email}
	err := c.do(ctx, request{
		method: http.MethodPost,
		table:  "users",
		prefer: []string{"return=minimal"},
		body:   row,
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (c *Client) ListTrades(ctx context.Context, userID string) ([]ledger.Trade, error) {
	var rows []remote.TradeRow
	err := c.do(ctx, request{method: http.MethodGet, table: "trades", query: byUser(userID, remote.TradeLimit), out: &rows})
	if err != nil {
		return nil, err
	}
	out := make([]ledger.Trade, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Trade())
	}
	return out, nil
}

// InsertTrades ignores rows whose (user_id, trade_id) already exists, so a
// replayed import does not fail.
func (c *Client) InsertTrades(ctx context.Context, userID string, trades []ledger.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	rows := make([]remote.TradeRow, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, remote.TradeToRow(userID, t))
	}
	q := url.Values{}
	q.Set("on_conflict", "user_id,trade_id")
	return c.do(ctx, request{
		method: http.MethodPost,
		table:  "trades",
		query:  q,
		prefer: []string{"resolution=ignore-duplicates", "return=minimal"},
		body:   rows,
	})
}

func (c *Client) ListWithdrawals(ctx context.Context, userID string) ([]ledger.Withdrawal, error) {
	var rows []remote.WithdrawalRow
	err := c.do(ctx, request{method: http.MethodGet, table: "withdrawals", query: byUser(userID, remote.WithdrawalLimit), out: &rows})
	if err != nil {
		return nil, err
	}
	out := make([]ledger.Withdrawal, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Withdrawal())
	}
	return out, nil
}

func (c *Client) InsertWithdrawal(ctx context.Context, userID string, w ledger.Withdrawal) error {
	return c.upsert(ctx, "withdrawals", "user_id,id", remote.WithdrawalToRow(userID, w))
}

func (c *Client) ListGoals(ctx context.Context, userID string) (ledger.MonthlyGoals, error) {
	var rows []remote.GoalRow
	err := c.do(ctx, request{method: http.MethodGet, table: "monthly_goals", query: byUser(userID, remote.GoalLimit), out: &rows})
	if err != nil {
		return nil, err
	}
	return remote.GoalsFromRows(rows), nil
}

func (c *Client) UpsertGoal(ctx context.Context, userID, month string, amount decimal.Decimal) error {
	return c.upsert(ctx, "monthly_goals", "user_id,month", remote.GoalRow{UserID: userID, Month: month, GoalAmount: amount})
}

func (c *Client) DeleteGoal(ctx context.Context, userID, month string) error {
	q := url.Values{}
	q.Set("user_id", eq(userID))
	q.Set("month", eq(month))
	return c.do(ctx, request{method: http.MethodDelete, table: "monthly_goals", query: q})
}

func (c *Client) ListExpenses(ctx context.Context, userID string) ([]ledger.Expense, error) {
	var rows []remote.ExpenseRow
	if err := c.do(ctx, request{method: http.MethodGet, table: "expenses", query: byUser(userID, 0), out: &rows}); err != nil {
		return nil, err
	}
	out := make([]ledger.Expense, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Expense())
	}
	return out, nil
}

func (c *Client) UpsertExpense(ctx context.Context, userID string, e ledger.Expense) error {
	return c.upsert(ctx, "expenses", "user_id,id", remote.ExpenseToRow(userID, e))
}

func (c *Client) DeleteExpense(ctx context.Context, userID, id string) error {
	return c.deleteByID(ctx, "expenses", userID, id)
}

func (c *Client) ListIncomes(ctx context.Context, userID string) ([]ledger.Income, error) {
	var rows []remote.IncomeRow
	if err := c.do(ctx, request{method: http.MethodGet, table: "incomes", query: byUser(userID, 0), out: &rows}); err != nil {
		return nil, err
	}
	out := make([]ledger.Income, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Income())
	}
	return out, nil
}

func (c *Client) UpsertIncome(ctx context.Context, userID string, in ledger.Income) error {
	return c.upsert(ctx, "incomes", "user_id,id", remote.IncomeToRow(userID, in))
}

func (c *Client) DeleteIncome(ctx context.Context, userID, id string) error {
	return c.deleteByID(ctx, "incomes", userID, id)
}

func (c *Client) GetSettings(ctx context.Context, userID string) (remote.Settings, bool, error) {
	var rows []remote.SettingsRow
	if err := c.do(ctx, request{method: http.MethodGet, table: "user_settings", query: byUser(userID, 1), out: &rows}); err != nil {
		return remote.Settings{}, false, err
	}
	if len(rows) == 0 {
		return remote.Settings{}, false, nil
	}
	return remote.Settings{CurrentCash: rows[0].CurrentCash}, true, nil
}

func (c *Client) SaveSettings(ctx context.Context, userID string, s remote.Settings) error {
	row := remote.SettingsRow{UserID: userID, CurrentCash: s.CurrentCash, UpdatedAt: time.Now().UTC()}
	return c.upsert(ctx, "user_settings", "user_id", row)
}

func (c *Client) upsert(ctx context.Context, table, conflict string, row any) error {
	q := url.Values{}
	q.Set("on_conflict", conflict)
	return c.do(ctx, request{
		method: http.MethodPost,
		table:  table,
		query:  q,
		prefer: []string{"resolution=merge-duplicates", "return=minimal"},
		body:   row,
	})
}

func (c *Client) deleteByID(ctx context.Context, table, userID, id string) error {
	q := url.Values{}
	q.Set("id", eq(id))
	q.Set("user_id", eq(userID))
	return c.do(ctx, request{method: http.MethodDelete, table: table, query: q})
}

// IsAPIError reports whether err carries an *APIError and returns it.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

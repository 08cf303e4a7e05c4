package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/kasboek/internal/category"
	"github.com/josh-kwaku/kasboek/internal/domain"
	"github.com/josh-kwaku/kasboek/internal/service"
)

type mockLedger struct {
	err        error
	day        *domain.LedgerDay
	days       []domain.LedgerDay
	txns       []domain.Transaction
	gotMonth   *domain.Month
	gotDate    *time.Time
	gotAmount  decimal.Decimal
	gotAddTxn  service.AddTransactionRequest
	createDate time.Time
}

func (m *mockLedger) CreateDay(_ context.Context, date time.Time, opening decimal.Decimal) (*domain.LedgerDay, error) {
	m.createDate, m.gotAmount = date, opening
	if m.err != nil {
		return nil, m.err
	}
	return &domain.LedgerDay{ID: 11, Date: date, OpeningBalance: opening}, nil
}

func (m *mockLedger) ListDays(_ context.Context, month *domain.Month) ([]domain.LedgerDay, error) {
	m.gotMonth = month
	return m.days, m.err
}

func (m *mockLedger) GetDay(_ context.Context, id int64) (*domain.LedgerDay, error) {
	return m.day, m.err
}

func (m *mockLedger) SetClosingBalance(_ context.Context, id int64, amount decimal.Decimal) (*domain.LedgerDay, error) {
	m.gotAmount = amount
	if m.err != nil {
		return nil, m.err
	}
	return &domain.LedgerDay{ID: id, ClosingBalance: decimal.NewNullDecimal(amount)}, nil
}

func (m *mockLedger) SetOpeningBalance(_ context.Context, id int64, amount decimal.Decimal, date *time.Time) (*domain.LedgerDay, error) {
	m.gotAmount, m.gotDate = amount, date
	if m.err != nil {
		return nil, m.err
	}
	return &domain.LedgerDay{ID: id, OpeningBalance: amount}, nil
}

func (m *mockLedger) ListTransactions(context.Context, int64) ([]domain.Transaction, error) {
	return m.txns, m.err
}

func (m *mockLedger) AddTransaction(_ context.Context, req service.AddTransactionRequest) (*domain.Transaction, error) {
	m.gotAddTxn = req
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Transaction{
		ID: 5, DayID: req.DayID, Kind: req.Kind, Category: req.Category,
		Amount: req.Amount, VATRate: req.VATRate, Description: req.Description,
	}, nil
}

type mockJournal struct {
	lines   []domain.JournalLine
	summary *domain.MonthSummary
	err     error
}

func (m *mockJournal) BuildJournal(context.Context, domain.Month) ([]domain.JournalLine, error) {
	return m.lines, m.err
}

func (m *mockJournal) MonthSummary(context.Context, domain.Month) (*domain.MonthSummary, error) {
	return m.summary, m.err
}

func newTestMux(ledger ledgerService, journal journalService) *http.ServeMux {
	lh := NewLedgerHandler(ledger)
	jh := NewJournalHandler(journal)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ledger/days", lh.ListDays)
	mux.HandleFunc("POST /ledger/days", lh.CreateDay)
	mux.HandleFunc("GET /ledger/days/{id}", lh.GetDay)
	mux.HandleFunc("PATCH /ledger/days/{id}/closing", lh.SetClosingBalance)
	mux.HandleFunc("PATCH /ledger/days/{id}/opening", lh.SetOpeningBalance)
	mux.HandleFunc("GET /ledger/days/{id}/transactions", lh.ListTransactions)
	mux.HandleFunc("POST /ledger/days/{id}/transactions", lh.AddTransaction)
	mux.HandleFunc("GET /ledger/months/{month}/journal", jh.Journal)
	mux.HandleFunc("GET /ledger/months/{month}/journal.csv", jh.JournalCSV)
	mux.HandleFunc("GET /ledger/months/{month}/summary", jh.Summary)
	return mux
}

func do(t *testing.T, mux http.Handler, method, path, body string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var resp APIResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestLedgerHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{"bad month filter", http.MethodGet, "/ledger/days?month=2025-13", "", nil, http.StatusBadRequest, "INVALID_MONTH"},
		{"month filter wrong shape", http.MethodGet, "/ledger/days?month=2025-3", "", nil, http.StatusBadRequest, "INVALID_MONTH"},
		{"create malformed json", http.MethodPost, "/ledger/days", `{"date":`, nil, http.StatusBadRequest, "INVALID_REQUEST"},
		{"create bad date", http.MethodPost, "/ledger/days", `{"date":"01-01-2025","openingBalance":"1.00"}`, nil, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"create missing balance", http.MethodPost, "/ledger/days", `{"date":"2025-01-01"}`, nil, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"create duplicate", http.MethodPost, "/ledger/days", `{"date":"2025-01-01","openingBalance":"1.00"}`, fmt.Errorf("CreateDay: %w", domain.ErrDayExists), http.StatusConflict, "DAY_EXISTS"},
		{"get non numeric id", http.MethodGet, "/ledger/days/abc", "", nil, http.StatusNotFound, "RESOURCE_NOT_FOUND"},
		{"closing unknown day", http.MethodPatch, "/ledger/days/9/closing", `{"closingBalance":"10.00"}`, domain.ErrNotFound, http.StatusNotFound, "RESOURCE_NOT_FOUND"},
		{"closing missing field", http.MethodPatch, "/ledger/days/9/closing", `{}`, nil, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"closing too precise", http.MethodPatch, "/ledger/days/9/closing", `{"closingBalance":"1.001"}`, domain.ErrInvalidBalance, http.StatusBadRequest, "INVALID_BALANCE"},
		{"opening locked", http.MethodPatch, "/ledger/days/9/opening", `{"openingBalance":"150.00","date":"2025-01-02"}`, domain.ErrOpeningBalanceLocked, http.StatusForbidden, "OPENING_BALANCE_LOCKED"},
		{"opening date mismatch", http.MethodPatch, "/ledger/days/9/opening", `{"openingBalance":"150.00","date":"2025-01-01"}`, domain.ErrDateMismatch, http.StatusBadRequest, "DATE_MISMATCH"},
		{"opening bad date", http.MethodPatch, "/ledger/days/9/opening", `{"openingBalance":"150.00","date":"jan 1"}`, nil, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"transactions unknown day", http.MethodGet, "/ledger/days/9/transactions", "", domain.ErrNotFound, http.StatusNotFound, "RESOURCE_NOT_FOUND"},
		{"add zero amount", http.MethodPost, "/ledger/days/9/transactions", `{"kind":"receipt","category":"verkopen_laag","amount":"0"}`, nil, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"add bad kind", http.MethodPost, "/ledger/days/9/transactions", `{"kind":"refund","category":"verkopen_laag","amount":"1"}`, nil, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"add bad vat rate", http.MethodPost, "/ledger/days/9/transactions", `{"kind":"receipt","category":"verkopen_laag","amount":"1","vatRate":"6%"}`, nil, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"add unknown category", http.MethodPost, "/ledger/days/9/transactions", `{"kind":"receipt","category":"fooi","amount":"1"}`, domain.ErrUnknownCategory, http.StatusBadRequest, "UNKNOWN_CATEGORY"},
		{"add database failure", http.MethodPost, "/ledger/days/9/transactions", `{"kind":"receipt","category":"verkopen_laag","amount":"1"}`, errors.New("connection refused"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mux := newTestMux(&mockLedger{err: tc.svcErr}, &mockJournal{})

			rec, resp := do(t, mux, tc.method, tc.path, tc.body)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.wantCode, resp.Error.Code)
		})
	}
}

func TestLedgerHandler_InternalErrorHidesDetail(t *testing.T) {
	mux := newTestMux(&mockLedger{err: errors.New("pq: relation \"ledger_days\" does not exist")}, &mockJournal{})

	rec, _ := do(t, mux, http.MethodGet, "/ledger/days", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "ledger_days")
}

func TestLedgerHandler_ListDays(t *testing.T) {
	ledger := &mockLedger{days: []domain.LedgerDay{
		{ID: 1, Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), OpeningBalance: decimal.RequireFromString("100"), ClosingBalance: decimal.NewNullDecimal(decimal.RequireFromString("150.5"))},
		{ID: 2, Date: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), OpeningBalance: decimal.RequireFromString("150.50")},
	}}
	mux := newTestMux(ledger, &mockJournal{})

	rec, _ := do(t, mux, http.MethodGet, "/ledger/days?month=2025-03", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, ledger.gotMonth)
	assert.Equal(t, "2025-03", ledger.gotMonth.String())

	var body struct {
		Data []ledgerDayDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "2025-03-01", body.Data[0].Date)
	assert.Equal(t, "100.00", body.Data[0].OpeningBalance)
	require.NotNil(t, body.Data[0].ClosingBalance)
	assert.Equal(t, "150.50", *body.Data[0].ClosingBalance)
	assert.Nil(t, body.Data[1].ClosingBalance)

	ledger.gotMonth = nil
	rec, _ = do(t, mux, http.MethodGet, "/ledger/days", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, ledger.gotMonth)
}

func TestLedgerHandler_CreateDay(t *testing.T) {
	ledger := &mockLedger{}
	mux := newTestMux(ledger, &mockJournal{})

	rec, resp := do(t, mux, http.MethodPost, "/ledger/days", `{"date":"2025-01-01","openingBalance":100}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "/ledger/days/11", rec.Header().Get("Location"))
	assert.Equal(t, "2025-01-01", ledger.createDate.Format(domain.DateLayout))
	assert.Equal(t, "100.00", ledger.gotAmount.StringFixed(2))
}

func TestLedgerHandler_SetOpeningBalance_PassesDate(t *testing.T) {
	ledger := &mockLedger{}
	mux := newTestMux(ledger, &mockJournal{})

	rec, _ := do(t, mux, http.MethodPatch, "/ledger/days/4/opening", `{"openingBalance":"150.00","date":"2025-01-01"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, ledger.gotDate)
	assert.Equal(t, "2025-01-01", ledger.gotDate.Format(domain.DateLayout))

	rec, _ = do(t, mux, http.MethodPatch, "/ledger/days/4/opening", `{"openingBalance":"150.00"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, ledger.gotDate)
}

func TestLedgerHandler_AddTransaction(t *testing.T) {
	ledger := &mockLedger{}
	mux := newTestMux(ledger, &mockJournal{})

	rec, _ := do(t, mux, http.MethodPost, "/ledger/days/3/transactions",
		`{"kind":"receipt","category":" verkopen_laag ","amount":"109.00","vatRate":"9%","description":"lunch"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(3), ledger.gotAddTxn.DayID)
	assert.Equal(t, "verkopen_laag", ledger.gotAddTxn.Category)
	require.NotNil(t, ledger.gotAddTxn.VATRate)
	assert.Equal(t, domain.VATLow, *ledger.gotAddTxn.VATRate)

	var body struct {
		Data transactionDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "109.00", body.Data.Amount)
	require.NotNil(t, body.Data.VATRate)
	assert.Equal(t, "9%", *body.Data.VATRate)
	require.NotNil(t, body.Data.Description)
	assert.Equal(t, "lunch", *body.Data.Description)
}

func TestJournalHandler(t *testing.T) {
	journal := &mockJournal{lines: []domain.JournalLine{
		{LedgerAccount: "8001", Label: "Verkopen laag", Amount: decimal.RequireFromString("100")},
		{LedgerAccount: "0000", Label: "VAT payable", Amount: decimal.RequireFromString("9")},
	}}
	mux := newTestMux(&mockLedger{}, journal)

	t.Run("bad month", func(t *testing.T) {
		rec, resp := do(t, mux, http.MethodGet, "/ledger/months/march/journal", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "INVALID_MONTH", resp.Error.Code)
	})

	t.Run("json", func(t *testing.T) {
		rec, _ := do(t, mux, http.MethodGet, "/ledger/months/2025-03/journal", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Data []journalLineDTO `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, []journalLineDTO{
			{LedgerAccount: "8001", Label: "Verkopen laag", Amount: "100.00"},
			{LedgerAccount: "0000", Label: "VAT payable", Amount: "9.00"},
		}, body.Data)
	})

	t.Run("csv", func(t *testing.T) {
		rec, _ := do(t, mux, http.MethodGet, "/ledger/months/2025-03/journal.csv", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "journal-2025-03.csv")
		assert.Equal(t, "ledger_account,label,amount\n8001,Verkopen laag,100.00\n0000,VAT payable,9.00\n", rec.Body.String())
	})

	t.Run("empty month is an empty array", func(t *testing.T) {
		mux := newTestMux(&mockLedger{}, &mockJournal{lines: []domain.JournalLine{}})
		rec, _ := do(t, mux, http.MethodGet, "/ledger/months/2025-06/journal", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"success":true,"data":[],"error":null}`, rec.Body.String())
	})
}

func TestJournalHandler_Summary(t *testing.T) {
	day := domain.LedgerDay{ID: 1, Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), OpeningBalance: decimal.RequireFromString("100")}
	journal := &mockJournal{summary: &domain.MonthSummary{
		Month: domain.Month{Year: 2025, Month: time.March},
		Days: []domain.DaySummary{{
			Day:             day,
			Totals:          domain.DayTotals{Receipts: decimal.RequireFromString("10"), Expenses: decimal.Zero, Other: decimal.Zero},
			ExpectedClosing: decimal.RequireFromString("110"),
		}},
		Receipts: decimal.RequireFromString("10"),
		Expenses: decimal.Zero,
		Other:    decimal.Zero,
	}}
	mux := newTestMux(&mockLedger{}, journal)

	rec, _ := do(t, mux, http.MethodGet, "/ledger/months/2025-03/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data monthSummaryDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2025-03", body.Data.Month)
	require.Len(t, body.Data.Days, 1)
	assert.Equal(t, "110.00", body.Data.Days[0].ExpectedClosing)
	assert.Nil(t, body.Data.Days[0].Difference)
	assert.Equal(t, "10.00", body.Data.Receipts)
}

func TestListCategories(t *testing.T) {
	rules, err := category.Default()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	ListCategories(rules)(rec, httptest.NewRequest(http.MethodGet, "/ledger/categories", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []categoryDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Data)

	byKey := map[string]categoryDTO{}
	for _, c := range body.Data {
		byKey[c.Key] = c
	}
	require.Contains(t, byKey, "naar_bank_afgestort")
	assert.Nil(t, byKey["naar_bank_afgestort"].LedgerAccount)
	require.NotNil(t, byKey["verkopen_laag"].LedgerAccount)
	assert.Equal(t, "8001", *byKey["verkopen_laag"].LedgerAccount)
	assert.Equal(t, "9%", byKey["verkopen_laag"].VATTreatment)
}

type stubPinger struct{ err error }

func (s stubPinger) PingContext(context.Context) error { return s.err }

func TestHealthHandler_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"database up", nil, http.StatusOK},
		{"database down", errors.New("dial tcp: connection refused"), http.StatusServiceUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHealthHandler(stubPinger{err: tc.err}, "test")
			rec := httptest.NewRecorder()
			h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestServeSpec_Revalidation(t *testing.T) {
	h := ServeSpec([]byte("openapi: 3.0.3\n"))

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/docs/openapi.yaml", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Equal(t, "openapi: 3.0.3\n", rec.Body.String())
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/docs/openapi.yaml", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())

	other := ServeSpec([]byte("openapi: 3.1.0\n"))
	rec = httptest.NewRecorder()
	other(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, etag, rec.Header().Get("ETag"))
}

func TestServeDocs(t *testing.T) {
	rec := httptest.NewRecorder()
	ServeDocs("/docs/openapi.yaml")(rec, httptest.NewRequest(http.MethodGet, "/docs", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "swagger-ui")
	assert.Contains(t, rec.Body.String(), "openapi.yaml")
}

func TestLedgerHandler_RejectsExtremeAmountsQuickly(t *testing.T) {
	rules, err := category.Default()
	require.NoError(t, err)
	// Validation runs before any repository call, so none are wired.
	mux := newTestMux(service.NewLedgerService(nil, nil, nil, rules, nil), &mockJournal{})

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCode string
	}{
		{"transaction amount", http.MethodPost, "/ledger/days/1/transactions", `{"kind":"expense","category":"inkoop_food","amount":"1e20000000"}`, "INVALID_AMOUNT"},
		{"transaction amount as number", http.MethodPost, "/ledger/days/1/transactions", `{"kind":"receipt","category":"verkopen_laag","amount":1e1000000000}`, "INVALID_AMOUNT"},
		{"opening balance of new day", http.MethodPost, "/ledger/days", `{"date":"2025-03-01","openingBalance":"1e20000000"}`, "INVALID_BALANCE"},
		{"closing balance", http.MethodPatch, "/ledger/days/1/closing", `{"closingBalance":"-1e20000000"}`, "INVALID_BALANCE"},
		{"opening balance", http.MethodPatch, "/ledger/days/1/opening", `{"openingBalance":"1e-20000000"}`, "INVALID_BALANCE"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			start := time.Now()
			rec, resp := do(t, mux, tc.method, tc.path, tc.body)
			elapsed := time.Since(start)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.wantCode, resp.Error.Code)
			assert.Less(t, elapsed, time.Second)
		})
	}
}

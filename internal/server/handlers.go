package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tripmate/tripledger/internal/calculator"
	"github.com/tripmate/tripledger/internal/ledger"
	"github.com/tripmate/tripledger/internal/middleware"
	"github.com/tripmate/tripledger/internal/models"
	"github.com/tripmate/tripledger/internal/settlement"
	"github.com/tripmate/tripledger/internal/storage"
)

// paymentJSON is the wire shape of an expense record. Amounts go out as
// strings; the screens never do arithmetic on them.
type paymentJSON struct {
	ID                string     `json:"id"`
	TripID            string     `json:"tripId"`
	PayerID           string     `json:"payerId"`
	Amount            string     `json:"amount"`
	Currency          string     `json:"currency"`
	Description       string     `json:"description,omitempty"`
	SplitParticipants []string   `json:"splitParticipants"`
	SplitCount        int        `json:"splitCount"`
	Status            string     `json:"status"`
	IsSettled         bool       `json:"isSettled"`
	SettledAt         *time.Time `json:"settledAt,omitempty"`
	SettledBy         string     `json:"settledBy,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

type balanceEntryJSON struct {
	CounterpartID      string   `json:"counterpartId"`
	CounterpartName    string   `json:"counterpartName"`
	AmountOwed         string   `json:"amountOwed"`
	Currency           string   `json:"currency"`
	UnsettledRecordIDs []string `json:"unsettledRecordIds"`
}

type balanceSummaryJSON struct {
	TripID            string             `json:"tripId"`
	ViewerID          string             `json:"viewerId"`
	TotalOwed         string             `json:"totalOwed"`
	TotalOwedToViewer string             `json:"totalOwedToViewer"`
	NetBalance        string             `json:"netBalance"`
	BaseCurrency      string             `json:"baseCurrency"`
	Balances          []balanceEntryJSON `json:"balances"`
}

type createPaymentRequest struct {
	PayerID           string   `json:"payerId"`
	Amount            string   `json:"amount"`
	Currency          string   `json:"currency"`
	Description       string   `json:"description"`
	SplitParticipants []string `json:"splitParticipants"`
}

type settleRequest struct {
	By string `json:"by"`
}

type errorJSON struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	records, err := s.ledger.ListPayments(r.Context(), r.PathValue("tripID"))
	if err != nil {
		writeError(w, err)
		return
	}

	payments := make([]paymentJSON, len(records))
	for i, rec := range records {
		payments[i] = toPaymentJSON(rec)
	}
	writeJSON(w, http.StatusOK, payments)
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "malformed request body"})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "malformed amount: " + req.Amount})
		return
	}

	rec, err := s.ledger.CreatePayment(r.Context(), models.CreatePaymentInput{
		TripID:            r.PathValue("tripID"),
		PayerID:           req.PayerID,
		Amount:            amount,
		Currency:          req.Currency,
		Description:       req.Description,
		SplitParticipants: req.SplitParticipants,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentJSON(rec))
}

func (s *Server) handleMarkSettled(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	// Body is optional: the token identity wins when present.
	_ = json.NewDecoder(r.Body).Decode(&req)

	by := middleware.GetViewerID(r.Context())
	if by == "" {
		by = req.By
	}

	rec, err := s.ledger.MarkSettled(r.Context(), r.PathValue("tripID"), r.PathValue("recordID"), by)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentJSON(rec))
}

func (s *Server) handleBalanceSummary(w http.ResponseWriter, r *http.Request) {
	viewerID := middleware.GetViewerID(r.Context())
	if viewerID == "" {
		viewerID = r.URL.Query().Get("viewer")
	}
	if viewerID == "" {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "viewer identity required"})
		return
	}

	summary, err := s.ledger.GetBalanceSummary(r.Context(), r.PathValue("tripID"), viewerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceSummaryJSON(summary))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Refresh(r.Context(), r.PathValue("tripID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toPaymentJSON(rec models.ExpenseRecord) paymentJSON {
	return paymentJSON{
		ID:                rec.ID,
		TripID:            rec.TripID,
		PayerID:           rec.PayerID,
		Amount:            rec.Amount.String(),
		Currency:          rec.Currency,
		Description:       rec.Description,
		SplitParticipants: rec.SplitParticipants,
		SplitCount:        rec.SplitCount,
		Status:            string(settlement.StatusOf(rec)),
		IsSettled:         rec.IsSettled,
		SettledAt:         rec.SettledAt,
		SettledBy:         rec.SettledBy,
		CreatedAt:         rec.CreatedAt,
	}
}

func toBalanceSummaryJSON(s models.BalanceSummary) balanceSummaryJSON {
	entries := make([]balanceEntryJSON, len(s.Balances))
	for i, e := range s.Balances {
		entries[i] = balanceEntryJSON{
			CounterpartID:      e.CounterpartID,
			CounterpartName:    e.CounterpartName,
			AmountOwed:         e.AmountOwed.String(),
			Currency:           e.Currency,
			UnsettledRecordIDs: e.UnsettledRecordIDs,
		}
	}
	return balanceSummaryJSON{
		TripID:            s.TripID,
		ViewerID:          s.ViewerID,
		TotalOwed:         s.TotalOwed.String(),
		TotalOwedToViewer: s.TotalOwedToViewer.String(),
		NetBalance:        s.NetBalance.String(),
		BaseCurrency:      s.BaseCurrency,
		Balances:          entries,
	}
}

// writeError maps domain errors to status codes. LoadError carries a
// retryable hint so the ledger screen offers a manual retry instead of an
// indefinite spinner.
func writeError(w http.ResponseWriter, err error) {
	var invalidSplit *calculator.InvalidSplitError
	var loadErr *ledger.LoadError

	switch {
	case errors.As(err, &invalidSplit):
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorJSON{Error: err.Error()})
	case errors.As(err, &loadErr):
		w.Header().Set("Retry-After", "2")
		writeJSON(w, http.StatusServiceUnavailable, errorJSON{Error: err.Error(), Retryable: true})
	default:
		slog.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

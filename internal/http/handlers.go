package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"budgetbot/internal/analytics"
	"budgetbot/internal/core"
	applog "budgetbot/internal/log"
	"budgetbot/internal/nlp"
	"budgetbot/internal/services"
)

const helpMessage = `I track household spending. Tell me about an expense:
- "spent $20 on groceries"
- "20 taxi"
- "utilities: 50"
Or ask for numbers:
- "budget" or "summary" for this month's budget summary
- "report" for the detailed breakdown`

type webhookRequest struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

type webhookResponse struct {
	Reply string `json:"reply"`
}

// handleWebhook is the chat entry point: a command keyword gets a report,
// anything else goes through the expense parser.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeJSON(w, http.StatusOK, webhookResponse{Reply: nlp.UsageHint})
		return
	}

	ctx := r.Context()

	switch strings.ToLower(message) {
	case "budget", "summary":
		report, err := s.monthReport(ctx, s.currentMonth(ctx))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to build report")
			return
		}
		writeJSON(w, http.StatusOK, webhookResponse{Reply: report.Summary()})
		return
	case "report":
		report, err := s.monthReport(ctx, s.currentMonth(ctx))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to build report")
			return
		}
		writeJSON(w, http.StatusOK, webhookResponse{Reply: report.Detailed()})
		return
	case "help":
		writeJSON(w, http.StatusOK, webhookResponse{Reply: helpMessage})
		return
	}

	result := s.parser.Parse(message)
	if !result.OK {
		writeJSON(w, http.StatusOK, webhookResponse{Reply: result.Message})
		return
	}

	ds, err := s.store.Load(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load data")
		return
	}

	expense := core.Expense{
		UserID:      ds.ResolveSender(req.From),
		Amount:      result.Amount,
		Category:    result.Category,
		Description: result.Description,
		Date:        core.DateOf(time.Now()),
	}
	if _, err := s.expenses.CreateExpense(ctx, expense, services.SourceChat); err != nil {
		slog.ErrorContext(ctx, "Failed to store parsed expense", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to store expense")
		return
	}
	s.invalidateReports()

	writeJSON(w, http.StatusOK, webhookResponse{Reply: result.Message})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = s.currentMonth(r.Context())
	}
	if !core.IsMonthKey(month) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid month %q: want YYYY-MM", month))
		return
	}

	report, err := s.monthReport(r.Context(), month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = s.currentMonth(r.Context())
	}
	if !core.IsMonthKey(month) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid month %q: want YYYY-MM", month))
		return
	}

	report, err := s.monthReport(r.Context(), month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	alerts := report.Alerts
	if alerts == nil {
		alerts = []analytics.Alert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var e core.Expense
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	if e.Date.IsZero() {
		e.Date = core.DateOf(time.Now())
	}
	// A description without a category goes through the classifier, so the
	// API accepts the same loose input as chat.
	if strings.TrimSpace(e.Category) == "" && strings.TrimSpace(e.Description) != "" {
		e.Category = s.parser.Classify(e.Description)
	}

	stored, err := s.expenses.CreateExpense(ctx, e, services.SourceAPI)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.invalidateReports()

	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.expenses.DeleteExpense(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.invalidateReports()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpsertBudget(w http.ResponseWriter, r *http.Request) {
	var b core.Budget
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if b.Month == "" {
		b.Month = s.currentMonth(r.Context())
	}

	stored, err := s.expenses.UpsertBudget(r.Context(), b)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.invalidateReports()

	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	ds, err := s.store.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load data")
		return
	}
	subs := ds.Subscriptions
	if subs == nil {
		subs = []core.Subscription{}
	}
	writeJSON(w, http.StatusOK, subs)
}

func (s *Server) handleSaveSubscription(w http.ResponseWriter, r *http.Request) {
	var sub core.Subscription
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	stored, err := s.expenses.SaveSubscription(r.Context(), sub)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleToggleSubscription(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	toggled, err := s.expenses.ToggleSubscription(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toggled)
}

// currentMonth is the month reports default to: the dataset's selected
// month when set, otherwise the calendar month.
func (s *Server) currentMonth(ctx context.Context) string {
	if ds, err := s.store.Load(ctx); err == nil && core.IsMonthKey(ds.SelectedMonth) {
		return ds.SelectedMonth
	}
	return time.Now().Format("2006-01")
}

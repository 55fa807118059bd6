package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/bankledger/internal/adapter/http/dto"
	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// PaymentService defines the behavior needed by PaymentHandler.
type PaymentService interface {
	SchedulePayment(ctx context.Context, input usecase.SchedulePaymentInput) (domain.RecurringPayment, error)
	CancelPayment(ctx context.Context, accountID, paymentID string) error
	ListPayments(ctx context.Context, accountID string) ([]domain.RecurringPayment, error)
	ProcessAccount(ctx context.Context, accountID string) (int, error)
	ScheduleTransfer(ctx context.Context, input usecase.ScheduleTransferInput) (domain.ScheduledTransfer, error)
	ListScheduledTransfers(ctx context.Context) ([]domain.ScheduledTransfer, error)
	GetScheduledTransfer(ctx context.Context, id string) (domain.ScheduledTransfer, error)
	ProcessScheduledTransfers(ctx context.Context) (int, error)
}

// PaymentHandler handles recurring payments and scheduled transfers.
type PaymentHandler struct {
	paymentUC PaymentService
	loc       *time.Location
}

// NewPaymentHandler creates a new PaymentHandler. Dates sent without a zone
// are interpreted in loc.
func NewPaymentHandler(paymentUC PaymentService, loc *time.Location) *PaymentHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &PaymentHandler{paymentUC: paymentUC, loc: loc}
}

// Schedule attaches a recurring payment to an account.
func (h *PaymentHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	var req dto.SchedulePaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput(chi.URLParam(r, "id"), h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	payment, err := h.paymentUC.SchedulePayment(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to schedule payment", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.RecurringPaymentFromDomain(payment))
}

// List returns the recurring payments of an account.
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	payments, err := h.paymentUC.ListPayments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to list payments", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"payments": dto.RecurringPaymentsFromDomain(payments),
	})
}

// Cancel deactivates a recurring payment.
func (h *PaymentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	err := h.paymentUC.CancelPayment(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "paymentID"))
	if err != nil {
		writeDomainError(w, "failed to cancel payment", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Process executes the due recurring payments of an account.
func (h *PaymentHandler) Process(w http.ResponseWriter, r *http.Request) {
	executed, err := h.paymentUC.ProcessAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to process payments", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ProcessResponse{Executed: executed})
}

// ScheduleTransfer registers a one-shot future transfer.
func (h *PaymentHandler) ScheduleTransfer(w http.ResponseWriter, r *http.Request) {
	var req dto.ScheduleTransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput(h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	transfer, err := h.paymentUC.ScheduleTransfer(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to schedule transfer", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ScheduledTransferFromDomain(transfer))
}

// ListScheduledTransfers returns every scheduled transfer.
func (h *PaymentHandler) ListScheduledTransfers(w http.ResponseWriter, r *http.Request) {
	transfers, err := h.paymentUC.ListScheduledTransfers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list scheduled transfers", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"scheduled_transfers": dto.ScheduledTransfersFromDomain(transfers),
	})
}

// GetScheduledTransfer returns one scheduled transfer.
func (h *PaymentHandler) GetScheduledTransfer(w http.ResponseWriter, r *http.Request) {
	transfer, err := h.paymentUC.GetScheduledTransfer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get scheduled transfer", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ScheduledTransferFromDomain(transfer))
}

// ProcessScheduledTransfers executes every ready scheduled transfer.
func (h *PaymentHandler) ProcessScheduledTransfers(w http.ResponseWriter, r *http.Request) {
	executed, err := h.paymentUC.ProcessScheduledTransfers(r.Context())
	if err != nil {
		writeDomainError(w, "failed to process scheduled transfers", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ProcessResponse{Executed: executed})
}

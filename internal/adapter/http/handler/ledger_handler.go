package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/adapter/http/dto"
	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// LedgerService defines the behavior needed by LedgerHandler.
type LedgerService interface {
	Deposit(ctx context.Context, input usecase.DepositInput) (decimal.Decimal, error)
	Withdraw(ctx context.Context, input usecase.WithdrawInput) (usecase.WithdrawResult, error)
	Transfer(ctx context.Context, input usecase.TransferInput) (bool, error)
	CheckConsistency(ctx context.Context) (*usecase.ConsistencyReport, error)
}

// LedgerHandler handles balance operations and ledger-wide checks.
type LedgerHandler struct {
	ledgerUC LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC}
}

// Deposit credits an account.
func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req dto.AmountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	input, err := req.ToDepositInput(id)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	balance, err := h.ledgerUC.Deposit(r.Context(), input)
	if err != nil {
		writeDomainError(w, "deposit failed", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{AccountID: id, Balance: balance.StringFixed(2)})
}

// Withdraw debits an account. Insufficient funds is a 200 with success=false.
func (h *LedgerHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req dto.AmountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	input, err := req.ToWithdrawInput(id)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	result, err := h.ledgerUC.Withdraw(r.Context(), input)
	if err != nil {
		writeDomainError(w, "withdrawal failed", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WithdrawResponse{
		AccountID: id,
		Balance:   result.Balance.StringFixed(2),
		Success:   result.Success,
	})
}

// Transfer moves money between two accounts.
func (h *LedgerHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req dto.TransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	ok, err := h.ledgerUC.Transfer(r.Context(), input)
	if err != nil {
		if errors.Is(err, domain.ErrTransferInconsistency) {
			writeError(w, http.StatusInternalServerError, "transfer left the ledger inconsistent", err.Error())
			return
		}
		writeDomainError(w, "transfer failed", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransferResponse{Success: ok})
}

// CheckConsistency replays every journal and reports defects.
func (h *LedgerHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	report, err := h.ledgerUC.CheckConsistency(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check consistency", err.Error())
		return
	}

	status := http.StatusOK
	if !report.Consistent {
		status = http.StatusConflict
	}

	writeJSON(w, status, dto.ConsistencyFromReport(report))
}

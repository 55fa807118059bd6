package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/bankledger/internal/adapter/http/dto"
	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	OpenAccount(ctx context.Context, input usecase.OpenAccountInput) (usecase.AccountDetails, error)
	GetAccount(ctx context.Context, id string) (usecase.AccountDetails, error)
	ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]usecase.AccountDetails, error)
	Counts(ctx context.Context) (usecase.RegistryCounts, error)
	Freeze(ctx context.Context, id string) error
	Unfreeze(ctx context.Context, id string) error
	UpdateLimits(ctx context.Context, id string, input usecase.UpdateLimitsInput) (usecase.AccountDetails, error)
	History(ctx context.Context, id string, filter ...domain.TransactionType) ([]domain.Transaction, error)
	ClearHistory(ctx context.Context, id string) error
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// Create opens a new account.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.OpenAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	account, err := h.accountUC.OpenAccount(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to open account", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDetails(account))
}

// Get retrieves an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, err := h.accountUC.GetAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDetails(account))
}

// List lists accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	accounts, err := h.accountUC.ListAccounts(r.Context(), usecase.ListAccountsInput{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list accounts", err.Error())
		return
	}

	counts, err := h.accountUC.Counts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count accounts", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromDetails(accounts),
		Total:    counts.Total,
		Active:   counts.Active,
		Frozen:   counts.Frozen,
	})
}

// Freeze deactivates an account.
func (h *AccountHandler) Freeze(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, h.accountUC.Freeze)
}

// Unfreeze reactivates an account.
func (h *AccountHandler) Unfreeze(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, h.accountUC.Unfreeze)
}

func (h *AccountHandler) setActive(w http.ResponseWriter, r *http.Request, apply func(context.Context, string) error) {
	id := chi.URLParam(r, "id")

	if err := apply(r.Context(), id); err != nil {
		writeDomainError(w, "failed to change account status", err)
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDetails(account))
}

// UpdateLimits changes the withdrawal and/or deposit limit.
func (h *AccountHandler) UpdateLimits(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateLimitsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	account, err := h.accountUC.UpdateLimits(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		writeDomainError(w, "failed to update limits", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDetails(account))
}

// History returns the journal, filtered by any number of ?type= parameters.
func (h *AccountHandler) History(w http.ResponseWriter, r *http.Request) {
	var filter []domain.TransactionType
	for _, raw := range r.URL.Query()["type"] {
		typ, err := domain.ParseTransactionType(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid transaction type", err.Error())
			return
		}
		filter = append(filter, typ)
	}

	txs, err := h.accountUC.History(r.Context(), chi.URLParam(r, "id"), filter...)
	if err != nil {
		writeDomainError(w, "failed to get history", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": dto.TransactionsFromDomain(txs),
	})
}

// ClearHistory drops the journal of an account.
func (h *AccountHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.accountUC.ClearHistory(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "failed to clear history", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"credit-engine/internal/api/handler/dto"
	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/infrastructure/monitoring"
	"credit-engine/internal/pkg/apperrors"

	"github.com/go-chi/chi/v5"
)

type LoanHandler struct {
	service loan.LoanService
	logger  *slog.Logger
}

func NewLoanHandler(s loan.LoanService, l *slog.Logger) *LoanHandler {
	if s == nil {
		panic("loan service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &LoanHandler{
		service: s,
		logger:  l.With("component", "LoanHandler"),
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("no request body")
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":{"message":"Internal server error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondError(w http.ResponseWriter, err error) {
	status, message, field := http.StatusInternalServerError, "An unexpected error occurred.", ""
	var validationError *apperrors.ValidationError
	var appErr *apperrors.AppError

	switch {
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, customer.ErrNotFound):
		status, message = http.StatusNotFound, "Resource not found."
	case errors.Is(err, customer.ErrPhoneAlreadyRegistered):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrAlreadyExists):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, apperrors.ErrInvalidArgument), errors.Is(err, apperrors.ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, apperrors.ErrUnauthorized):
		status, message = http.StatusUnauthorized, "Unauthorized."
	case errors.As(err, &validationError):
		status, message, field = http.StatusBadRequest, validationError.Message, validationError.Field
	case errors.As(err, &appErr):
		message = appErr.Error()
	default:
		slog.Default().Error("Unhandled internal error", "error", err)
	}

	resp := dto.ErrorResponse{
		Error: dto.ErrorDetail{
			Message: message,
			Field:   field,
		},
	}
	respondJSON(w, status, resp)
}

func getLoanIDFromURL(r *http.Request) (int64, error) {
	idStr := chi.URLParam(r, "loanID")
	if idStr == "" {
		return 0, fmt.Errorf("%w: loanID not found in URL path", apperrors.ErrInvalidArgument)
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid loanID format in URL path: %s", apperrors.ErrInvalidArgument, idStr)
	}
	return id, nil
}

// Limit and affordability rejections are contract violations of the request
// itself and answer 422; a low credit score is a normal negative decision
// and answers 200.
func eligibilityStatus(decision *loan.Decision) int {
	if decision.Approved {
		return http.StatusOK
	}
	switch decision.RejectionReason {
	case loan.ReasonLimitExceeded, loan.ReasonUnaffordable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusOK
	}
}

// CheckEligibility handles POST /loans/check-eligibility
// @Summary Check loan eligibility
// @Description Scores the customer's credit history and decides whether the requested loan would be approved, possibly at a corrected interest rate.
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.LoanApplicationRequest true "Eligibility check request"
// @Success 200 {object} dto.EligibilityResponse "Decision reached"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 422 {object} dto.EligibilityResponse "Request violates limit or affordability rules"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/check-eligibility [post]
// @Security BearerAuth
func (h *LoanHandler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	h.logger.DebugContext(r.Context(), "Received eligibility check request")

	var req dto.LoanApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	decision, err := h.service.CheckEligibility(r.Context(), req.CustomerID, req.LoanAmount, req.InterestRate, req.Tenure)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Service failed to check eligibility", slog.Any("error", err))
		respondError(w, err)
		return
	}

	monitoring.RecordCreditDecision(decision.Approved)
	respondJSON(w, eligibilityStatus(decision), dto.NewEligibilityResponse(decision, req.Tenure))
}

// CreateLoan handles POST /loans
// @Summary Apply for a loan
// @Description Runs the eligibility decision and, when approved, originates the loan at the corrected interest rate.
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.LoanApplicationRequest true "Loan application request"
// @Success 200 {object} dto.CreateLoanResponse "Loan approved and created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 409 {object} dto.ErrorResponse "Concurrent origination conflict"
// @Failure 422 {object} dto.CreateLoanResponse "Application rejected"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans [post]
// @Security BearerAuth
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	h.logger.DebugContext(r.Context(), "Received loan application request")

	var req dto.LoanApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	result, err := h.service.OriginateLoan(r.Context(), req.CustomerID, req.LoanAmount, req.InterestRate, req.Tenure)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Service failed to originate loan", slog.Any("error", err))
		respondError(w, err)
		return
	}

	monitoring.RecordCreditDecision(result.Approved)
	status := http.StatusOK
	if !result.Approved {
		status = http.StatusUnprocessableEntity
	} else {
		monitoring.RecordLoanOriginated()
		h.logger.InfoContext(r.Context(), "Loan originated", slog.Int64("loanID", result.LoanID))
	}
	respondJSON(w, status, dto.NewCreateLoanResponse(result))
}

// ViewLoan handles GET /loans/{loanID}
// @Summary View loans by business ID
// @Description Returns every loan carrying the business loan ID together with its owning customer. Business loan IDs are unique per customer, so several entries can share one ID.
// @Tags Loans
// @Produce json
// @Param loanID path int true "Business loan ID" Minimum(1)
// @Success 200 {array} dto.ViewLoanResponse "Loans found"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID format"
// @Failure 404 {object} dto.ErrorResponse "No loan with this ID"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID} [get]
// @Security BearerAuth
func (h *LoanHandler) ViewLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	snapshots, err := h.service.ViewLoan(r.Context(), loanID)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to view loan", slog.Any("error", err))
		respondError(w, err)
		return
	}

	resp := make([]dto.ViewLoanResponse, len(snapshots))
	for i, snapshot := range snapshots {
		resp[i] = dto.NewViewLoanResponse(snapshot)
	}
	respondJSON(w, http.StatusOK, resp)
}

// ViewCustomerLoans handles GET /customers/{customerID}/loans
// @Summary View a customer's active loans
// @Description Lists the customer's currently active loans with remaining repayment counts.
// @Tags Loans
// @Produce json
// @Param customerID path int true "Customer ID" Minimum(1)
// @Success 200 {array} dto.ActiveLoanResponse "Active loans (possibly empty)"
// @Failure 400 {object} dto.ErrorResponse "Invalid customer ID format"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers/{customerID}/loans [get]
// @Security BearerAuth
func (h *LoanHandler) ViewCustomerLoans(w http.ResponseWriter, r *http.Request) {
	customerID, err := getCustomerIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	loans, err := h.service.ViewActiveLoans(r.Context(), customerID)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, customer.ErrNotFound) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to view customer loans", slog.Any("error", err))
		respondError(w, err)
		return
	}

	resp := make([]dto.ActiveLoanResponse, len(loans))
	for i, l := range loans {
		resp[i] = dto.NewActiveLoanResponse(l)
	}
	respondJSON(w, http.StatusOK, resp)
}

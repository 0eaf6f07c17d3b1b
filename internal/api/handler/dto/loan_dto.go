package dto

import (
	"fmt"

	"credit-engine/internal/domain/loan"

	"github.com/shopspring/decimal"
)

// LoanApplicationRequest is the shared body of eligibility checks and loan
// applications.
type LoanApplicationRequest struct {
	CustomerID   int64   `json:"customer_id"`
	LoanAmount   float64 `json:"loan_amount"`
	InterestRate float64 `json:"interest_rate"`
	Tenure       int     `json:"tenure"`
}

func (r *LoanApplicationRequest) Validate() error {
	if r.CustomerID <= 0 {
		return fmt.Errorf("customer_id must be a positive number")
	}
	if r.LoanAmount <= 0 {
		return fmt.Errorf("loan_amount must be greater than zero")
	}
	if r.InterestRate <= 0 || r.InterestRate > 100 {
		return fmt.Errorf("interest_rate must be in (0, 100]")
	}
	if r.Tenure < loan.MinTenureMonths || r.Tenure > loan.MaxTenureMonths {
		return fmt.Errorf("tenure must be between %d and %d months", loan.MinTenureMonths, loan.MaxTenureMonths)
	}
	return nil
}

type EligibilityResponse struct {
	CustomerID            int64   `json:"customer_id"`
	Approval              bool    `json:"approval"`
	InterestRate          float64 `json:"interest_rate"`
	CorrectedInterestRate float64 `json:"corrected_interest_rate"`
	Tenure                int     `json:"tenure"`
	MonthlyInstallment    *string `json:"monthly_installment,omitempty"`
	Message               string  `json:"message,omitempty"`
}

func NewEligibilityResponse(decision *loan.Decision, tenure int) EligibilityResponse {
	resp := EligibilityResponse{
		CustomerID:            decision.CustomerID,
		Approval:              decision.Approved,
		InterestRate:          decision.RequestedRate,
		CorrectedInterestRate: decision.CorrectedRate,
		Tenure:                tenure,
		Message:               decision.RejectionReason,
	}
	if decision.MonthlyInstallment != nil {
		resp.MonthlyInstallment = formatMoney(*decision.MonthlyInstallment)
	}
	return resp
}

type CreateLoanResponse struct {
	LoanID             *int64  `json:"loan_id"`
	CustomerID         int64   `json:"customer_id"`
	LoanApproved       bool    `json:"loan_approved"`
	Message            string  `json:"message"`
	MonthlyInstallment *string `json:"monthly_installment,omitempty"`
}

func NewCreateLoanResponse(result *loan.OriginationResult) CreateLoanResponse {
	resp := CreateLoanResponse{
		CustomerID:   result.CustomerID,
		LoanApproved: result.Approved,
		Message:      result.Message,
	}
	if result.LoanID != 0 {
		loanID := result.LoanID
		resp.LoanID = &loanID
	}
	if result.MonthlyInstallment != nil {
		resp.MonthlyInstallment = formatMoney(*result.MonthlyInstallment)
	}
	return resp
}

type ViewLoanResponse struct {
	LoanID             int64           `json:"loan_id"`
	Customer           CustomerSummary `json:"customer"`
	LoanAmount         string          `json:"loan_amount"`
	InterestRate       float64         `json:"interest_rate"`
	MonthlyInstallment string          `json:"monthly_installment"`
	Tenure             int             `json:"tenure"`
}

func NewViewLoanResponse(snapshot loan.LoanSnapshot) ViewLoanResponse {
	return ViewLoanResponse{
		LoanID:             snapshot.Loan.LoanID,
		Customer:           NewCustomerSummary(snapshot.Customer),
		LoanAmount:         decimal.NewFromFloat(snapshot.Loan.LoanAmount).StringFixed(2),
		InterestRate:       snapshot.Loan.InterestRate,
		MonthlyInstallment: decimal.NewFromFloat(snapshot.Loan.MonthlyRepayment).StringFixed(2),
		Tenure:             snapshot.Loan.TenureMonths,
	}
}

type ActiveLoanResponse struct {
	LoanID             int64   `json:"loan_id"`
	LoanAmount         string  `json:"loan_amount"`
	InterestRate       float64 `json:"interest_rate"`
	MonthlyInstallment string  `json:"monthly_installment"`
	RepaymentsLeft     int     `json:"repayments_left"`
}

func NewActiveLoanResponse(l loan.Loan) ActiveLoanResponse {
	return ActiveLoanResponse{
		LoanID:             l.LoanID,
		LoanAmount:         decimal.NewFromFloat(l.LoanAmount).StringFixed(2),
		InterestRate:       l.InterestRate,
		MonthlyInstallment: decimal.NewFromFloat(l.MonthlyRepayment).StringFixed(2),
		RepaymentsLeft:     l.RepaymentsLeft(),
	}
}

type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type TokenRequest struct {
	Username string `json:"username"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

func formatMoney(m loan.Money) *string {
	s := decimal.NewFromFloat(float64(m)).StringFixed(2)
	return &s
}

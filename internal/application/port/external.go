package port

import (
	"context"

	"github.com/expensehub/approval-engine/internal/domain/entity"
)

// CurrencyConverter converts an amount between currencies. Used exactly once
// per expense, at rule-match time. Implementations must not retry on their
// own: a failed conversion aborts submission and surfaces to the caller.
type CurrencyConverter interface {
	Convert(ctx context.Context, amount float64, fromCurrency, toCurrency string) (float64, error)
}

// RateProvider exposes the provider's latest rate table, for display and
// diagnostics. Conversion itself goes through CurrencyConverter.
type RateProvider interface {
	Rates(ctx context.Context, baseCurrency string) (map[string]float64, error)
}

// ApproverRoster resolves how many active approvers hold a role for an
// expense submitter's team. Managers are scoped to the team, admins to the
// whole company.
type ApproverRoster interface {
	GetEligibleApproverCount(ctx context.Context, companyID, teamID int64, role entity.Role) (int, error)
}

// ReceiptExtraction is the structured result of receipt OCR.
type ReceiptExtraction struct {
	Success      bool    `json:"success"`
	MerchantName string  `json:"merchant_name,omitempty"`
	ReceiptDate  string  `json:"receipt_date,omitempty"`
	TotalAmount  float64 `json:"total_amount,omitempty"`
	Currency     string  `json:"currency,omitempty"`
	Confidence   float64 `json:"confidence,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// ReceiptExtractor is the black-box OCR collaborator: it turns a receipt
// file into structured fields. Extraction failure never blocks expense
// submission.
type ReceiptExtractor interface {
	Extract(ctx context.Context, receiptPath string) (*ReceiptExtraction, error)
}

package dto

import "github.com/shopspring/decimal"

// PayoutQuoteRequest asks how much source currency is needed to deliver a payout.
type PayoutQuoteRequest struct {
	TargetAmount   decimal.Decimal `json:"targetAmount"`
	TargetCurrency string          `json:"targetCurrency" binding:"required,len=3"`
	SourceCurrency string          `json:"sourceCurrency" binding:"omitempty,len=3"`
}

package mapping

import (
	"fmt"

	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
	"github.com/SscSPs/artist_ledger_app/internal/models"
	"github.com/goccy/go-json"
)

// ToModelPayment converts a domain Payment to a model Payment
func ToModelPayment(d domain.Payment) (models.Payment, error) {
	var transfer []byte
	if d.Transfer != nil {
		var err error
		if transfer, err = json.Marshal(d.Transfer); err != nil {
			return models.Payment{}, fmt.Errorf("encode transfer of payment %s: %w", d.PaymentID, err)
		}
	}
	return models.Payment{
		PaymentID:         d.PaymentID,
		ArtistProfileID:   d.ArtistProfileID,
		Amount:            d.Amount,
		Currency:          d.Currency,
		Status:            string(d.Status),
		Description:       d.Description,
		TransferReference: d.TransferReference,
		FailureReason:     d.FailureReason,
		LedgerEntryID:     d.LedgerEntryID,
		Transfer:          transfer,
		CompletedAt:       d.CompletedAt,
		FailedAt:          d.FailedAt,
		AuditFields:       ToModelAuditFields(d.AuditFields),
	}, nil
}

// ToDomainPayment converts a model Payment to a domain Payment
func ToDomainPayment(m models.Payment) (domain.Payment, error) {
	var transfer *domain.PaymentTransfer
	if len(m.Transfer) > 0 && string(m.Transfer) != "null" {
		transfer = &domain.PaymentTransfer{}
		if err := json.Unmarshal(m.Transfer, transfer); err != nil {
			return domain.Payment{}, fmt.Errorf("decode transfer of payment %s: %w", m.PaymentID, err)
		}
	}
	return domain.Payment{
		PaymentID:         m.PaymentID,
		ArtistProfileID:   m.ArtistProfileID,
		Amount:            m.Amount,
		Currency:          m.Currency,
		Status:            domain.PaymentStatus(m.Status),
		Description:       m.Description,
		TransferReference: m.TransferReference,
		FailureReason:     m.FailureReason,
		LedgerEntryID:     m.LedgerEntryID,
		Transfer:          transfer,
		CompletedAt:       m.CompletedAt,
		FailedAt:          m.FailedAt,
		AuditFields:       ToDomainAuditFields(m.AuditFields),
	}, nil
}

// ToDomainPaymentSlice converts model Payments, failing on the first undecodable transfer.
func ToDomainPaymentSlice(ms []models.Payment) ([]domain.Payment, error) {
	ds := make([]domain.Payment, len(ms))
	for i, m := range ms {
		d, err := ToDomainPayment(m)
		if err != nil {
			return nil, err
		}
		ds[i] = d
	}
	return ds, nil
}

// ToDomainPaymentStats converts aggregate rows to domain PaymentStatRows
func ToDomainPaymentStats(ms []models.PaymentStat) []domain.PaymentStatRow {
	ds := make([]domain.PaymentStatRow, len(ms))
	for i, m := range ms {
		ds[i] = domain.PaymentStatRow{
			Status:   domain.PaymentStatus(m.Status),
			Currency: m.Currency,
			Count:    m.Count,
			Total:    m.Total,
		}
	}
	return ds
}

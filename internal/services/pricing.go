package services

import (
	"github.com/dstroumpakos/escape-app-sub001/internal/constants"
	"github.com/dstroumpakos/escape-app-sub001/internal/models"
	"github.com/dstroumpakos/escape-app-sub001/internal/utils"
)

// ComputeTotal prices a booking from the room's table. A per-group entry
// for the exact player count wins; otherwise price × players.
func ComputeTotal(room *models.Room, players int) float64 {
	for _, g := range room.PricePerGroup {
		if g.Players == players {
			return utils.RoundMoney(g.Price)
		}
	}
	return utils.RoundMoney(room.Price * float64(players))
}

// ResolvePaymentTerms defaults empty input to full payment.
func ResolvePaymentTerms(raw string) (models.PaymentTerms, error) {
	switch models.PaymentTerms(raw) {
	case "":
		return models.PaymentTermsFull, nil
	case models.PaymentTermsFull, models.PaymentTermsDeposit20, models.PaymentTermsPayOnArrival:
		return models.PaymentTerms(raw), nil
	}
	return "", utils.NewValidationError("payment_terms", "must be one of full, deposit_20, pay_on_arrival")
}

// PaymentFor derives the payment status and, for deposit_20 only, the
// deposit amount.
func PaymentFor(terms models.PaymentTerms, total float64) (models.PaymentStatus, *float64) {
	switch terms {
	case models.PaymentTermsDeposit20:
		deposit := utils.RoundMoney(total * constants.DepositRate)
		return models.PaymentStatusDeposit, &deposit
	case models.PaymentTermsPayOnArrival:
		return models.PaymentStatusUnpaid, nil
	default:
		return models.PaymentStatusPaid, nil
	}
}

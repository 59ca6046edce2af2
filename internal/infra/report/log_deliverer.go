// Package report implements the outbound report delivery action. The bundled
// deliverer logs instead of sending mail; a transactional email provider sits
// behind the same interface in production.
package report

import (
	"context"
	"log"

	"persona-service/internal/app"
	"persona-service/internal/domain"
)

// LogDeliverer recomputes the result from the stored responses and logs the
// delivery. The type is always recomputed here: the delivery path never
// trusts a client-supplied type.
type LogDeliverer struct {
	banks  app.BankRepository
	bankID string
}

func NewLogDeliverer(banks app.BankRepository, bankID string) *LogDeliverer {
	return &LogDeliverer{banks: banks, bankID: bankID}
}

func (d *LogDeliverer) Deliver(ctx context.Context, email string, responses domain.ResponseVector) error {
	bank, err := d.banks.GetBank(ctx, d.bankID)
	if err != nil {
		return err
	}
	result, err := app.Score(bank, responses)
	if err != nil {
		return err
	}
	log.Printf("report delivered to %s: type=%s", email, result.Type)
	return nil
}

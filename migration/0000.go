package migration

import (
	"context"

	"github.com/bountyhub-lab/backend/internal/entity"
	"github.com/bountyhub-lab/backend/pkg/xcontext"
)

// migrate0000 will create the database with the latest version.
func migrate0000(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&entity.Bounty{},
		&entity.Applicant{},
		&entity.ClaimSlot{},
		&entity.Event{},
		&entity.EventRegistration{},
		&entity.Account{},
		&entity.Transaction{},
		&entity.PaymentMethod{},
		&entity.IdempotencyKey{},
	)
}

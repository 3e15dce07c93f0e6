package entity

import (
	"context"
	"time"

	"github.com/bountyhub-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type Base struct {
	ID        string `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

type SnowFlakeBase struct {
	ID        int64 `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func MigrateTable(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&Bounty{},
		&Applicant{},
		&ClaimSlot{},
		&Event{},
		&EventRegistration{},
		&Account{},
		&Transaction{},
		&PaymentMethod{},
		&IdempotencyKey{},
		&Migration{},
	)
}

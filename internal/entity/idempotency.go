package entity

import "time"

type IdempotencyScope string

const (
	IdempotencyClaimBounty   IdempotencyScope = "claim_bounty"
	IdempotencyRegisterEvent IdempotencyScope = "register_event"
)

type IdempotencyKey struct {
	Scope      IdempotencyScope `gorm:"primarykey"`
	UserID     string           `gorm:"primarykey"`
	Key        string           `gorm:"column:idempotency_key;primarykey"`
	ResourceID string
	CreatedAt  time.Time
}

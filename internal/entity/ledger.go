package entity

import (
	"database/sql"
	"time"

	"github.com/bountyhub-lab/backend/pkg/enum"
)

type Account struct {
	ID           string `gorm:"primarykey"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	BalanceMoney int64
	BalanceXP    int64
}

type TransactionKind string

var (
	TransactionEarned    = enum.New(TransactionKind("earned"))
	TransactionWithdrawn = enum.New(TransactionKind("withdrawn"))
)

type TransactionStatus string

var (
	TransactionPending   = enum.New(TransactionStatus("pending"))
	TransactionCompleted = enum.New(TransactionStatus("completed"))
	TransactionFailed    = enum.New(TransactionStatus("failed"))
)

// Transaction is an append-only ledger entry. Amount and XP are always non-negative, the Kind
// decides the direction.
type Transaction struct {
	SnowFlakeBase

	AccountID string  `gorm:"index"`
	Account   Account `gorm:"foreignKey:AccountID"`

	Kind        TransactionKind
	Status      TransactionStatus
	Amount      int64
	XP          int64
	Description string

	// A bounty pays out at most once.
	BountyID        sql.NullString `gorm:"uniqueIndex"`
	PaymentMethodID sql.NullString
}

type PaymentMethodKind string

var (
	PaymentMethodBankAccount = enum.New(PaymentMethodKind("bank_account"))
	PaymentMethodPaypal      = enum.New(PaymentMethodKind("paypal"))
	PaymentMethodCrypto      = enum.New(PaymentMethodKind("crypto"))
)

type PaymentMethod struct {
	Base

	AccountID string `gorm:"index"`
	Kind      PaymentMethodKind
	Label     string
	Details   string
}

package entity

import (
	"database/sql"
	"time"

	"github.com/bountyhub-lab/backend/pkg/enum"
)

type BountyStatus string

var (
	BountyOpen      = enum.New(BountyStatus("open"))
	BountyClaimed   = enum.New(BountyStatus("claimed"))
	BountySubmitted = enum.New(BountyStatus("submitted"))
	BountyCompleted = enum.New(BountyStatus("completed"))
	BountyClosed    = enum.New(BountyStatus("closed"))
)

type Bounty struct {
	Base

	CompanyID   string `gorm:"index"`
	Title       string
	Description string

	RewardMoney int64
	RewardXP    int64
	MinLevel    int
	Deadline    sql.NullTime `gorm:"index"`

	Status    BountyStatus `gorm:"index"`
	ClaimedBy sql.NullString
	WinnerID  sql.NullString
}

// Applicant is the record of a talent holding (or having held) the claim of a bounty.
type Applicant struct {
	ID        string `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	BountyID string `gorm:"uniqueIndex:idx_applicant_bounty_user"`
	Bounty   Bounty `gorm:"foreignKey:BountyID"`
	UserID   string `gorm:"uniqueIndex:idx_applicant_bounty_user;index"`

	ClaimedAt       time.Time
	SubmissionURL   string
	SubmissionNotes string
	SubmittedAt     sql.NullTime
	IsWinner        bool
}

// ClaimSlot counts the non-terminal claims a talent currently holds.
type ClaimSlot struct {
	UserID       string `gorm:"primarykey"`
	ActiveClaims int
	UpdatedAt    time.Time
}

package entity

import (
	"time"
)

type Event struct {
	Base

	CompanyID   string `gorm:"index"`
	Title       string
	Description string
	EventDate   time.Time `gorm:"index"`

	RegisteredQuota      int
	CurrentRegistrations int
}

type EventRegistration struct {
	EventID   string `gorm:"primarykey"`
	Event     Event  `gorm:"foreignKey:EventID"`
	UserID    string `gorm:"primarykey;index"`
	CreatedAt time.Time
}

package entity

import "time"

type Migration struct {
	Version   string `gorm:"primarykey"`
	CreatedAt time.Time
}

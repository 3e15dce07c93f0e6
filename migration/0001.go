package migration

import (
	"context"
	"database/sql"
	"time"

	"github.com/bountyhub-lab/backend/pkg/xcontext"
)

type bounty0001 struct {
	Deadline sql.NullTime `gorm:"index"`
}

func (bounty0001) TableName() string { return "bounties" }

type event0001 struct {
	EventDate time.Time `gorm:"index"`
}

func (event0001) TableName() string { return "events" }

// migrate0001 indexes the columns scanned by the expire job and the upcoming event list.
func migrate0001(ctx context.Context) error {
	migrator := xcontext.DB(ctx).Migrator()

	if !migrator.HasIndex(&bounty0001{}, "Deadline") {
		if err := migrator.CreateIndex(&bounty0001{}, "Deadline"); err != nil {
			return err
		}
	}

	if !migrator.HasIndex(&event0001{}, "EventDate") {
		if err := migrator.CreateIndex(&event0001{}, "EventDate"); err != nil {
			return err
		}
	}

	return nil
}

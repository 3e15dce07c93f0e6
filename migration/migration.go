package migration

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/bountyhub-lab/backend/internal/entity"
	"github.com/bountyhub-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type Migrator func(context.Context) error

var Migrators = map[string]Migrator{
	"0000": migrate0000,
	"0001": migrate0001,
}

// Migrate applies the given version once and records it. The version "auto" applies every version
// in order.
func Migrate(ctx context.Context, version string) error {
	if err := xcontext.DB(ctx).AutoMigrate(&entity.Migration{}); err != nil {
		return err
	}

	if version != "auto" {
		return apply(ctx, version)
	}

	versions := make([]string, 0, len(Migrators))
	for v := range Migrators {
		versions = append(versions, v)
	}
	sort.Strings(versions)

	for _, v := range versions {
		if err := apply(ctx, v); err != nil {
			return err
		}
	}

	return nil
}

func apply(ctx context.Context, version string) error {
	migrator, ok := Migrators[version]
	if !ok {
		return fmt.Errorf("not found version %s", version)
	}

	err := xcontext.DB(ctx).Take(&entity.Migration{}, "version=?", version).Error
	if err == nil {
		xcontext.Logger(ctx).Infof("Migration %s was applied before", version)
		return nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := migrator(ctx); err != nil {
		return fmt.Errorf("cannot apply migration %s: %w", version, err)
	}

	if err := xcontext.DB(ctx).Create(&entity.Migration{Version: version}).Error; err != nil {
		return err
	}

	xcontext.Logger(ctx).Infof("Applied migration %s", version)
	return nil
}

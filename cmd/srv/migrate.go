package main

import (
	"github.com/bountyhub-lab/backend/migration"
	"github.com/bountyhub-lab/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startMigrate(cctx *cli.Context) error {
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	return migration.Migrate(s.ctx, cctx.String("version"))
}

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/bountyhub-lab/backend/internal/domain/cron"
	"github.com/bountyhub-lab/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startCron(*cli.Context) error {
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	s.loadLocker()
	s.loadRepos()
	s.loadDomains()

	cfg := xcontext.Configs(s.ctx).Cron
	cronJobManager := cron.NewCronJobManager()
	cronJobManager.Register(cron.NewExpireBountyCronJob(s.bountyDomain, cfg.ExpireBountyInterval.Duration))
	cronJobManager.Register(cron.NewReconcileLedgerCronJob(
		s.accountRepo, s.ledger, cfg.ReconcileInterval.Duration, cfg.ReconcileParallelism))

	go func() {
		termSignal := make(chan os.Signal, 1)
		signal.Notify(termSignal, syscall.SIGINT, syscall.SIGTERM)
		sig := <-termSignal
		xcontext.Logger(s.ctx).Infof("Got a signal of %s, stopping cron jobs", sig.String())
		cronJobManager.Cancel(s.ctx)
	}()

	cronJobManager.Start(s.ctx)
	return nil
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bountyhub-lab/backend/internal/model"
	"github.com/bountyhub-lab/backend/pkg/kafka"
	"github.com/bountyhub-lab/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startLeaderboardConsumer(*cli.Context) error {
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	s.loadRedisClient()
	s.loadLocker()
	s.loadRepos()
	s.loadDomains()

	cfg := xcontext.Configs(s.ctx).Kafka
	subscriber, err := kafka.NewSubscriber(
		"leaderboard",
		[]string{cfg.Addr},
		[]string{model.BountyCompletedTopic},
		s.leaderboardDomain.HandleBountyCompleted,
	)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(s.ctx)
	go func() {
		termSignal := make(chan os.Signal, 1)
		signal.Notify(termSignal, syscall.SIGINT, syscall.SIGTERM)
		sig := <-termSignal
		xcontext.Logger(s.ctx).Infof("Got a signal of %s, stopping consumer", sig.String())
		cancel()
	}()

	xcontext.Logger(s.ctx).Infof("Started leaderboard consumer")
	subscriber.Subscribe(ctx)

	if err := subscriber.Stop(s.ctx); err != nil {
		xcontext.Logger(s.ctx).Errorf("Cannot stop consumer: %v", err)
	}
	xcontext.Logger(s.ctx).Infof("Stopped leaderboard consumer")

	return nil
}

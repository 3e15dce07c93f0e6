package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bountyhub-lab/backend/internal/middleware"
	"github.com/bountyhub-lab/backend/pkg/prometheus"
	"github.com/bountyhub-lab/backend/pkg/router"
	"github.com/bountyhub-lab/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startApi(*cli.Context) error {
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	s.loadRedisClient()
	s.loadPublisher()
	s.loadLocker()
	s.loadTokenEngine()
	s.loadRepos()
	s.loadDomains()
	s.loadRouter()

	cfg := xcontext.Configs(s.ctx).ApiServer
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: middleware.AllowCors(cfg.AllowOrigins, s.router.Handler()),
	}

	go func() {
		termSignal := make(chan os.Signal, 1)
		signal.Notify(termSignal, syscall.SIGINT, syscall.SIGTERM)
		sig := <-termSignal
		xcontext.Logger(s.ctx).Infof("Got a signal of %s, stopping server", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			xcontext.Logger(s.ctx).Errorf("Cannot shutdown server: %v", err)
		}
	}()

	xcontext.Logger(s.ctx).Infof("Starting server on port: %s", cfg.Port)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	xcontext.Logger(s.ctx).Infof("Server stopped")

	return nil
}

func (s *srv) loadRouter() {
	s.router = router.New(s.ctx)
	s.router.Before(middleware.WithStartTime())
	s.router.Before(middleware.Authenticate(s.tokenEngine))
	s.router.AddCloser(middleware.Logger())
	s.router.AddCloser(middleware.Prometheus())

	s.router.Handle(http.MethodGet, "/metrics", prometheus.NewHandler())

	// These APIs can be called without authentication.
	publicRouter := s.router.Branch()
	{
		router.GET(publicRouter, "/getBounty", s.bountyDomain.Get)
		router.GET(publicRouter, "/getListBounty", s.bountyDomain.GetList)
		router.GET(publicRouter, "/getEvent", s.eventDomain.Get)
		router.GET(publicRouter, "/getListEvent", s.eventDomain.GetList)
		router.GET(publicRouter, "/getLeaderboard", s.leaderboardDomain.GetLeaderboard)
	}

	authRouter := s.router.Branch()
	authRouter.Before(middleware.MustAuthenticate())
	{
		// Bounty API
		router.POST(authRouter, "/createBounty", s.bountyDomain.Create)
		router.POST(authRouter, "/updateBountyReward", s.bountyDomain.UpdateReward)
		router.POST(authRouter, "/claimBounty", s.bountyDomain.Claim)
		router.POST(authRouter, "/unclaimBounty", s.bountyDomain.Unclaim)
		router.POST(authRouter, "/submitWork", s.bountyDomain.Submit)
		router.POST(authRouter, "/closeBounty", s.bountyDomain.Close)
		router.GET(authRouter, "/getApplicants", s.bountyDomain.GetApplicants)
		router.GET(authRouter, "/getMyClaims", s.bountyDomain.GetMyClaims)

		// Settlement API
		router.POST(authRouter, "/selectWinner", s.settlementDomain.SelectWinner)
		router.POST(authRouter, "/withdraw", s.settlementDomain.Withdraw)

		// Event API
		router.POST(authRouter, "/createEvent", s.eventDomain.Create)
		router.POST(authRouter, "/registerEvent", s.eventDomain.Register)
		router.POST(authRouter, "/unregisterEvent", s.eventDomain.Unregister)
		router.GET(authRouter, "/getEventRegistrations", s.eventDomain.GetRegistrations)

		// Wallet API
		router.POST(authRouter, "/openAccount", s.walletDomain.OpenAccount)
		router.GET(authRouter, "/getMyAccount", s.walletDomain.GetMyAccount)
		router.GET(authRouter, "/getMyTransactions", s.walletDomain.GetMyTransactions)
		router.POST(authRouter, "/addPaymentMethod", s.walletDomain.AddPaymentMethod)
		router.GET(authRouter, "/getMyPaymentMethods", s.walletDomain.GetMyPaymentMethods)

		// Leaderboard API
		router.GET(authRouter, "/getMyRank", s.leaderboardDomain.GetMyRank)
	}
}

package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bountyhub-lab/backend/config"
	"github.com/bountyhub-lab/backend/internal/domain"
	"github.com/bountyhub-lab/backend/internal/domain/claimtracker"
	"github.com/bountyhub-lab/backend/internal/domain/ledger"
	"github.com/bountyhub-lab/backend/internal/entity"
	"github.com/bountyhub-lab/backend/internal/model"
	"github.com/bountyhub-lab/backend/internal/repository"
	"github.com/bountyhub-lab/backend/pkg/authenticator"
	"github.com/bountyhub-lab/backend/pkg/kafka"
	"github.com/bountyhub-lab/backend/pkg/keylock"
	"github.com/bountyhub-lab/backend/pkg/logger"
	"github.com/bountyhub-lab/backend/pkg/pubsub"
	"github.com/bountyhub-lab/backend/pkg/router"
	"github.com/bountyhub-lab/backend/pkg/xcontext"
	"github.com/bountyhub-lab/backend/pkg/xredis"
	"github.com/bwmarrin/snowflake"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type srv struct {
	ctx context.Context

	accountRepo       repository.AccountRepository
	transactionRepo   repository.TransactionRepository
	paymentMethodRepo repository.PaymentMethodRepository
	bountyRepo        repository.BountyRepository
	applicantRepo     repository.ApplicantRepository
	claimSlotRepo     repository.ClaimSlotRepository
	eventRepo         repository.EventRepository
	idempotencyRepo   repository.IdempotencyRepository

	locker       keylock.Locker
	ledger       ledger.Ledger
	claimTracker claimtracker.Tracker

	bountyDomain      domain.BountyDomain
	eventDomain       domain.EventDomain
	settlementDomain  domain.SettlementDomain
	walletDomain      domain.WalletDomain
	leaderboardDomain domain.LeaderboardDomain

	redisClient xredis.Client
	publisher   pubsub.Publisher
	tokenEngine authenticator.TokenEngine[model.AccessToken]

	router *router.Router
	server *http.Server
}

// before runs ahead of every command and prepares the configs and the logger.
func (s *srv) before(cctx *cli.Context) error {
	cfg, err := config.Load(cctx.String("config"))
	if err != nil {
		return fmt.Errorf("cannot load configs: %w", err)
	}

	s.ctx = xcontext.WithConfigs(s.ctx, cfg)
	s.ctx = xcontext.WithLogger(s.ctx, logger.NewLogger(logger.ParseLevel(cfg.LogLevel)))

	node, err := snowflake.NewNode(cfg.Ledger.SnowflakeNode)
	if err != nil {
		return fmt.Errorf("cannot create snowflake node: %w", err)
	}
	s.ctx = xcontext.WithSnowFlake(s.ctx, node)

	return nil
}

func (s *srv) newDatabase() *gorm.DB {
	cfg := xcontext.Configs(s.ctx).Database

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.File)
	default:
		dialector = mysql.New(mysql.Config{
			DSN:                       cfg.ConnectionString(),
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		})
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		panic(err)
	}

	if cfg.Driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			panic(err)
		}

		// sqlite allows only one writer at a time.
		sqlDB.SetMaxOpenConns(1)
	}

	return db
}

func (s *srv) migrateDB() {
	if err := entity.MigrateTable(s.ctx); err != nil {
		panic(err)
	}
}

func (s *srv) loadRedisClient() {
	var err error
	s.redisClient, err = xredis.NewClient(s.ctx)
	if err != nil {
		panic(err)
	}
}

func (s *srv) loadPublisher() {
	cfg := xcontext.Configs(s.ctx).Kafka

	var err error
	s.publisher, err = kafka.NewPublisher(cfg.ClientID, []string{cfg.Addr})
	if err != nil {
		panic(err)
	}
}

func (s *srv) loadLocker() {
	cfg := xcontext.Configs(s.ctx).Lock

	switch cfg.Backend {
	case "redis":
		if s.redisClient == nil {
			s.loadRedisClient()
		}
		s.locker = keylock.NewRedisLocker(s.redisClient, cfg.Timeout.Duration, cfg.TTL.Duration)
	default:
		s.locker = keylock.NewLocalLocker(cfg.Timeout.Duration)
	}
}

func (s *srv) loadTokenEngine() {
	cfg := xcontext.Configs(s.ctx).Auth
	s.tokenEngine = authenticator.NewTokenEngine[model.AccessToken](
		cfg.TokenSecret, cfg.AccessToken.Expiration.Duration)
}

func (s *srv) loadRepos() {
	s.accountRepo = repository.NewAccountRepository()
	s.transactionRepo = repository.NewTransactionRepository()
	s.paymentMethodRepo = repository.NewPaymentMethodRepository()
	s.bountyRepo = repository.NewBountyRepository()
	s.applicantRepo = repository.NewApplicantRepository()
	s.claimSlotRepo = repository.NewClaimSlotRepository()
	s.eventRepo = repository.NewEventRepository()
	s.idempotencyRepo = repository.NewIdempotencyRepository()
}

func (s *srv) loadDomains() {
	s.ledger = ledger.New(s.accountRepo, s.transactionRepo, s.paymentMethodRepo, s.locker)
	s.claimTracker = claimtracker.New(s.claimSlotRepo, s.locker)

	s.bountyDomain = domain.NewBountyDomain(s.bountyRepo, s.applicantRepo, s.idempotencyRepo,
		s.claimTracker, s.ledger, s.locker)
	s.eventDomain = domain.NewEventDomain(s.eventRepo, s.idempotencyRepo, s.locker)
	s.settlementDomain = domain.NewSettlementDomain(s.bountyRepo, s.applicantRepo,
		s.claimTracker, s.ledger, s.publisher, s.locker)
	s.walletDomain = domain.NewWalletDomain(s.transactionRepo, s.paymentMethodRepo, s.ledger)

	if s.redisClient != nil {
		s.leaderboardDomain = domain.NewLeaderboardDomain(s.transactionRepo, s.redisClient)
	}
}

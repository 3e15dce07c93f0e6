package testutil

import (
	"database/sql"
	"time"

	"github.com/bountyhub-lab/backend/internal/entity"
)

var (
	Company1 = "company1"
	Company2 = "company2"

	Talent1 = "talent1"
	Talent2 = "talent2"
	Talent3 = "talent3"

	// TalentNoAccount has never opened a ledger account.
	TalentNoAccount = "talent_no_account"

	// Account1 has 300 money, Account2 has 2500 xp.
	Account1 = &entity.Account{ID: Talent1, BalanceMoney: 300, BalanceXP: 0}
	Account2 = &entity.Account{ID: Talent2, BalanceMoney: 0, BalanceXP: 2500}
	Account3 = &entity.Account{ID: Talent3, BalanceMoney: 0, BalanceXP: 0}
	Accounts = []*entity.Account{Account1, Account2, Account3}

	Transaction1 = &entity.Transaction{
		SnowFlakeBase: entity.SnowFlakeBase{ID: 1},
		AccountID:     Talent1,
		Kind:          entity.TransactionEarned,
		Status:        entity.TransactionCompleted,
		Amount:        300,
		Description:   "Initial balance",
	}

	Transaction2 = &entity.Transaction{
		SnowFlakeBase: entity.SnowFlakeBase{ID: 2},
		AccountID:     Talent2,
		Kind:          entity.TransactionEarned,
		Status:        entity.TransactionCompleted,
		XP:            2500,
		Description:   "Initial xp",
	}

	Transactions = []*entity.Transaction{Transaction1, Transaction2}

	PaymentMethod1 = &entity.PaymentMethod{
		Base:      entity.Base{ID: "payment_method1"},
		AccountID: Talent1,
		Kind:      entity.PaymentMethodBankAccount,
		Label:     "Main bank account",
	}

	PaymentMethod2 = &entity.PaymentMethod{
		Base:      entity.Base{ID: "payment_method2"},
		AccountID: Talent2,
		Kind:      entity.PaymentMethodPaypal,
		Label:     "Paypal",
	}

	PaymentMethods = []*entity.PaymentMethod{PaymentMethod1, PaymentMethod2}

	Bounty1 = &entity.Bounty{
		Base:        entity.Base{ID: "bounty1"},
		CompanyID:   Company1,
		Title:       "Design a landing page",
		RewardMoney: 100,
		RewardXP:    50,
		MinLevel:    1,
		Deadline:    sql.NullTime{Valid: true, Time: time.Now().Add(24 * time.Hour)},
		Status:      entity.BountyOpen,
	}

	Bounty2 = &entity.Bounty{
		Base:        entity.Base{ID: "bounty2"},
		CompanyID:   Company1,
		Title:       "Write API docs",
		RewardMoney: 200,
		RewardXP:    100,
		MinLevel:    5,
		Status:      entity.BountyOpen,
	}

	Bounty3 = &entity.Bounty{
		Base:        entity.Base{ID: "bounty3"},
		CompanyID:   Company2,
		Title:       "Fix a flaky test",
		RewardMoney: 50,
		RewardXP:    20,
		Status:      entity.BountyOpen,
	}

	Bounty4 = &entity.Bounty{
		Base:        entity.Base{ID: "bounty4"},
		CompanyID:   Company2,
		Title:       "Translate the app",
		RewardMoney: 70,
		RewardXP:    30,
		Status:      entity.BountyOpen,
	}

	BountyClosed = &entity.Bounty{
		Base:      entity.Base{ID: "bounty_closed"},
		CompanyID: Company1,
		Title:     "Old bounty",
		Status:    entity.BountyClosed,
	}

	Bounties = []*entity.Bounty{Bounty1, Bounty2, Bounty3, Bounty4, BountyClosed}

	Event1 = &entity.Event{
		Base:            entity.Base{ID: "event1"},
		CompanyID:       Company1,
		Title:           "Hackathon",
		EventDate:       time.Now().Add(7 * 24 * time.Hour),
		RegisteredQuota: 10,
	}

	// Event2 has only one remaining slot.
	Event2 = &entity.Event{
		Base:                 entity.Base{ID: "event2"},
		CompanyID:            Company2,
		Title:                "Meetup",
		EventDate:            time.Now().Add(7 * 24 * time.Hour),
		RegisteredQuota:      2,
		CurrentRegistrations: 1,
	}

	EventPast = &entity.Event{
		Base:            entity.Base{ID: "event_past"},
		CompanyID:       Company1,
		Title:           "Last year conference",
		EventDate:       time.Now().Add(-24 * time.Hour),
		RegisteredQuota: 10,
	}

	Events = []*entity.Event{Event1, Event2, EventPast}

	EventRegistrations = []*entity.EventRegistration{
		{EventID: Event2.ID, UserID: Talent3},
	}
)

package model

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/bountyhub-lab/backend/internal/entity"
)

const DefaultTimeLayout string = time.RFC3339Nano

func formatNullTime(t sql.NullTime) string {
	if !t.Valid {
		return ""
	}

	return t.Time.Format(DefaultTimeLayout)
}

func ConvertBounty(bounty *entity.Bounty) Bounty {
	if bounty == nil {
		return Bounty{}
	}

	return Bounty{
		ID:          bounty.ID,
		CreatedAt:   bounty.CreatedAt.Format(DefaultTimeLayout),
		UpdatedAt:   bounty.UpdatedAt.Format(DefaultTimeLayout),
		CompanyID:   bounty.CompanyID,
		Title:       bounty.Title,
		Description: bounty.Description,
		RewardMoney: bounty.RewardMoney,
		RewardXP:    bounty.RewardXP,
		MinLevel:    bounty.MinLevel,
		Deadline:    formatNullTime(bounty.Deadline),
		Status:      string(bounty.Status),
		ClaimedBy:   bounty.ClaimedBy.String,
		WinnerID:    bounty.WinnerID.String,
	}
}

func ConvertApplicant(applicant *entity.Applicant) Applicant {
	if applicant == nil {
		return Applicant{}
	}

	return Applicant{
		ID:              applicant.ID,
		BountyID:        applicant.BountyID,
		UserID:          applicant.UserID,
		ClaimedAt:       applicant.ClaimedAt.Format(DefaultTimeLayout),
		SubmissionURL:   applicant.SubmissionURL,
		SubmissionNotes: applicant.SubmissionNotes,
		SubmittedAt:     formatNullTime(applicant.SubmittedAt),
		IsWinner:        applicant.IsWinner,
	}
}

func ConvertEvent(event *entity.Event) Event {
	if event == nil {
		return Event{}
	}

	return Event{
		ID:                   event.ID,
		CreatedAt:            event.CreatedAt.Format(DefaultTimeLayout),
		CompanyID:            event.CompanyID,
		Title:                event.Title,
		Description:          event.Description,
		EventDate:            event.EventDate.Format(DefaultTimeLayout),
		RegisteredQuota:      event.RegisteredQuota,
		CurrentRegistrations: event.CurrentRegistrations,
	}
}

func ConvertEventRegistration(registration *entity.EventRegistration) EventRegistration {
	return EventRegistration{
		EventID:   registration.EventID,
		UserID:    registration.UserID,
		CreatedAt: registration.CreatedAt.Format(DefaultTimeLayout),
	}
}

func ConvertAccount(account *entity.Account, level int) Account {
	if account == nil {
		return Account{}
	}

	return Account{
		ID:           account.ID,
		BalanceMoney: account.BalanceMoney,
		BalanceXP:    account.BalanceXP,
		Level:        level,
	}
}

func ConvertTransaction(tx *entity.Transaction) Transaction {
	if tx == nil {
		return Transaction{}
	}

	return Transaction{
		ID:              strconv.FormatInt(tx.ID, 10),
		CreatedAt:       tx.CreatedAt.Format(DefaultTimeLayout),
		AccountID:       tx.AccountID,
		Kind:            string(tx.Kind),
		Status:          string(tx.Status),
		Amount:          tx.Amount,
		XP:              tx.XP,
		Description:     tx.Description,
		BountyID:        tx.BountyID.String,
		PaymentMethodID: tx.PaymentMethodID.String,
	}
}

func ConvertPaymentMethod(method *entity.PaymentMethod) PaymentMethod {
	if method == nil {
		return PaymentMethod{}
	}

	return PaymentMethod{
		ID:        method.ID,
		AccountID: method.AccountID,
		Kind:      string(method.Kind),
		Label:     method.Label,
	}
}

package model

import "time"

type CreateBountyRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	RewardMoney int64     `json:"reward_money"`
	RewardXP    int64     `json:"reward_xp"`
	MinLevel    int       `json:"min_level"`
	Deadline    time.Time `json:"deadline"`
}

type CreateBountyResponse struct {
	Bounty Bounty `json:"bounty"`
}

type UpdateBountyRewardRequest struct {
	BountyID    string `json:"bounty_id"`
	RewardMoney int64  `json:"reward_money"`
	RewardXP    int64  `json:"reward_xp"`
}

type UpdateBountyRewardResponse struct {
	Bounty Bounty `json:"bounty"`
}

type ClaimBountyRequest struct {
	BountyID       string `json:"bounty_id"`
	IdempotencyKey string `json:"idempotency_key"`
}

type ClaimBountyResponse struct {
	Bounty Bounty `json:"bounty"`

	// Set when the talent's level is lower than the bounty's min level.
	Warning string `json:"warning,omitempty"`
}

type UnclaimBountyRequest struct {
	BountyID string `json:"bounty_id"`
}

type UnclaimBountyResponse struct {
	Bounty Bounty `json:"bounty"`
}

type SubmitWorkRequest struct {
	BountyID string `json:"bounty_id"`
	URL      string `json:"url"`
	Notes    string `json:"notes"`
}

type SubmitWorkResponse struct {
	Bounty Bounty `json:"bounty"`
}

type SelectWinnerRequest struct {
	BountyID string `json:"bounty_id"`
	TalentID string `json:"talent_id"`
}

type SelectWinnerResponse struct {
	Bounty Bounty `json:"bounty"`
}

type CloseBountyRequest struct {
	BountyID string `json:"bounty_id"`
}

type CloseBountyResponse struct {
	Bounty Bounty `json:"bounty"`
}

type GetBountyRequest struct {
	BountyID string `form:"bounty_id"`
}

type GetBountyResponse struct {
	Bounty Bounty `json:"bounty"`
}

type GetListBountyRequest struct {
	CompanyID string `form:"company_id"`
	Status    string `form:"status"`
	Offset    int    `form:"offset"`
	Limit     int    `form:"limit"`
}

type GetListBountyResponse struct {
	Bounties []Bounty `json:"bounties"`
}

type GetApplicantsRequest struct {
	BountyID string `form:"bounty_id"`
}

type GetApplicantsResponse struct {
	Applicants []Applicant `json:"applicants"`
}

type GetMyClaimsRequest struct {
	Status string `form:"status"`
	Offset int    `form:"offset"`
	Limit  int    `form:"limit"`
}

type GetMyClaimsResponse struct {
	Bounties    []Bounty `json:"bounties"`
	ActiveCount int      `json:"active_count"`
}

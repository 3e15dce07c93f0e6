package model

var (
	BountyCompletedTopic = "BOUNTY_COMPLETED"
)

type BountyCompletedEvent struct {
	BountyID    string `json:"bounty_id"`
	CompanyID   string `json:"company_id"`
	WinnerID    string `json:"winner_id"`
	RewardMoney int64  `json:"reward_money"`
	RewardXP    int64  `json:"reward_xp"`
	CompletedAt string `json:"completed_at"`
}

package model

type Bounty struct {
	ID          string `json:"id"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
	CompanyID   string `json:"company_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	RewardMoney int64  `json:"reward_money"`
	RewardXP    int64  `json:"reward_xp"`
	MinLevel    int    `json:"min_level"`
	Deadline    string `json:"deadline,omitempty"`
	Status      string `json:"status"`
	ClaimedBy   string `json:"claimed_by,omitempty"`
	WinnerID    string `json:"winner_id,omitempty"`
}

type Applicant struct {
	ID              string `json:"id"`
	BountyID        string `json:"bounty_id"`
	UserID          string `json:"user_id"`
	ClaimedAt       string `json:"claimed_at"`
	SubmissionURL   string `json:"submission_url,omitempty"`
	SubmissionNotes string `json:"submission_notes,omitempty"`
	SubmittedAt     string `json:"submitted_at,omitempty"`
	IsWinner        bool   `json:"is_winner"`
}

type Event struct {
	ID                   string `json:"id"`
	CreatedAt            string `json:"created_at"`
	CompanyID            string `json:"company_id"`
	Title                string `json:"title"`
	Description          string `json:"description"`
	EventDate            string `json:"event_date"`
	RegisteredQuota      int    `json:"registered_quota"`
	CurrentRegistrations int    `json:"current_registrations"`
}

type EventRegistration struct {
	EventID   string `json:"event_id"`
	UserID    string `json:"user_id"`
	CreatedAt string `json:"created_at"`
}

type Account struct {
	ID           string `json:"id"`
	BalanceMoney int64  `json:"balance_money"`
	BalanceXP    int64  `json:"balance_xp"`
	Level        int    `json:"level"`
}

type Transaction struct {
	ID              string `json:"id"`
	CreatedAt       string `json:"created_at"`
	AccountID       string `json:"account_id"`
	Kind            string `json:"kind"`
	Status          string `json:"status"`
	Amount          int64  `json:"amount"`
	XP              int64  `json:"xp"`
	Description     string `json:"description"`
	BountyID        string `json:"bounty_id,omitempty"`
	PaymentMethodID string `json:"payment_method_id,omitempty"`
}

type PaymentMethod struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	Kind      string `json:"kind"`
	Label     string `json:"label"`
}

type LeaderboardEntry struct {
	UserID string `json:"user_id"`
	XP     int64  `json:"xp"`
	Rank   int    `json:"rank"`
}

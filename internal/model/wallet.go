package model

type OpenAccountRequest struct{}

type OpenAccountResponse struct {
	Account Account `json:"account"`
}

type GetMyAccountRequest struct{}

type GetMyAccountResponse struct {
	Account Account `json:"account"`
}

type GetMyTransactionsRequest struct {
	Offset int `form:"offset"`
	Limit  int `form:"limit"`
}

type GetMyTransactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
}

type AddPaymentMethodRequest struct {
	Kind    string `json:"kind"`
	Label   string `json:"label"`
	Details string `json:"details"`
}

type AddPaymentMethodResponse struct {
	PaymentMethod PaymentMethod `json:"payment_method"`
}

type GetMyPaymentMethodsRequest struct{}

type GetMyPaymentMethodsResponse struct {
	PaymentMethods []PaymentMethod `json:"payment_methods"`
}

type WithdrawRequest struct {
	Amount          int64  `json:"amount"`
	PaymentMethodID string `json:"payment_method_id"`
}

type WithdrawResponse struct {
	Transaction Transaction `json:"transaction"`
}

type GetLeaderboardRequest struct {
	Offset int `form:"offset"`
	Limit  int `form:"limit"`
}

type GetLeaderboardResponse struct {
	Entries []LeaderboardEntry `json:"entries"`
}

type GetMyRankRequest struct{}

type GetMyRankResponse struct {
	Entry LeaderboardEntry `json:"entry"`
}

package domain

import (
	"context"

	"github.com/bountyhub-lab/backend/internal/common"
	"github.com/bountyhub-lab/backend/internal/domain/ledger"
	"github.com/bountyhub-lab/backend/internal/entity"
	"github.com/bountyhub-lab/backend/internal/model"
	"github.com/bountyhub-lab/backend/internal/repository"
	"github.com/bountyhub-lab/backend/pkg/enum"
	"github.com/bountyhub-lab/backend/pkg/errorx"
	"github.com/bountyhub-lab/backend/pkg/xcontext"
	"github.com/google/uuid"
)

type WalletDomain interface {
	OpenAccount(context.Context, *model.OpenAccountRequest) (*model.OpenAccountResponse, error)
	GetMyAccount(context.Context, *model.GetMyAccountRequest) (*model.GetMyAccountResponse, error)
	GetMyTransactions(context.Context, *model.GetMyTransactionsRequest) (*model.GetMyTransactionsResponse, error)
	AddPaymentMethod(context.Context, *model.AddPaymentMethodRequest) (*model.AddPaymentMethodResponse, error)
	GetMyPaymentMethods(context.Context, *model.GetMyPaymentMethodsRequest) (*model.GetMyPaymentMethodsResponse, error)
}

type walletDomain struct {
	transactionRepo   repository.TransactionRepository
	paymentMethodRepo repository.PaymentMethodRepository
	ledger            ledger.Ledger
}

func NewWalletDomain(
	transactionRepo repository.TransactionRepository,
	paymentMethodRepo repository.PaymentMethodRepository,
	ledger ledger.Ledger,
) *walletDomain {
	return &walletDomain{
		transactionRepo:   transactionRepo,
		paymentMethodRepo: paymentMethodRepo,
		ledger:            ledger,
	}
}

func (d *walletDomain) convertAccount(ctx context.Context, account *entity.Account) model.Account {
	return model.ConvertAccount(account, common.Level(account.BalanceXP, xcontext.Configs(ctx).Bounty.XPPerLevel))
}

func (d *walletDomain) OpenAccount(
	ctx context.Context, req *model.OpenAccountRequest,
) (*model.OpenAccountResponse, error) {
	account, err := d.ledger.Open(ctx, xcontext.RequestUserID(ctx))
	if err != nil {
		return nil, err
	}

	return &model.OpenAccountResponse{Account: d.convertAccount(ctx, account)}, nil
}

func (d *walletDomain) GetMyAccount(
	ctx context.Context, req *model.GetMyAccountRequest,
) (*model.GetMyAccountResponse, error) {
	account, err := d.ledger.Get(ctx, xcontext.RequestUserID(ctx))
	if err != nil {
		return nil, err
	}

	return &model.GetMyAccountResponse{Account: d.convertAccount(ctx, account)}, nil
}

func (d *walletDomain) GetMyTransactions(
	ctx context.Context, req *model.GetMyTransactionsRequest,
) (*model.GetMyTransactionsResponse, error) {
	offset, limit, err := common.Paginate(ctx, req.Offset, req.Limit)
	if err != nil {
		return nil, err
	}

	txs, err := d.transactionRepo.GetListByAccountID(ctx, xcontext.RequestUserID(ctx), offset, limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get transactions: %v", err)
		return nil, errorx.Unknown
	}

	result := []model.Transaction{}
	for i := range txs {
		result = append(result, model.ConvertTransaction(&txs[i]))
	}

	return &model.GetMyTransactionsResponse{Transactions: result}, nil
}

func (d *walletDomain) AddPaymentMethod(
	ctx context.Context, req *model.AddPaymentMethodRequest,
) (*model.AddPaymentMethodResponse, error) {
	kind, err := enum.ToEnum[entity.PaymentMethodKind](req.Kind)
	if err != nil {
		xcontext.Logger(ctx).Debugf("Invalid payment method kind: %v", err)
		return nil, errorx.New(errorx.BadRequest, "Invalid payment method kind")
	}

	if req.Label == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty label")
	}

	userID := xcontext.RequestUserID(ctx)
	if _, err := d.ledger.Get(ctx, userID); err != nil {
		return nil, err
	}

	method := &entity.PaymentMethod{
		Base:      entity.Base{ID: uuid.NewString()},
		AccountID: userID,
		Kind:      kind,
		Label:     req.Label,
		Details:   req.Details,
	}

	if err := d.paymentMethodRepo.Create(ctx, method); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create payment method: %v", err)
		return nil, errorx.Unknown
	}

	return &model.AddPaymentMethodResponse{PaymentMethod: model.ConvertPaymentMethod(method)}, nil
}

func (d *walletDomain) GetMyPaymentMethods(
	ctx context.Context, req *model.GetMyPaymentMethodsRequest,
) (*model.GetMyPaymentMethodsResponse, error) {
	methods, err := d.paymentMethodRepo.GetListByAccountID(ctx, xcontext.RequestUserID(ctx))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get payment methods: %v", err)
		return nil, errorx.Unknown
	}

	result := []model.PaymentMethod{}
	for i := range methods {
		result = append(result, model.ConvertPaymentMethod(&methods[i]))
	}

	return &model.GetMyPaymentMethodsResponse{PaymentMethods: result}, nil
}

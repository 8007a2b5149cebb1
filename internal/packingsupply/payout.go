package packingsupply

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/transfer"

	"github.com/harborbox/dispatch-backend/pkg/db/models"
	"github.com/harborbox/dispatch-backend/pkg/enums"
	pkgerrors "github.com/harborbox/dispatch-backend/pkg/errors"
	pkgstripe "github.com/harborbox/dispatch-backend/pkg/stripe"
)

var centsPerDollar = decimal.NewFromInt(100)

// TransferClient is the slice of Stripe used for driver payouts.
type TransferClient interface {
	Create(ctx context.Context, params *stripe.TransferParams) (*stripe.Transfer, error)
}

type transferClientWrapper struct{}

// NewTransferClient wraps the initialized Stripe client so payouts can be
// faked in tests.
func NewTransferClient(api *pkgstripe.Client) TransferClient {
	if api == nil {
		return nil
	}
	return &transferClientWrapper{}
}

func (w *transferClientWrapper) Create(ctx context.Context, params *stripe.TransferParams) (*stripe.Transfer, error) {
	if params != nil {
		params.Context = ctx
	}
	return transfer.New(params)
}

// processPayout transfers the order's payout amount to the delivering
// driver's connected account and marks the order paid. The caller decides
// what a failure means; this function only reports it.
func (s *Service) processPayout(ctx context.Context, order *models.PackingSupplyOrder) error {
	if order.DriverID == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no delivering driver")
	}
	driver, err := s.repo.FindDriver(ctx, *order.DriverID)
	if err != nil {
		return err
	}
	if driver.StripeAccountID == nil || *driver.StripeAccountID == "" {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("driver %d has no payout account", driver.ID))
	}

	// Stripe transfers take integer cents.
	cents := order.PayoutAmount.Mul(centsPerDollar).IntPart()
	if cents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "payout amount must be positive")
	}

	result, err := s.transfers.Create(ctx, &stripe.TransferParams{
		Amount:      stripe.Int64(cents),
		Currency:    stripe.String(string(stripe.CurrencyUSD)),
		Destination: stripe.String(*driver.StripeAccountID),
		Description: stripe.String(fmt.Sprintf("Packing supply delivery %s", order.ID)),
	})
	if err != nil {
		order.PayoutStatus = enums.PayoutStatusFailed
		if saveErr := s.repo.SaveOrder(ctx, order); saveErr != nil {
			s.log.Error(ctx, "failed to record payout failure", saveErr)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stripe transfer")
	}

	order.PayoutStatus = enums.PayoutStatusPaid
	order.PayoutRef = &result.ID
	return s.repo.SaveOrder(ctx, order)
}

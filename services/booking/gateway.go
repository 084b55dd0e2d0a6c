package booking

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"
	"go.uber.org/zap"

	"github.com/fannu/booking-server/config"
)

// PaymentOutcome is the provider's verdict on a charge.
type PaymentOutcome string

const (
	OutcomeSucceeded PaymentOutcome = "succeeded"
	OutcomeFailed    PaymentOutcome = "failed"
)

// ChargeRequest is what the gateway needs to attempt a charge. PSPRef doubles
// as the idempotency key so a retried charge cannot bill twice.
type ChargeRequest struct {
	PSPRef      string
	Amount      int64
	Currency    string
	Description string
}

// RefundRequest reverses a settled charge, keyed by the same PSPRef that
// created it.
type RefundRequest struct {
	PSPRef   string
	Amount   int64
	Currency string
	Reason   string
}

// PaymentGateway is the boundary to the payment provider. The webhook
// contract (idempotent by psp_ref, amount/currency bound to the payment
// record) stays the same whichever implementation is wired in.
type PaymentGateway interface {
	Charge(ctx context.Context, req ChargeRequest) (PaymentOutcome, error)
	Refund(ctx context.Context, req RefundRequest) error
}

// SimulatedGateway resolves every charge instantly as a success. It is the
// default gateway until a real provider account is connected.
type SimulatedGateway struct {
	Logger *zap.Logger
}

// Charge reports instant success.
func (g *SimulatedGateway) Charge(ctx context.Context, req ChargeRequest) (PaymentOutcome, error) {
	g.Logger.Info("simulated charge",
		zap.String("psp_ref", req.PSPRef),
		zap.Int64("amount", req.Amount),
		zap.String("currency", req.Currency),
	)
	return OutcomeSucceeded, nil
}

// Refund reports instant success.
func (g *SimulatedGateway) Refund(ctx context.Context, req RefundRequest) error {
	g.Logger.Info("simulated refund",
		zap.String("psp_ref", req.PSPRef),
		zap.Int64("amount", req.Amount),
		zap.String("reason", req.Reason),
	)
	return nil
}

// StripeGateway charges through Stripe PaymentIntents.
type StripeGateway struct {
	Logger *zap.Logger
}

// Charge creates and confirms a PaymentIntent, keyed by PSPRef for idempotency.
func (g *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (PaymentOutcome, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(req.Amount),
		Currency:    stripe.String(req.Currency),
		Description: stripe.String(req.Description),
		Confirm:     stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.PSPRef)
	params.AddMetadata("psp_ref", req.PSPRef)

	pi, err := paymentintent.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe charge failed: %w", err)
	}

	g.Logger.Info("stripe payment intent created",
		zap.String("psp_ref", req.PSPRef),
		zap.String("intent_id", pi.ID),
		zap.String("intent_status", string(pi.Status)),
	)

	if pi.Status == stripe.PaymentIntentStatusSucceeded {
		return OutcomeSucceeded, nil
	}
	return OutcomeFailed, nil
}

// Refund reverses the PaymentIntent created for req.PSPRef. The intent is
// looked up through its psp_ref metadata; the refund itself is keyed by
// PSPRef too so a retried reversal cannot refund twice.
func (g *StripeGateway) Refund(ctx context.Context, req RefundRequest) error {
	searchParams := &stripe.PaymentIntentSearchParams{
		SearchParams: stripe.SearchParams{
			Query:   fmt.Sprintf("metadata['psp_ref']:'%s'", req.PSPRef),
			Context: ctx,
		},
	}
	iter := paymentintent.Search(searchParams)
	if !iter.Next() {
		if err := iter.Err(); err != nil {
			return fmt.Errorf("stripe refund lookup failed: %w", err)
		}
		return fmt.Errorf("stripe refund: no payment intent for psp_ref %s", req.PSPRef)
	}
	pi := iter.PaymentIntent()

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(pi.ID),
		Amount:        stripe.Int64(req.Amount),
	}
	params.Context = ctx
	params.SetIdempotencyKey("rf_" + req.PSPRef)

	rf, err := refund.New(params)
	if err != nil {
		return fmt.Errorf("stripe refund failed: %w", err)
	}

	g.Logger.Info("stripe refund created",
		zap.String("psp_ref", req.PSPRef),
		zap.String("refund_id", rf.ID),
		zap.Int64("amount", req.Amount),
	)
	return nil
}

// NewGatewayFromConfig selects the gateway by PAYMENT_MODE.
func NewGatewayFromConfig(logger *zap.Logger) PaymentGateway {
	if config.AppConfig.PaymentMode == "stripe" {
		return &StripeGateway{Logger: logger}
	}
	return &SimulatedGateway{Logger: logger}
}

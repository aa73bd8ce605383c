// Package gateway wraps the payment gateway (Razorpay). The storefront only
// needs two things from it: creating a remote order for an amount, and
// verifying the checkout callback signature.
package gateway

import (
	"context"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"

	"github.com/cremaze/cremaze/config"
)

// Order is the remote payment-gateway order (amount in minor units).
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Client creates gateway orders. The payment service depends on this
// interface so tests can stub the gateway.
type Client interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (Order, error)
}

type razorpayClient struct {
	c *razorpay.Client
}

// New builds a Client from the configured key pair.
func New() Client {
	return &razorpayClient{
		c: razorpay.NewClient(config.PaymentKeyID(), config.PaymentKeySecret()),
	}
}

func (g *razorpayClient) CreateOrder(_ context.Context, amount int64, currency, receipt string) (Order, error) {
	body, err := g.c.Order.Create(map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}, nil)
	if err != nil {
		return Order{}, fmt.Errorf("gateway: create order: %w", err)
	}

	id, _ := body["id"].(string)
	if id == "" {
		return Order{}, fmt.Errorf("gateway: create order: response missing id")
	}

	return Order{ID: id, Amount: amount, Currency: currency}, nil
}

package gateway_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cremaze/cremaze/pkg/gateway"
)

func TestVerifySignatureAccepts(t *testing.T) {
	sig := gateway.Sign("order_abc", "pay_xyz", "topsecret")
	assert.True(t, gateway.VerifySignature("order_abc", "pay_xyz", sig, "topsecret"))
}

func TestVerifySignatureRejectsWrongSecret(t *testing.T) {
	sig := gateway.Sign("order_abc", "pay_xyz", "wrongsecret")
	assert.False(t, gateway.VerifySignature("order_abc", "pay_xyz", sig, "topsecret"))
}

func TestVerifySignatureRejectsSwappedIDs(t *testing.T) {
	sig := gateway.Sign("order_abc", "pay_xyz", "topsecret")
	assert.False(t, gateway.VerifySignature("pay_xyz", "order_abc", sig, "topsecret"))
}

func TestVerifySignatureRejectsGarbage(t *testing.T) {
	assert.False(t, gateway.VerifySignature("order_abc", "pay_xyz", "deadbeef", "topsecret"))
	assert.False(t, gateway.VerifySignature("order_abc", "pay_xyz", "", "topsecret"))
}

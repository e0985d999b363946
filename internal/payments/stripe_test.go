package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"

	"github.com/jonathan/lmn-fulfillment/internal/types"
)

func TestContactFromIntent_PrefersStoredContact(t *testing.T) {
	pi := &stripe.PaymentIntent{
		Metadata: map[string]string{
			metadataEmailKey: "stored@example.com",
			metadataNameKey:  "Stored Purchaser",
		},
		LatestCharge: &stripe.Charge{
			BillingDetails: &stripe.ChargeBillingDetails{Email: "billing@example.com", Name: "Billing Name"},
			ReceiptEmail:   "receipt@example.com",
		},
	}

	contact := contactFromIntent(pi)
	require.NotNil(t, contact)
	assert.Equal(t, "stored@example.com", contact.Email)
	assert.Equal(t, "Stored Purchaser", contact.Name)
	assert.Equal(t, types.ContactSourceStored, contact.Source)
}

func TestContactFromIntent_FallsBackToBillingDetails(t *testing.T) {
	pi := &stripe.PaymentIntent{
		Metadata: map[string]string{},
		LatestCharge: &stripe.Charge{
			BillingDetails: &stripe.ChargeBillingDetails{Email: "billing@example.com", Name: "Billing Name"},
			ReceiptEmail:   "receipt@example.com",
		},
	}

	contact := contactFromIntent(pi)
	require.NotNil(t, contact)
	assert.Equal(t, "billing@example.com", contact.Email)
	assert.Equal(t, types.ContactSourceBilling, contact.Source)
}

func TestContactFromIntent_FallsBackToReceiptEmail(t *testing.T) {
	pi := &stripe.PaymentIntent{
		LatestCharge: &stripe.Charge{ReceiptEmail: "receipt@example.com"},
	}

	contact := contactFromIntent(pi)
	require.NotNil(t, contact)
	assert.Equal(t, "receipt@example.com", contact.Email)
	assert.Empty(t, contact.Name)
	assert.Equal(t, types.ContactSourceReceipt, contact.Source)
}

func TestContactFromIntent_NoUsableAddress(t *testing.T) {
	assert.Nil(t, contactFromIntent(nil))
	assert.Nil(t, contactFromIntent(&stripe.PaymentIntent{}))
	assert.Nil(t, contactFromIntent(&stripe.PaymentIntent{
		LatestCharge: &stripe.Charge{BillingDetails: &stripe.ChargeBillingDetails{}},
	}))
}

func TestCorrelationMissError(t *testing.T) {
	err := &CorrelationMiss{DocumentID: "4711"}
	assert.Contains(t, err.Error(), "4711")
}

package payments

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"

	"github.com/jonathan/lmn-fulfillment/internal/types"
)

// Metadata keys written by the checkout collaborator.
const (
	metadataDocumentIDKey = "signature_document_id"
	metadataEmailKey      = "purchaser_email"
	metadataNameKey       = "purchaser_name"
)

// StripeRepository finds purchaser contacts by searching payment-intent
// metadata for the signing service's document id.
type StripeRepository struct{}

// NewStripeRepository configures the global Stripe client with the given
// secret key and returns the repository.
func NewStripeRepository(secretKey string) *StripeRepository {
	stripe.Key = secretKey
	return &StripeRepository{}
}

// FindByDocumentID searches payment intents whose metadata carries the
// document id and derives the purchaser contact from the best match.
func (r *StripeRepository) FindByDocumentID(ctx context.Context, documentID string) (*types.PurchaserContact, error) {
	params := &stripe.PaymentIntentSearchParams{
		SearchParams: stripe.SearchParams{
			Context: ctx,
			Query:   fmt.Sprintf("metadata['%s']:'%s'", metadataDocumentIDKey, documentID),
			Limit:   stripe.Int64(1),
		},
	}
	params.AddExpand("data.latest_charge")

	iter := paymentintent.Search(params)
	for iter.Next() {
		if contact := contactFromIntent(iter.PaymentIntent()); contact != nil {
			return contact, nil
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("payment search failed for document %s: %w", documentID, err)
	}
	return nil, &CorrelationMiss{DocumentID: documentID}
}

// contactFromIntent derives the purchaser contact from one payment intent.
// Preference order: contact stored in metadata at checkout, then the billing
// details of the settled charge, then the charge's receipt address. An intent
// with no usable address yields nil.
func contactFromIntent(pi *stripe.PaymentIntent) *types.PurchaserContact {
	if pi == nil {
		return nil
	}

	if email := pi.Metadata[metadataEmailKey]; email != "" {
		return &types.PurchaserContact{
			Email:  email,
			Name:   pi.Metadata[metadataNameKey],
			Source: types.ContactSourceStored,
		}
	}

	charge := pi.LatestCharge
	if charge == nil {
		return nil
	}

	if bd := charge.BillingDetails; bd != nil && bd.Email != "" {
		return &types.PurchaserContact{
			Email:  bd.Email,
			Name:   bd.Name,
			Source: types.ContactSourceBilling,
		}
	}

	if charge.ReceiptEmail != "" {
		return &types.PurchaserContact{
			Email:  charge.ReceiptEmail,
			Source: types.ContactSourceReceipt,
		}
	}
	return nil
}

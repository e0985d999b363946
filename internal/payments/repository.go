package payments

import (
	"context"
	"fmt"

	"github.com/jonathan/lmn-fulfillment/internal/types"
)

// ContactRepository resolves a signed document back to the purchaser who paid
// for it. It is read-only: the correlation key is written into payment
// metadata at checkout time by a separate collaborator.
type ContactRepository interface {
	FindByDocumentID(ctx context.Context, documentID string) (*types.PurchaserContact, error)
}

// CorrelationMiss means no payment record carries the document id. The caller
// logs it and stops; there is never a fallback recipient.
type CorrelationMiss struct {
	DocumentID string
}

func (e *CorrelationMiss) Error() string {
	return fmt.Sprintf("no payment record found for document %s", e.DocumentID)
}

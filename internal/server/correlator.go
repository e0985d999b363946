package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/jonathan/lmn-fulfillment/internal/mailer"
	"github.com/jonathan/lmn-fulfillment/internal/payments"
)

// eventDocumentCompleted is the only webhook event that triggers delivery.
const eventDocumentCompleted = "document.completed"

const deliveryBody = `Hello,

Your signed letter of medical necessity is attached. Keep it with your
records and submit it to your plan administrator with your reimbursement
claim.

This mailbox is not monitored.`

// webhookEvent is the signing service's notification payload. The document id
// arrives as a number from some service versions and a string from others, so
// it is decoded as json.Number.
type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		DocumentID json.Number `json:"document_id"`
	} `json:"data"`
}

// correlator resolves completed signature documents back to their purchasers
// and delivers the signed copy by email. Every inbound event is acknowledged
// with 200 regardless of outcome; the event source only needs to know the
// notification arrived.
type correlator struct {
	contacts payments.ContactRepository
	fetcher  signedDocumentFetcher
	mail     mailer.Sender

	mu        sync.Mutex
	delivered map[string]bool
	inflight  map[string]bool
}

func newCorrelator(contacts payments.ContactRepository, fetcher signedDocumentFetcher, mail mailer.Sender) *correlator {
	return &correlator{
		contacts:  contacts,
		fetcher:   fetcher,
		mail:      mail,
		delivered: make(map[string]bool),
		inflight:  make(map[string]bool),
	}
}

// handle processes one webhook notification. The transport-level answer is
// always 200; failures are logged and left for the event source to retry.
func (c *correlator) handle(w http.ResponseWriter, r *http.Request) {
	defer w.WriteHeader(http.StatusOK)

	var event webhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		log.Printf("[correlator] ignoring malformed webhook payload: %v", err)
		return
	}

	if event.Event != eventDocumentCompleted {
		log.Printf("[correlator] ignoring event %q", event.Event)
		return
	}

	documentID := event.Data.DocumentID.String()
	if documentID == "" {
		log.Printf("[correlator] completion event carried no document id")
		return
	}

	c.process(r.Context(), documentID)
}

// process runs the delivery flow for one completed document. The in-flight
// marker taken by begin spans the whole flow so two concurrent retries of the
// same document cannot both reach the send.
func (c *correlator) process(ctx context.Context, documentID string) {
	if !c.begin(documentID) {
		log.Printf("[correlator] document %s already delivered or in flight, skipping", documentID)
		return
	}
	delivered := false
	defer func() { c.finish(documentID, delivered) }()

	contact, err := c.contacts.FindByDocumentID(ctx, documentID)
	if err != nil {
		var miss *payments.CorrelationMiss
		if errors.As(err, &miss) {
			// Never substitute a fallback recipient.
			log.Printf("[correlator] %v, delivery skipped", miss)
			return
		}
		log.Printf("[correlator] contact lookup failed for document %s: %v", documentID, err)
		return
	}
	log.Printf("[correlator] resolved document %s to %s (via %s)", documentID, contact.Email, contact.Source)

	msg := mailer.OutboundMessage{
		To:      contact.Email,
		ToName:  contact.Name,
		Subject: "Your signed letter of medical necessity",
		Body:    deliveryBody,
	}

	signed, err := c.fetcher.FetchCompletedDocument(ctx, documentID)
	if err != nil {
		// The purchaser still learns their document is ready.
		log.Printf("[correlator] failed to fetch signed document %s, sending without attachment: %v", documentID, err)
	} else {
		msg.Attachments = []mailer.Attachment{{
			Name:    fmt.Sprintf("signed-letter-%s.pdf", documentID),
			Content: signed,
		}}
	}

	if err := c.mail.Send(ctx, msg); err != nil {
		log.Printf("[correlator] mail delivery to %s failed for document %s: %v", contact.Email, documentID, err)
		return
	}

	delivered = true
	log.Printf("[correlator] delivered document %s to %s", documentID, contact.Email)
}

// begin claims a document for delivery. It refuses documents already delivered
// and documents another goroutine is currently working on.
func (c *correlator) begin(documentID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.delivered[documentID] || c.inflight[documentID] {
		return false
	}
	c.inflight[documentID] = true
	return true
}

// finish releases the in-flight claim, recording the delivery when it
// succeeded. A failed attempt leaves the document eligible for retry.
func (c *correlator) finish(documentID string, delivered bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, documentID)
	if delivered {
		c.delivered[documentID] = true
	}
}

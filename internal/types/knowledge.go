package types

// KnowledgeSearchResult is one coded reference entry returned by the semantic
// knowledge index. Score is the cross-encoder rerank score in [0, 1]; results
// arrive ordered by it, highest first.
type KnowledgeSearchResult struct {
	Code        string  `json:"code"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// PurchaserContact is the contact resolved from payment metadata for a
// completed signature document. Source records which fallback produced the
// address: "stored", "billing", or "receipt".
type PurchaserContact struct {
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Source string `json:"source"`
}

// Contact sources, in preference order.
const (
	ContactSourceStored  = "stored"
	ContactSourceBilling = "billing"
	ContactSourceReceipt = "receipt"
)

package signature

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Recipient identifies the human counter-signer for one document.
type Recipient struct {
	Name  string
	Email string
}

// Client talks to the counter-signing REST service. The flow is three calls:
// create the document shell, upload the PDF bytes to the returned URL, then
// trigger sending so the signer is notified.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds a signing client for the given service endpoint.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

type createDocumentRequest struct {
	Title      string                    `json:"title"`
	Recipients []createDocumentSigner    `json:"recipients"`
	Meta       createDocumentMetaPayload `json:"meta"`
}

type createDocumentSigner struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type createDocumentMetaPayload struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type createDocumentResponse struct {
	DocumentID int64  `json:"documentId"`
	UploadURL  string `json:"uploadUrl"`
}

type downloadResponse struct {
	DownloadURL string `json:"downloadUrl"`
}

// CreateDocument uploads the assembled PDF to the signing service and sends
// it to the recipient for counter-signature. It returns the service's
// document id, which later reappears in the completion webhook and in the
// payment metadata used for correlation.
func (c *Client) CreateDocument(ctx context.Context, file []byte, fileName string, recipient Recipient, subject, message string) (string, error) {
	created, err := c.createShell(ctx, fileName, recipient, subject, message)
	if err != nil {
		return "", err
	}

	if err := c.uploadFile(ctx, created.UploadURL, file); err != nil {
		return "", err
	}

	documentID := fmt.Sprintf("%d", created.DocumentID)
	if err := c.send(ctx, documentID); err != nil {
		return "", err
	}
	return documentID, nil
}

// FetchCompletedDocument retrieves the signed PDF bytes for a completed
// document. The service answers with a short-lived download URL which is
// then fetched directly.
func (c *Client) FetchCompletedDocument(ctx context.Context, documentID string) ([]byte, error) {
	var dl downloadResponse
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("%s/api/v1/documents/%s/download", c.baseURL, documentID), nil, &dl); err != nil {
		return nil, err
	}
	if dl.DownloadURL == "" {
		return nil, &DispatchError{Message: fmt.Sprintf("no download URL for document %s", documentID)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dl.DownloadURL, nil)
	if err != nil {
		return nil, &DispatchError{Message: "failed to build download request", Cause: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &DispatchError{Message: "failed to download signed document", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &DispatchError{Message: fmt.Sprintf("download returned status %d", resp.StatusCode)}
	}

	signed, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &DispatchError{Message: "failed to read signed document", Cause: err}
	}
	return signed, nil
}

func (c *Client) createShell(ctx context.Context, fileName string, recipient Recipient, subject, message string) (*createDocumentResponse, error) {
	payload := createDocumentRequest{
		Title: fileName,
		Recipients: []createDocumentSigner{
			{Name: recipient.Name, Email: recipient.Email, Role: "SIGNER"},
		},
		Meta: createDocumentMetaPayload{Subject: subject, Message: message},
	}

	var created createDocumentResponse
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/api/v1/documents", payload, &created); err != nil {
		return nil, err
	}
	if created.UploadURL == "" {
		return nil, &DispatchError{Message: "create response carried no upload URL"}
	}
	return &created, nil
}

func (c *Client) uploadFile(ctx context.Context, uploadURL string, file []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(file))
	if err != nil {
		return &DispatchError{Message: "failed to build upload request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/pdf")

	resp, err := c.http.Do(req)
	if err != nil {
		return &DispatchError{Message: "failed to upload document", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &DispatchError{Message: fmt.Sprintf("upload returned status %d", resp.StatusCode)}
	}
	return nil
}

func (c *Client) send(ctx context.Context, documentID string) error {
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("%s/api/v1/documents/%s/send", c.baseURL, documentID), struct{}{}, nil)
}

// doJSON performs one authenticated JSON round trip against the service.
func (c *Client) doJSON(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &DispatchError{Message: "failed to encode request", Cause: err}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return &DispatchError{Message: "failed to build request", Cause: err}
	}
	req.Header.Set("Authorization", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &DispatchError{Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &DispatchError{Message: "failed to read response", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &DispatchError{Message: fmt.Sprintf("service returned status %d: %s", resp.StatusCode, string(raw))}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &DispatchError{Message: "failed to decode response", Cause: err}
		}
	}
	return nil
}

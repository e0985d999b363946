package signature

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDocument_FullDispatchFlow(t *testing.T) {
	var uploaded []byte
	var sendCalled bool

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("POST /api/v1/documents", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))

		var req createDocumentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "letter.pdf", req.Title)
		require.Len(t, req.Recipients, 1)
		assert.Equal(t, "provider@example.com", req.Recipients[0].Email)
		assert.Equal(t, "SIGNER", req.Recipients[0].Role)

		json.NewEncoder(w).Encode(createDocumentResponse{
			DocumentID: 4711,
			UploadURL:  srv.URL + "/upload/4711",
		})
	})
	mux.HandleFunc("PUT /upload/4711", func(w http.ResponseWriter, r *http.Request) {
		uploaded, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /api/v1/documents/4711/send", func(w http.ResponseWriter, r *http.Request) {
		sendCalled = true
		fmt.Fprint(w, "{}")
	})

	client := NewClient(srv.URL, "test-key")
	id, err := client.CreateDocument(context.Background(), []byte("%PDF-1.4 fake"), "letter.pdf",
		Recipient{Name: "Dr. Reviewer", Email: "provider@example.com"}, "Please sign", "A letter awaits your signature.")
	require.NoError(t, err)

	assert.Equal(t, "4711", id)
	assert.Equal(t, []byte("%PDF-1.4 fake"), uploaded)
	assert.True(t, sendCalled, "document must be sent after upload")
}

func TestCreateDocument_ServiceErrorIsDispatchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "bad-key")
	_, err := client.CreateDocument(context.Background(), []byte("x"), "letter.pdf",
		Recipient{Name: "Dr. Reviewer", Email: "provider@example.com"}, "s", "m")
	require.Error(t, err)

	var derr *DispatchError
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, derr.Error(), "401")
}

func TestCreateDocument_UploadFailureAbortsBeforeSend(t *testing.T) {
	var sendCalled bool

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("POST /api/v1/documents", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(createDocumentResponse{DocumentID: 9, UploadURL: srv.URL + "/upload/9"})
	})
	mux.HandleFunc("PUT /upload/9", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
	})
	mux.HandleFunc("POST /api/v1/documents/9/send", func(w http.ResponseWriter, r *http.Request) {
		sendCalled = true
	})

	client := NewClient(srv.URL, "test-key")
	_, err := client.CreateDocument(context.Background(), []byte("x"), "letter.pdf",
		Recipient{Name: "Dr. Reviewer", Email: "provider@example.com"}, "s", "m")

	var derr *DispatchError
	require.ErrorAs(t, err, &derr)
	assert.False(t, sendCalled, "send must not run after a failed upload")
}

func TestFetchCompletedDocument(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("GET /api/v1/documents/4711/download", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(downloadResponse{DownloadURL: srv.URL + "/files/4711"})
	})
	mux.HandleFunc("GET /files/4711", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "%PDF-1.4 signed")
	})

	client := NewClient(srv.URL, "test-key")
	signed, err := client.FetchCompletedDocument(context.Background(), "4711")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 signed", string(signed))
}

func TestFetchCompletedDocument_TruncatedBodyIsDispatchError(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("GET /api/v1/documents/4711/download", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(downloadResponse{DownloadURL: srv.URL + "/files/4711"})
	})
	mux.HandleFunc("GET /files/4711", func(w http.ResponseWriter, r *http.Request) {
		// Promise more bytes than are written so the client's read fails.
		w.Header().Set("Content-Length", "100")
		w.Write([]byte("%PDF"))
	})

	client := NewClient(srv.URL, "test-key")
	_, err := client.FetchCompletedDocument(context.Background(), "4711")
	require.Error(t, err)

	var derr *DispatchError
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, derr.Error(), "failed to read signed document")
}

func TestFetchCompletedDocument_MissingURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "{}")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key")
	_, err := client.FetchCompletedDocument(context.Background(), "404")

	var derr *DispatchError
	require.ErrorAs(t, err, &derr)
}

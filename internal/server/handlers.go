package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/jonathan/lmn-fulfillment/internal/intake"
	"github.com/jonathan/lmn-fulfillment/internal/pipeline"
	"github.com/jonathan/lmn-fulfillment/internal/types"
)

// createLetterRequest is the API shape for one fulfillment run: the raw
// intake submission plus the patient routing fields.
type createLetterRequest struct {
	Intake  json.RawMessage   `json:"intake"`
	Patient types.PatientInfo `json:"patient"`
}

type createLetterResponse struct {
	DocumentID string `json:"document_id,omitempty"`
	Dispatched bool   `json:"dispatched"`
}

// handleCreateLetter runs the full pipeline for one intake submission.
func (s *Server) handleCreateLetter(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var req createLetterRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Intake) == 0 {
		s.errorResponse(w, http.StatusBadRequest, "missing intake")
		return
	}

	opts := s.pipelineOpts
	opts.IntakeJSON = req.Intake
	opts.Patient = req.Patient

	result, err := pipeline.Run(r.Context(), s.pipelineDeps, opts)
	if err != nil {
		var verr *intake.ValidationError
		if errors.As(err, &verr) {
			s.errorResponse(w, http.StatusBadRequest, verr.Error())
			return
		}
		log.Printf("[server] pipeline run failed: %v", err)
		s.errorResponse(w, http.StatusBadGateway, "letter fulfillment failed")
		return
	}

	s.jsonResponse(w, http.StatusCreated, createLetterResponse{
		DocumentID: result.DocumentID,
		Dispatched: result.DocumentID != "",
	})
}

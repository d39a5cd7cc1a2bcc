package apiutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/trailhop/gateway/internal/upstream"
)

type HandlerError struct {
	Status  int
	Message string
	Err     error
}

func (e HandlerError) Error() string {
	return e.Message
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteError writes a JSON error envelope.
func WriteError(w http.ResponseWriter, status int, message string) {
	if err := WriteJSON(w, status, map[string]string{"message": message}); err != nil {
		log.Error().Err(err).Msg("Failed to write error response")
	}
}

// WriteUpstreamError relays an upstream failure: *APIError keeps its
// original status and message, anything else becomes a 502.
func WriteUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) {
		WriteError(w, apiErr.StatusCode, apiErr.Message)
		return
	}
	log.Ctx(r.Context()).Error().Err(err).Msg("Upstream request failed")
	WriteError(w, http.StatusBadGateway, "upstream request failed")
}

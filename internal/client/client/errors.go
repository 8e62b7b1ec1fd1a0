package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/keylessvault/internal/netx"
)

var (
	ErrUnavailable = errors.New("node unavailable")
	ErrNotFound    = errors.New("not found")
	ErrNoEndpoint  = errors.New("endpoint not configured")
	errPending     = errors.New("transaction pending")
)

// APIError is an error document returned by the node or a keyless service.
type APIError struct {
	StatusCode  int    `json:"-"`
	Message     string `json:"message"`
	ErrorCode   string `json:"error_code"`
	VMErrorCode int    `json:"vm_error_code,omitempty"`
}

func (e *APIError) Error() string {
	if e.ErrorCode == "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.ErrorCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode >= 500:
		return ErrUnavailable
	default:
		return nil
	}
}

// mapError turns transport and HTTP failures into package errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var he *netx.HTTPError
	if !errors.As(err, &he) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	ae := &APIError{StatusCode: he.StatusCode}
	if jerr := json.Unmarshal(he.Body, ae); jerr != nil || ae.Message == "" {
		ae.Message = string(he.Body)
	}
	return ae
}

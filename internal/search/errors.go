package search

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies why retrieval failed
type ErrorKind string

const (
	KindQuota   ErrorKind = "quota"
	KindAuth    ErrorKind = "auth"
	KindNetwork ErrorKind = "network"
)

// RetrievalError is the only error the retriever returns. It is fatal for the
// request: the pipeline answers NotEnoughEvidence.
type RetrievalError struct {
	Kind     ErrorKind
	Provider string
	Cause    error
}

func (e *RetrievalError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s search failed (%s)", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s search failed (%s): %v", e.Provider, e.Kind, e.Cause)
}

func (e *RetrievalError) Unwrap() error {
	return e.Cause
}

func newRetrievalError(provider string, kind ErrorKind, cause error) *RetrievalError {
	return &RetrievalError{Kind: kind, Provider: provider, Cause: cause}
}

// kindForStatus maps an HTTP status from a search backend to an error kind.
func kindForStatus(code int) ErrorKind {
	switch code {
	case http.StatusTooManyRequests, http.StatusPaymentRequired:
		return KindQuota
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	default:
		return KindNetwork
	}
}

// AsRetrievalError wraps any error from a searcher into a RetrievalError,
// keeping an existing classification. Unclassified errors, including
// context expiry, count as network failures.
func AsRetrievalError(provider string, err error) *RetrievalError {
	var re *RetrievalError
	if errors.As(err, &re) {
		return re
	}
	return newRetrievalError(provider, KindNetwork, err)
}

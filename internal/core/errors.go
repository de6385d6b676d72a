package core

import (
	"fmt"
	"net/http"
)

// RetrievalError reports a failed page or asset request. StatusCode is zero
// for transport failures that never produced a response.
type RetrievalError struct {
	Page       int // zero for single-asset requests
	StatusCode int
	Status     string
	Err        error
}

func (e *RetrievalError) Error() string {
	what := "retrieve asset"
	if e.Page > 0 {
		what = fmt.Sprintf("retrieve page %d", e.Page)
	}
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", what, e.Status, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s", what, e.Status)
	default:
		return fmt.Sprintf("%s: %v", what, e.Err)
	}
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// Temporary reports whether retrying the whole collection may succeed.
func (e *RetrievalError) Temporary() bool {
	if e.StatusCode == 0 {
		return true
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

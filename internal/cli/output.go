package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/MrEthical07/goGuard/apierror"
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

type errorOutput struct {
	Kind        string `json:"kind"`
	Status      int    `json:"status,omitempty"`
	Code        string `json:"code,omitempty"`
	Message     string `json:"message"`
	Disposition string `json:"disposition"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// reportError prints a classified backend failure and returns an ExitError.
// Errors that are not backend failures are returned unchanged.
func reportError(w io.Writer, err error) error {
	var apiErr *apierror.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	if werr := writeJSON(w, map[string]errorOutput{"error": {
		Kind:        apiErr.Kind.String(),
		Status:      apiErr.HTTPStatus,
		Code:        apiErr.ProviderCode,
		Message:     apiErr.Message,
		Disposition: apiErr.Kind.Disposition().String(),
	}}); werr != nil {
		return werr
	}
	return &ExitError{Code: exitCode(apiErr.Kind), Err: fmt.Errorf("backend: %w", err)}
}

func exitCode(k apierror.Kind) int {
	switch k {
	case apierror.KindUnauthorized, apierror.KindForbidden, apierror.KindConflictAlreadyLoggedIn:
		return 3
	case apierror.KindRateLimited:
		return 4
	default:
		return 1
	}
}

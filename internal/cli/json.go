package cli

import (
	"encoding/json"
	stderrors "errors"
	"io"

	"github.com/rileyhilliard/swarm/internal/errors"
	"github.com/rileyhilliard/swarm/internal/probe"
)

// jsonOutput is set by --json on the commands that support it.
var jsonOutput bool

// JSONEnvelope wraps command output in a consistent structure for machine parsing.
// All --json output should use this envelope.
type JSONEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *JSONError  `json:"error,omitempty"`
}

// JSONError provides structured error information for machine parsing.
type JSONError struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
	Details    interface{} `json:"details,omitempty"`
}

// ErrCodeUnknown marks errors that carry no code of their own.
const ErrCodeUnknown = "UNKNOWN"

// WriteJSONSuccess writes a successful response with data to the writer.
func WriteJSONSuccess(w io.Writer, data interface{}) error {
	return writeJSONEnvelope(w, JSONEnvelope{Success: true, Data: data})
}

// WriteJSONFromError converts a Go error to a JSON error response.
func WriteJSONFromError(w io.Writer, err error) error {
	return writeJSONEnvelope(w, JSONEnvelope{Success: false, Error: ErrorToJSON(err)})
}

// writeJSONEnvelope writes the envelope with consistent formatting.
func writeJSONEnvelope(w io.Writer, env JSONEnvelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// ErrorToJSON converts a Go error to a JSONError. Structured errors keep
// their code; probe failures add the reason and address.
func ErrorToJSON(err error) *JSONError {
	if err == nil {
		return nil
	}

	out := &JSONError{Code: ErrCodeUnknown, Message: err.Error()}

	var swErr *errors.Error
	if stderrors.As(err, &swErr) {
		out.Code = swErr.Code
		out.Message = swErr.Message
		out.Suggestion = swErr.Suggestion
	}

	var probeErr *probe.ProbeError
	if stderrors.As(err, &probeErr) {
		if out.Code == ErrCodeUnknown {
			out.Code = errors.ErrProbe
		}
		out.Details = map[string]interface{}{
			"reason": probeErr.Reason.String(),
			"ip":     probeErr.IP,
		}
	}

	return out
}

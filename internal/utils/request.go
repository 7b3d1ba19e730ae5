package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 1 << 20

// DecodeJSONRequest decodes the body into dst. On failure it writes a 400
// and returns the error, so callers just return.
func DecodeJSONRequest(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	if err := dec.Decode(dst); err != nil {
		msg := err.Error()
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			msg = "Request body must not be empty"
		case errors.As(err, &syntaxErr):
			msg = fmt.Sprintf("Malformed JSON at position %d", syntaxErr.Offset)
		case errors.As(err, &typeErr):
			msg = fmt.Sprintf("Invalid value for field %q", typeErr.Field)
		}
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", msg)
		return err
	}
	return nil
}

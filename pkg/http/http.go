package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
)

// ErrPayloadTooLarge is returned when the uploaded image exceeds the configured limit.
var ErrPayloadTooLarge = errors.New("payload too large")

// WriteJSON writes value as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, code int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(value); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// WriteError writes a JSON error body. Only the status text is exposed to the caller;
// details belong in the server log.
func WriteError(w http.ResponseWriter, code int) {
	WriteJSON(w, code, map[string]string{"error": http.StatusText(code)})
}

// ReadImage reads the image payload of a request, either from the "image" field of a
// multipart form or from the raw body. At most maxBytes are accepted.
func ReadImage(r *http.Request, maxBytes int64) ([]byte, error) {
	var reader io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			return nil, fmt.Errorf("failed to parse multipart form: %w", err)
		}
		file, _, err := r.FormFile("image")
		if err != nil {
			return nil, fmt.Errorf("missing image field: %w", err)
		}
		defer file.Close()
		reader = file
	}

	data, err := io.ReadAll(io.LimitReader(reader, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrPayloadTooLarge
	}
	if len(data) == 0 {
		return nil, errors.New("empty image")
	}
	return data, nil
}

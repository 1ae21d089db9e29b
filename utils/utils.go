package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	rndm "math/rand"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

var letterRunes = []rune("abcdefghijklmnopqrstuvwxyz0123456789_ABCDEFGHIJKLMNOPQRSTUVWXYZ")

// GenerateRandomString creates a random alphanumeric string of length n.
func GenerateRandomString(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = letterRunes[rndm.Intn(len(letterRunes))]
	}
	return string(b)
}

// GetUUID returns a short id with the given prefix, e.g. "it_3f9a1c2b7d4e".
func GetUUID(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}

const maxBodyBytes = 1 << 20

// DecodeJSON reads a single JSON object from the request body.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

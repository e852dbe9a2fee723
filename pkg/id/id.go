package id

import (
	"encoding/base64"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/lbogdanov/stethoscope/pkg/model"
)

// Generate returns a random URL safe token of model.IDLength characters.
// Catalog ids share the width of youtube video ids, so 8 random bytes are encoded.
func Generate() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", errors.Wrap(err, "failed to generate id")
	}

	return base64.RawURLEncoding.EncodeToString(u[:8]), nil
}

// Valid reports whether s looks like a catalog id.
func Valid(s string) bool {
	if len(s) != model.IDLength {
		return false
	}

	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}

	return true
}

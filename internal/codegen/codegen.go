// Package codegen produces opaque route codes.
package codegen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// CodeBytes is the entropy drawn per code; the code is twice as many hex characters.
const CodeBytes = 8

// Generator returns a fresh candidate code. It does not guarantee uniqueness.
type Generator func() (string, error)

// Generate draws CodeBytes from crypto/rand and returns them as uppercase hex.
func Generate() (string, error) {
	return FromReader(rand.Reader)()
}

// FromReader builds a Generator over an arbitrary entropy source.
func FromReader(r io.Reader) Generator {
	return func() (string, error) {
		buf := make([]byte, CodeBytes)
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		return strings.ToUpper(hex.EncodeToString(buf)), nil
	}
}

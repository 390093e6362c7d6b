// Package service provides invitation support services.
package service

import (
	"crypto/rand"
	"math/big"

	apperrors "github.com/allisson/identity/internal/errors"
	"github.com/allisson/identity/internal/invitation/domain"
)

const codeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// CodeGenerator produces invitation codes.
type CodeGenerator interface {
	// Generate creates a cryptographically secure random code.
	Generate() (string, error)
}

type alphanumericCodeGenerator struct{}

// NewCodeGenerator creates a generator of fixed-length alphanumeric codes
// using [A-Za-z0-9].
func NewCodeGenerator() CodeGenerator {
	return &alphanumericCodeGenerator{}
}

// Generate creates a random code of domain.CodeLength characters.
func (g *alphanumericCodeGenerator) Generate() (string, error) {
	code := make([]byte, domain.CodeLength)
	charsLen := big.NewInt(int64(len(codeChars)))

	for i := range code {
		n, err := rand.Int(rand.Reader, charsLen)
		if err != nil {
			return "", apperrors.Wrap(err, "failed to generate random character")
		}
		code[i] = codeChars[n.Int64()]
	}

	return string(code), nil
}

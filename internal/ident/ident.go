// Package ident mints annotation identifiers.
package ident

import (
	"encoding/hex"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator produces identifiers that do not repeat within a response.
type Generator interface {
	NewID() string
}

var (
	_ Generator = Random{}
	_ Generator = (*Sequence)(nil)
)

// Random yields 128-bit random identifiers as 32 lowercase hex characters.
type Random struct{}

// NewID implements Generator.
func (Random) NewID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// Sequence yields prefix-1, prefix-2, ... for deterministic output in tests and tooling.
type Sequence struct {
	prefix string
	n      atomic.Uint64
}

// NewSequence creates a Sequence with the given prefix.
func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

// NewID implements Generator.
func (s *Sequence) NewID() string {
	return fmt.Sprintf("%s-%d", s.prefix, s.n.Add(1))
}

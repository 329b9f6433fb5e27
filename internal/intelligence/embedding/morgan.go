package embedding

import (
	"context"
	"fmt"

	"github.com/turtacn/rxnguard/internal/domain/molecule"
	"github.com/turtacn/rxnguard/pkg/errors"
)

// MorganEmbedder uses a count-based circular fingerprint as the vector.  It
// needs no model but only accepts parseable structures; dot-joined reactant
// composites are parsed as one multi-fragment molecule.
type MorganEmbedder struct {
	radius int
	bits   int
}

// NewMorganEmbedder returns a fingerprint embedder; non-positive arguments
// take the fingerprint defaults.
func NewMorganEmbedder(radius, bits int) *MorganEmbedder {
	if radius <= 0 {
		radius = molecule.DefaultMorganRadius
	}
	if bits <= 0 {
		bits = molecule.DefaultMorganBits
	}
	return &MorganEmbedder{radius: radius, bits: bits}
}

func (e *MorganEmbedder) Dimension() int { return e.bits }

func (e *MorganEmbedder) Name() string { return fmt.Sprintf("morgan-r%d-%d", e.radius, e.bits) }

func (e *MorganEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := molecule.Parse(text)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAIInputInvalid, "structure cannot be fingerprinted")
	}
	fp, err := molecule.MorganFingerprint(m, e.radius, e.bits)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAIInferenceFailed, "fingerprint failed")
	}
	return fp.Vector(), nil
}

//Personal.AI order the ending

package plausibility

import (
	"context"
	"strings"

	"github.com/turtacn/rxnguard/internal/domain/molecule"
	"github.com/turtacn/rxnguard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rxnguard/internal/intelligence/embedding"
	"github.com/turtacn/rxnguard/pkg/errors"
)

// Scorer compares candidates with the joint embedding of their reactants.
// It reports every embedding fault as an error; whether such a candidate is
// accepted is the caller's decision.
type Scorer struct {
	embedder   embedding.Embedder
	thresholds Thresholds
	logger     logging.Logger
}

// NewScorer validates the thresholds.
func NewScorer(e embedding.Embedder, th Thresholds, log logging.Logger) (*Scorer, error) {
	if e == nil {
		return nil, errors.New(errors.ErrCodeAIModelNotAvailable, "scorer requires an embedder")
	}
	if err := th.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Scorer{embedder: e, thresholds: th, logger: log}, nil
}

// Thresholds returns the acceptance interval in use.
func (s *Scorer) Thresholds() Thresholds { return s.thresholds }

// JoinReactants builds the composite text embedded for a reactant list: the
// structures joined with the fragment separator.
func JoinReactants(reactants []string) string {
	parts := make([]string, 0, len(reactants))
	for _, r := range reactants {
		if r = strings.TrimSpace(r); r != "" {
			parts = append(parts, r)
		}
	}
	return strings.Join(parts, ".")
}

// Reference is a prepared reactant embedding, reusable across the candidates
// of one invocation.
type Reference struct {
	scorer    *Scorer
	composite string
	vector    []float32
}

// Prepare embeds the reactant composite once.
func (s *Scorer) Prepare(ctx context.Context, reactants []string) (*Reference, error) {
	composite := JoinReactants(reactants)
	if composite == "" {
		return nil, errors.New(errors.ErrCodeAIInputInvalid, "no reactants to embed")
	}
	vec, err := s.embedder.Embed(ctx, composite)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeScoringDegraded, "reactant embedding failed")
	}
	return &Reference{scorer: s, composite: composite, vector: vec}, nil
}

// Composite is the text that was embedded.
func (r *Reference) Composite() string { return r.composite }

// Score embeds candidate and applies the thresholds to the rounded cosine
// similarity.
func (r *Reference) Score(ctx context.Context, candidate string) (VerdictRecord, error) {
	vec, err := r.scorer.embedder.Embed(ctx, candidate)
	if err != nil {
		return VerdictRecord{}, errors.Wrap(err, errors.ErrCodeScoringDegraded, "candidate embedding failed")
	}
	sim, err := molecule.CosineSimilarity(r.vector, vec)
	if err != nil {
		return VerdictRecord{}, errors.Wrap(err, errors.ErrCodeScoringDegraded, "similarity failed")
	}
	sim = Round4(sim)
	accepted, reason := r.scorer.thresholds.Verdict(sim)
	r.scorer.logger.Debug("Candidate scored",
		logging.String("product", candidate),
		logging.Float64("similarity", sim),
		logging.Bool("accepted", accepted),
	)
	return VerdictRecord{Product: candidate, Similarity: &sim, Accepted: accepted, Reason: reason}, nil
}

// Score is Prepare followed by Reference.Score.
func (s *Scorer) Score(ctx context.Context, reactants []string, candidate string) (VerdictRecord, error) {
	ref, err := s.Prepare(ctx, reactants)
	if err != nil {
		return VerdictRecord{}, err
	}
	return ref.Score(ctx, candidate)
}

// Pair is one (reactants, product) question for ScoreBatch.
type Pair struct {
	Reactants []string `json:"reactants"`
	Product   string   `json:"product"`
}

// ScoreBatch scores pairs independently.  Failed pairs get a SkippedVerdict
// so the result always lines up with the input.
func (s *Scorer) ScoreBatch(ctx context.Context, pairs []Pair) []VerdictRecord {
	out := make([]VerdictRecord, len(pairs))
	for i, p := range pairs {
		v, err := s.Score(ctx, p.Reactants, p.Product)
		if err != nil {
			s.logger.Warn("Batch scoring failed", logging.String("product", p.Product), logging.Err(err))
			v = SkippedVerdict(p.Product, err)
		}
		out[i] = v
	}
	return out
}

//Personal.AI order the ending

// Package pipeline runs one reaction request end to end: parse the template
// and reactants, apply the template, normalize the products, score them for
// plausibility and report the accepted set.  The fail-open policy for
// scoring faults lives here, not in the scorer.
package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/rxnguard/internal/application/telemetry"
	"github.com/turtacn/rxnguard/internal/domain/molecule"
	"github.com/turtacn/rxnguard/internal/domain/reaction"
	"github.com/turtacn/rxnguard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rxnguard/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/rxnguard/internal/intelligence/plausibility"
	"github.com/turtacn/rxnguard/pkg/errors"
)

// Error messages returned to callers.
const (
	MsgMissingSmarts     = "Missing smarts"
	MsgMissingReactants  = "Missing reactants"
	MsgNoValidReactants  = "No valid reactant molecules"
	msgTemplateParse     = "SMARTS parse error: "
	msgRunFailure        = "Reaction execution failed: "
	msgUnknownReactionID = "Unknown reaction id: "
)

// DefaultScoringConcurrency bounds concurrent candidate scoring per invocation.
const DefaultScoringConcurrency = 4

// Service runs pipeline invocations.  It is safe for concurrent use.
type Service interface {
	Run(ctx context.Context, req *Request) *Response
	ScoringEnabled() bool
}

// FailureRecorder receives rejected candidates and per-reaction counts.
// *telemetry.Sink implements it.
type FailureRecorder interface {
	AppendFailure(ctx context.Context, entry telemetry.FailureEntry) (telemetry.FailureEntry, error)
	UpdateStats(ctx context.Context, label string, total, accepted, rejected int) error
}

// TemplateResolver maps a catalog reaction id to its template and display name.
type TemplateResolver interface {
	Resolve(id string) (smarts, name string, err error)
}

// Config tunes the pipeline.
type Config struct {
	Limits             reaction.Limits `mapstructure:"limits" yaml:"limits"`
	ScoringConcurrency int             `mapstructure:"scoring_concurrency" yaml:"scoring_concurrency"`
	Timeout            time.Duration   `mapstructure:"timeout" yaml:"timeout"`
}

// DefaultConfig returns the production limits.
func DefaultConfig() Config {
	return Config{
		Limits:             reaction.DefaultLimits,
		ScoringConcurrency: DefaultScoringConcurrency,
	}
}

// Deps are the collaborators of a Service.  Scorer, Recorder, Catalog and
// Metrics may be nil: a nil Scorer disables plausibility scoring.
type Deps struct {
	Scorer   *plausibility.Scorer
	Recorder FailureRecorder
	Catalog  TemplateResolver
	Metrics  *prometheus.AppMetrics
	Logger   logging.Logger
}

type serviceImpl struct {
	cfg      Config
	scorer   *plausibility.Scorer
	recorder FailureRecorder
	catalog  TemplateResolver
	metrics  *prometheus.AppMetrics
	logger   logging.Logger
}

// NewService builds a Service.
func NewService(cfg Config, deps Deps) Service {
	if cfg.ScoringConcurrency <= 0 {
		cfg.ScoringConcurrency = DefaultScoringConcurrency
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	return &serviceImpl{
		cfg:      cfg,
		scorer:   deps.Scorer,
		recorder: deps.Recorder,
		catalog:  deps.Catalog,
		metrics:  deps.Metrics,
		logger:   deps.Logger.Named("pipeline"),
	}
}

func (s *serviceImpl) ScoringEnabled() bool { return s.scorer != nil }

// invocation carries the per-request state through the stages.
type invocation struct {
	req       *Request
	smarts    string
	name      string
	label     string
	stage     Stage
	template  *reaction.Template
	reactants []*molecule.Molecule
	sets      [][]*molecule.Molecule
	products  []string
	stageAt   time.Time
}

// Run executes one invocation.  It never panics on bad chemistry and always
// returns a response with a non-nil Products slice.
func (s *serviceImpl) Run(ctx context.Context, req *Request) *Response {
	if req == nil {
		req = &Request{}
	}
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	inv := &invocation{req: req, stage: StageReceived, stageAt: time.Now()}
	resp := s.run(ctx, inv)
	prometheus.RecordInvocation(s.metrics, inv.stage.String(), resp.Failed())

	if resp.Failed() {
		s.logger.Info("Reaction request failed",
			logging.String("stage", inv.stage.String()),
			logging.String("reaction", inv.label),
			logging.String("error", resp.Error))
	} else {
		s.logger.Info("Reaction request completed",
			logging.String("reaction", inv.label),
			logging.Int("candidates", len(inv.products)),
			logging.Int("products", len(resp.Products)),
			logging.Bool("scored", resp.AIValidated))
	}
	return resp
}

func (s *serviceImpl) run(ctx context.Context, inv *invocation) *Response {
	if resp := s.receive(inv); resp != nil {
		return resp
	}
	if resp := s.parse(inv); resp != nil {
		return resp
	}
	if resp := s.generate(inv); resp != nil {
		return resp
	}
	s.normalize(inv)
	if s.scorer == nil {
		s.advance(inv, StageReported, len(inv.products))
		return &Response{Products: append([]string{}, inv.products...)}
	}
	verdicts := s.score(ctx, inv)
	resp := s.report(ctx, inv, verdicts)
	s.advance(inv, StageReported, len(resp.Products))
	return resp
}

// advance moves inv to next and records the time spent in the stage it left.
func (s *serviceImpl) advance(inv *invocation, next Stage, candidates int) {
	now := time.Now()
	prometheus.RecordStage(s.metrics, inv.stage.String(), now.Sub(inv.stageAt), candidates)
	inv.stage = next
	inv.stageAt = now
}

// ----------------------------------------------------------------------------
// Stages
// ----------------------------------------------------------------------------

func (s *serviceImpl) receive(inv *invocation) *Response {
	req := inv.req
	inv.smarts = req.Smarts
	inv.name = req.ReactionName

	if inv.smarts == "" && req.ReactionID != "" && s.catalog != nil {
		smarts, name, err := s.catalog.Resolve(req.ReactionID)
		if err != nil {
			s.logger.Warn("Unknown reaction id", logging.String("reaction_id", req.ReactionID), logging.Err(err))
			return failure(msgUnknownReactionID + req.ReactionID)
		}
		inv.smarts = smarts
		if inv.name == "" {
			inv.name = name
		}
	}
	inv.label = inv.name
	if inv.label == "" {
		inv.label = telemetry.UnknownReaction
	}

	if inv.smarts == "" {
		return failure(MsgMissingSmarts)
	}
	if len(req.Reactants) == 0 {
		return failure(MsgMissingReactants)
	}
	s.advance(inv, StageParsed, len(req.Reactants))
	return nil
}

func (s *serviceImpl) parse(inv *invocation) *Response {
	tmpl, err := reaction.ParseTemplate(inv.smarts)
	if err != nil {
		return failure(msgTemplateParse + errors.UserMessage(err))
	}
	inv.template = tmpl

	dropped := 0
	for i, text := range inv.req.Reactants {
		m, err := molecule.Parse(text)
		if err != nil {
			dropped++
			s.logger.Warn("Reactant dropped",
				logging.Int("index", i),
				logging.String("reactant", text),
				logging.Err(err))
			continue
		}
		inv.reactants = append(inv.reactants, m)
	}
	prometheus.RecordDroppedReactants(s.metrics, dropped)
	if len(inv.reactants) == 0 {
		return failure(MsgNoValidReactants)
	}
	s.advance(inv, StageGenerated, len(inv.reactants))
	return nil
}

func (s *serviceImpl) generate(inv *invocation) *Response {
	reactants := padReactants(inv.reactants, inv.template.RequiredReactantCount())
	if len(reactants) != len(inv.reactants) {
		s.logger.Warn("Reactants padded with first reactant",
			logging.Int("required", inv.template.RequiredReactantCount()),
			logging.Int("supplied", len(inv.reactants)))
	}

	sets, err := inv.template.Apply(reactants)
	if err != nil {
		s.logger.Warn("Template application failed", logging.String("smarts", inv.smarts), logging.Err(err))
		return failure(msgRunFailure + errors.UserMessage(err))
	}
	inv.sets = sets
	s.advance(inv, StageNormalized, len(sets))
	return nil
}

// padReactants repeats the first reactant until required roles are filled.
// Surplus reactants are left alone; the template rejects the arity mismatch.
func padReactants(reactants []*molecule.Molecule, required int) []*molecule.Molecule {
	if len(reactants) == 0 || len(reactants) >= required {
		return reactants
	}
	out := make([]*molecule.Molecule, len(reactants), required)
	copy(out, reactants)
	for len(out) < required {
		out = append(out, reactants[0])
	}
	return out
}

func (s *serviceImpl) normalize(inv *invocation) {
	products, rep := reaction.NormalizeWithReport(inv.sets, s.cfg.Limits)
	inv.products = products
	if rep.SanitizeFailed+rep.ReparseFailed+rep.OverCeiling > 0 {
		s.logger.Debug("Candidates dropped during normalization",
			logging.Int("raw", rep.Raw),
			logging.Int("sanitize_failed", rep.SanitizeFailed),
			logging.Int("reparse_failed", rep.ReparseFailed),
			logging.Int("over_ceiling", rep.OverCeiling),
			logging.Int("duplicates", rep.Duplicates))
	}
	s.advance(inv, StageScored, len(products))
}

// score returns one verdict per candidate, in candidate order.  Scoring
// faults become accepted verdicts without a similarity.
func (s *serviceImpl) score(ctx context.Context, inv *invocation) []plausibility.VerdictRecord {
	verdicts := make([]plausibility.VerdictRecord, len(inv.products))
	if len(inv.products) == 0 {
		return verdicts
	}

	ref, err := s.scorer.Prepare(ctx, inv.req.Reactants)
	if err != nil {
		s.logger.Warn("Scoring degraded, accepting all candidates", logging.Err(err))
		for i, p := range inv.products {
			verdicts[i] = plausibility.SkippedVerdict(p, err)
		}
		return verdicts
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.ScoringConcurrency)
	for i, p := range inv.products {
		i, p := i, p
		g.Go(func() error {
			v, err := ref.Score(gctx, p)
			if err != nil {
				s.logger.Warn("Scoring degraded", logging.String("product", p), logging.Err(err))
				v = plausibility.SkippedVerdict(p, err)
			}
			verdicts[i] = v
			return nil
		})
	}
	_ = g.Wait()
	return verdicts
}

// report partitions verdicts, records telemetry and builds the response.
func (s *serviceImpl) report(ctx context.Context, inv *invocation, verdicts []plausibility.VerdictRecord) *Response {
	resp := &Response{Products: []string{}}
	rejected := 0
	for _, v := range verdicts {
		switch {
		case v.Degraded():
			prometheus.RecordVerdict(s.metrics, "degraded")
		case v.Accepted:
			prometheus.RecordVerdict(s.metrics, "accepted")
		default:
			prometheus.RecordVerdict(s.metrics, "rejected")
		}
		if v.Accepted {
			resp.Products = append(resp.Products, v.Product)
			continue
		}
		rejected++
		if s.recorder != nil {
			entry := telemetry.NewFailureEntry(inv.req.Reactants, inv.smarts, inv.name, v)
			// The sink logs its own persistence failures.
			_, _ = s.recorder.AppendFailure(ctx, entry)
		}
	}
	if s.recorder != nil {
		_ = s.recorder.UpdateStats(ctx, inv.label, len(verdicts), len(verdicts)-rejected, rejected)
	}
	if len(verdicts) > 0 {
		resp.Validation = verdicts
		resp.AIValidated = true
	}
	return resp
}

//Personal.AI order the ending

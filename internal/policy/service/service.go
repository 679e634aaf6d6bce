// Package service owns the active policy snapshot and coordinates
// evaluation, administration, and observability around the evaluator.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"passgate/internal/policy/config"
	"passgate/internal/policy/dictionary"
	"passgate/internal/policy/evaluator"
	"passgate/internal/policy/metrics"
	"passgate/internal/policy/models"
	"passgate/internal/policy/rules"
	"passgate/internal/policy/store"
	"passgate/internal/policy/strength"
	dErrors "passgate/pkg/domain-errors"
	audit "passgate/pkg/platform/audit"
)

// AuditPublisher records policy lifecycle and rejection events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// snapshot binds one policy version to its compiled evaluator. The
// whole struct is swapped atomically so in-flight evaluations always
// see a consistent config/dictionary pair.
type snapshot struct {
	record    *store.Record
	evaluator *evaluator.Evaluator
}

type Service struct {
	store   store.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   AuditPublisher
	tracer  trace.Tracer

	defaults config.Config
	current  atomic.Pointer[snapshot]
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.audit = publisher
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithDefaultConfig sets the policy used when the store holds nothing,
// typically assembled from the environment at startup.
func WithDefaultConfig(cfg config.Config) Option {
	return func(s *Service) {
		s.defaults = cfg.Clone()
	}
}

func New(policyStore store.Store, opts ...Option) (*Service, error) {
	if policyStore == nil {
		return nil, errors.New("policy store is required")
	}

	svc := &Service{
		store:    policyStore,
		logger:   slog.Default(),
		defaults: config.Default(),
		tracer:   otel.Tracer("passgate/policy"),
	}
	for _, opt := range opts {
		opt(svc)
	}

	// The service starts on the default policy so a cold store never
	// leaves it without one; Load picks up the persisted version.
	snap, err := buildSnapshot(nil, svc.defaults)
	if err != nil {
		return nil, err
	}
	svc.current.Store(snap)

	return svc, nil
}

// Load reads the persisted policy and makes it active. A store with no
// saved policy keeps the defaults. Called at startup and whenever a
// cache invalidation arrives from another instance.
func (s *Service) Load(ctx context.Context) error {
	record, err := s.store.Active(ctx)
	if err != nil {
		s.emitAudit(ctx, audit.EventPolicyLoadFailed, "system", err.Error(), nil)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load active policy")
	}
	if record == nil {
		return nil
	}

	snap, err := buildSnapshot(record, record.Config)
	if err != nil {
		s.emitAudit(ctx, audit.EventPolicyLoadFailed, "system", err.Error(), nil)
		return dErrors.Wrap(err, dErrors.CodeInternal, "stored policy could not be activated")
	}
	s.current.Store(snap)

	s.logger.InfoContext(ctx, "active policy loaded",
		"policy_id", record.ID,
		"min_length", record.Config.MinLength,
		"dictionary_enabled", record.Config.DictionaryEnabled(),
	)
	s.emitAudit(ctx, audit.EventPolicyLoaded, "system", "", map[string]string{"policy_id": record.ID})
	return nil
}

// Evaluate runs the candidate password through the active policy.
// Subject identifies the calling principal for audit purposes; the
// password itself never reaches logs, audit events, or span attributes.
func (s *Service) Evaluate(ctx context.Context, req models.ValidatePasswordRequest, subject string) (*models.ValidatePasswordResponse, error) {
	ctx, span := s.tracer.Start(ctx, "policy.evaluate")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	snap := s.current.Load()
	cfg := snap.evaluator.Config()

	evalCtx := models.EvaluationContext{}
	if req.LastModified != nil {
		evalCtx.LastModified = *req.LastModified
	}

	start := time.Now()
	violations := snap.evaluator.Evaluate(req.Password, evalCtx)
	elapsed := time.Since(start)

	valid := len(violations) == 0
	waived := valid && cfg.GoodStrength > 0 && strength.MeetsThreshold(req.Password, cfg.GoodStrength)

	span.SetAttributes(
		attribute.Bool("policy.valid", valid),
		attribute.Int("policy.violations", len(violations)),
	)

	if s.metrics != nil {
		s.metrics.ObserveEvaluation(elapsed.Seconds())
		for _, kind := range violations {
			s.metrics.IncrementRejection(string(kind))
		}
		if waived {
			s.metrics.IncrementGoodStrengthWaivers()
		}
	}

	if !valid {
		s.emitAudit(ctx, audit.EventPasswordRejected, subject, joinKinds(violations), nil)
	} else if waived {
		s.emitAudit(ctx, audit.EventGoodStrengthWaived, subject, "", nil)
	}

	return &models.ValidatePasswordResponse{
		Valid:        valid,
		Errors:       violations,
		Requirements: evaluator.DescribeRequirements(cfg, violations),
	}, nil
}

// Requirements describes the active policy as a user-facing checklist
// with every row marked satisfied, suitable for display before any
// password has been typed.
func (s *Service) Requirements(ctx context.Context) *models.RequirementsResponse {
	_, span := s.tracer.Start(ctx, "policy.requirements")
	defer span.End()

	cfg := s.current.Load().evaluator.Config()
	return &models.RequirementsResponse{
		Requirements: evaluator.DescribeRequirements(cfg, nil),
	}
}

// Active returns the currently enforced policy configuration.
func (s *Service) Active(ctx context.Context) *models.PolicyResponse {
	_, span := s.tracer.Start(ctx, "policy.active")
	defer span.End()

	cfg := s.current.Load().evaluator.Config()
	return policyResponse(cfg)
}

// Update validates and persists a new policy, then makes it active.
// Dictionary sources are loaded before anything is saved so a policy
// pointing at an unreadable word list is rejected whole.
func (s *Service) Update(ctx context.Context, req models.UpdatePolicyRequest, updatedBy string) (*models.PolicyResponse, error) {
	ctx, span := s.tracer.Start(ctx, "policy.update")
	defer span.End()

	cfg, err := configFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Prove the config is activatable before persisting it.
	snap, err := buildSnapshot(nil, cfg)
	if err != nil {
		return nil, err
	}

	record, err := s.store.Save(ctx, cfg, updatedBy)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save policy")
	}
	snap.record = record
	s.current.Store(snap)

	if s.metrics != nil {
		s.metrics.IncrementPolicyUpdates()
	}
	s.logger.InfoContext(ctx, "policy updated",
		"policy_id", record.ID,
		"updated_by", updatedBy,
		"min_length", cfg.MinLength,
		"max_length", cfg.MaxLength,
		"min_characteristics", cfg.MinCharacteristics,
	)
	s.emitAudit(ctx, audit.EventPolicyUpdated, updatedBy, "", map[string]string{
		"policy_id":  record.ID,
		"min_length": strconv.Itoa(cfg.MinLength),
	})

	return policyResponse(record.Config), nil
}

func (s *Service) emitAudit(ctx context.Context, action audit.AuditEvent, subject, reason string, metadata map[string]string) {
	if s.audit == nil {
		return
	}
	event := audit.Event{
		Subject:  subject,
		Action:   string(action),
		Reason:   reason,
		Metadata: metadata,
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", action, "error", err)
	}
}

func buildSnapshot(record *store.Record, cfg config.Config) (*snapshot, error) {
	dict, err := dictionary.Load(cfg.DictionaryCaseSensitive, cfg.DictionarySources...)
	if err != nil {
		return nil, err
	}
	eval, err := evaluator.New(cfg, dict)
	if err != nil {
		return nil, err
	}
	return &snapshot{record: record, evaluator: eval}, nil
}

func configFromRequest(req models.UpdatePolicyRequest) (config.Config, error) {
	parsed, err := rules.ParseOrDefault(req.CharacterRules)
	if err != nil {
		return config.Config{}, err
	}
	return config.Config{
		MinLength:                   req.MinLength,
		MaxLength:                   req.MaxLength,
		CharacterRules:              parsed,
		MinCharacteristics:          req.MinCharacteristics,
		MaxRepeatingCharacters:      req.MaxRepeatingCharacters,
		DictionarySources:           req.DictionarySources,
		DictionaryCaseSensitive:     req.DictionaryCaseSensitive,
		GoodStrength:                req.GoodStrength,
		ExpirationDays:              req.ExpirationDays,
		ExpirationGraceLength:       req.ExpirationGraceLength,
		ExpirationOverridesStrength: req.ExpirationOverridesStrength,
	}, nil
}

func policyResponse(cfg config.Config) *models.PolicyResponse {
	return &models.PolicyResponse{
		MinLength:                   cfg.MinLength,
		MaxLength:                   cfg.MaxLength,
		CharacterRules:              cfg.CharacterRules,
		MinCharacteristics:          cfg.MinCharacteristics,
		MaxRepeatingCharacters:      cfg.MaxRepeatingCharacters,
		DictionarySources:           cfg.DictionarySources,
		DictionaryCaseSensitive:     cfg.DictionaryCaseSensitive,
		GoodStrength:                cfg.GoodStrength,
		ExpirationDays:              cfg.ExpirationDays,
		ExpirationGraceLength:       cfg.ExpirationGraceLength,
		ExpirationOverridesStrength: cfg.ExpirationOverridesStrength,
	}
}

func joinKinds(kinds []models.ErrorKind) string {
	parts := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		parts = append(parts, string(kind))
	}
	return strings.Join(parts, ",")
}

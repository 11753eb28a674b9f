package personalization

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/persona/internal/action"
	"github.com/fyrsmithlabs/persona/internal/bandit"
	"github.com/fyrsmithlabs/persona/internal/config"
	"github.com/fyrsmithlabs/persona/internal/interaction"
	"github.com/fyrsmithlabs/persona/internal/logging"
	"github.com/fyrsmithlabs/persona/internal/meta"
	"github.com/fyrsmithlabs/persona/internal/pattern"
	"github.com/fyrsmithlabs/persona/internal/peers"
	"github.com/fyrsmithlabs/persona/internal/preference"
	"github.com/fyrsmithlabs/persona/internal/satisfaction"
)

const instrumentationName = "github.com/fyrsmithlabs/persona/internal/personalization"

// peerLookupLimit caps how many similar users are pulled from the
// profile index when the caller does not supply peers.
const peerLookupLimit = 5

var (
	// ErrNilHistory indicates a missing user history argument.
	ErrNilHistory = errors.New("user history cannot be nil")
	// ErrEmptyUserID indicates a missing user identifier.
	ErrEmptyUserID = errors.New("user ID cannot be empty")
	// ErrEmptyActionID indicates a missing action identifier.
	ErrEmptyActionID = errors.New("action ID cannot be empty")
	// ErrInvalidReward indicates a reward outside [0, 1].
	ErrInvalidReward = errors.New("reward must be between 0.0 and 1.0")
	// ErrNilStrategy indicates a missing strategy argument.
	ErrNilStrategy = errors.New("strategy cannot be nil")
)

// Service coordinates the personalization components for all users.
type Service struct {
	cfg    *config.Config
	logger *zap.Logger
	tracer trace.Tracer

	learner    *preference.Learner
	detector   *pattern.Detector
	cache      *pattern.Cache
	actions    *action.Predictor
	trajectory *satisfaction.Predictor
	adapter    *meta.Adapter
	peerIndex  *peers.Index

	// mu guards the per-user maps. Per-user operations additionally
	// hold the user's own lock so same-user read-modify-write cycles
	// never interleave.
	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
	bandits   map[string]*bandit.Optimizer
	models    map[string]*preference.Model
	profiles  map[string]*meta.Profile
}

// NewService creates the coordinator from config.
func NewService(cfg *config.Config, logger *zap.Logger) (*Service, error) {
	if cfg == nil {
		cfg = config.NewDefault()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	index, err := peers.NewIndex(logger)
	if err != nil {
		return nil, fmt.Errorf("creating peer index: %w", err)
	}

	return &Service{
		cfg:        cfg,
		logger:     logger,
		tracer:     otel.Tracer(instrumentationName),
		learner:    preference.NewLearner(cfg.Preference.EmbeddingDim, logger),
		detector:   pattern.NewDetector(cfg.Pattern.MinOccurrences, logger),
		cache:      pattern.NewCache(cfg.Pattern.CacheFreshness),
		actions:    action.NewPredictor(logger),
		trajectory: satisfaction.NewPredictor(logger),
		adapter:    meta.NewAdapter(cfg.Meta.SimilarityThreshold, logger),
		peerIndex:  index,
		userLocks:  make(map[string]*sync.Mutex),
		bandits:    make(map[string]*bandit.Optimizer),
		models:     make(map[string]*preference.Model),
		profiles:   make(map[string]*meta.Profile),
	}, nil
}

// LearnPreferences rebuilds the user's preference model from their
// interaction history and refreshes their profile in the peer index.
func (s *Service) LearnPreferences(ctx context.Context, history *interaction.UserHistory) (*preference.Model, error) {
	const op = "learn_preferences"
	start := time.Now()
	if history == nil {
		return nil, s.fail(op, ErrNilHistory)
	}

	ctx, span := s.tracer.Start(ctx, "personalization.LearnPreferences",
		trace.WithAttributes(
			attribute.String("user_id", logging.HashUserID(history.UserID)),
			attribute.Int("interactions", history.Len()),
		))
	defer span.End()

	lock := s.userLock(history.UserID)
	lock.Lock()
	defer lock.Unlock()

	model := s.learner.Learn(history.Interactions)
	vector := meta.BuildProfileVector(model, history)

	s.mu.Lock()
	s.models[history.UserID] = model
	prof, ok := s.profiles[history.UserID]
	if !ok {
		prof = &meta.Profile{UserID: history.UserID}
		s.profiles[history.UserID] = prof
	}
	prof.Vector = vector
	trackedUsers.Set(float64(len(s.profiles)))
	s.mu.Unlock()

	if err := s.peerIndex.Upsert(ctx, history.UserID, vector); err != nil {
		// The model is still usable; peer lookups just miss this user.
		s.logger.Warn("profile index update failed",
			logging.UserID("user_id", history.UserID), zap.Error(err))
	}

	s.logger.Info("preferences learned",
		logging.UserID("user_id", history.UserID),
		zap.Int("interactions", history.Len()))
	s.observe(op, start)
	return model, nil
}

// Model returns the most recently learned model for the user, or nil.
func (s *Service) Model(userID string) *preference.Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.models[userID]
}

// DetectPatterns returns the user's behavioral patterns, served from
// the cache while fresh. forceRefresh bypasses the cache and
// recomputes.
func (s *Service) DetectPatterns(ctx context.Context, history *interaction.UserHistory, forceRefresh bool) ([]*pattern.Pattern, error) {
	const op = "detect_patterns"
	start := time.Now()
	if history == nil {
		return nil, s.fail(op, ErrNilHistory)
	}

	_, span := s.tracer.Start(ctx, "personalization.DetectPatterns",
		trace.WithAttributes(
			attribute.String("user_id", logging.HashUserID(history.UserID)),
			attribute.Bool("force_refresh", forceRefresh),
		))
	defer span.End()

	lock := s.userLock(history.UserID)
	lock.Lock()
	defer lock.Unlock()

	patterns := s.detectLocked(history, forceRefresh)
	span.SetAttributes(attribute.Int("patterns", len(patterns)))
	s.observe(op, start)
	return patterns, nil
}

// detectLocked runs the cache-or-detect cycle. Caller holds the user
// lock.
func (s *Service) detectLocked(history *interaction.UserHistory, forceRefresh bool) []*pattern.Pattern {
	if forceRefresh {
		patternCacheLookups.WithLabelValues("bypass").Inc()
	} else if cached, fresh := s.cache.Get(history.UserID); fresh {
		patternCacheLookups.WithLabelValues("hit").Inc()
		return cached
	} else {
		patternCacheLookups.WithLabelValues("miss").Inc()
	}

	patterns := s.detector.Detect(history)
	s.cache.Put(history.UserID, patterns)
	s.logger.Debug("patterns detected",
		logging.UserID("user_id", history.UserID),
		zap.Int("count", len(patterns)))
	return patterns
}

// PredictNextAction predicts the user's most likely next action from
// their patterns and current context.
func (s *Service) PredictNextAction(ctx context.Context, values map[string]float64, labels map[string]string, history *interaction.UserHistory) (*action.Prediction, error) {
	const op = "predict_next_action"
	start := time.Now()
	if history == nil {
		return nil, s.fail(op, ErrNilHistory)
	}

	_, span := s.tracer.Start(ctx, "personalization.PredictNextAction",
		trace.WithAttributes(attribute.String("user_id", logging.HashUserID(history.UserID))))
	defer span.End()

	lock := s.userLock(history.UserID)
	lock.Lock()
	defer lock.Unlock()

	derived := DeriveContext(values, time.Now())
	patterns := s.detectLocked(history, false)
	pred := s.actions.Predict(derived, labels, patterns, history)

	span.SetAttributes(
		attribute.String("action", pred.ActionType),
		attribute.Float64("probability", pred.Probability),
	)
	s.observe(op, start)
	return pred, nil
}

// PredictSatisfaction projects the user's satisfaction over the
// horizon. A non-positive horizon falls back to the configured
// default.
func (s *Service) PredictSatisfaction(ctx context.Context, history *interaction.UserHistory, values map[string]float64, horizonMinutes int) (*satisfaction.Trajectory, error) {
	const op = "predict_satisfaction"
	start := time.Now()
	if history == nil {
		return nil, s.fail(op, ErrNilHistory)
	}
	if horizonMinutes <= 0 {
		horizonMinutes = s.cfg.Satisfaction.HorizonMinutes
	}

	_, span := s.tracer.Start(ctx, "personalization.PredictSatisfaction",
		trace.WithAttributes(
			attribute.String("user_id", logging.HashUserID(history.UserID)),
			attribute.Int("horizon_minutes", horizonMinutes),
		))
	defer span.End()

	lock := s.userLock(history.UserID)
	lock.Lock()
	defer lock.Unlock()

	traj := s.trajectory.PredictTrajectory(history, values, horizonMinutes)
	s.observe(op, start)
	return traj, nil
}

// SelectAction picks one of the candidate actions for the user via
// their contextual bandit.
func (s *Service) SelectAction(ctx context.Context, userID string, values map[string]float64, candidates []string) (*bandit.Selection, error) {
	const op = "select_action"
	start := time.Now()
	if userID == "" {
		return nil, s.fail(op, ErrEmptyUserID)
	}

	_, span := s.tracer.Start(ctx, "personalization.SelectAction",
		trace.WithAttributes(
			attribute.String("user_id", logging.HashUserID(userID)),
			attribute.Int("candidates", len(candidates)),
		))
	defer span.End()

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	sel, err := s.optimizer(userID).Select(values, candidates)
	if err != nil {
		return nil, s.fail(op, fmt.Errorf("selecting action: %w", err))
	}

	span.SetAttributes(attribute.String("action", sel.ActionID))
	s.observe(op, start)
	return sel, nil
}

// RecordReward feeds an observed reward back into the user's bandit.
func (s *Service) RecordReward(ctx context.Context, userID, actionID string, values map[string]float64, reward float64) error {
	const op = "record_reward"
	start := time.Now()
	if userID == "" {
		return s.fail(op, ErrEmptyUserID)
	}
	if actionID == "" {
		return s.fail(op, ErrEmptyActionID)
	}
	if reward < 0 || reward > 1 || math.IsNaN(reward) {
		return s.fail(op, fmt.Errorf("%w, got %v", ErrInvalidReward, reward))
	}

	_, span := s.tracer.Start(ctx, "personalization.RecordReward",
		trace.WithAttributes(
			attribute.String("user_id", logging.HashUserID(userID)),
			attribute.String("action", actionID),
			attribute.Float64("reward", reward),
		))
	defer span.End()

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	s.optimizer(userID).Update(actionID, values, reward)
	s.observe(op, start)
	return nil
}

// AdaptFromPeers derives an adaptation strategy for the target user
// from similar users. When peerProfiles is nil the peer index supplies
// the most similar known users; an empty non-nil slice means the
// caller found none, which yields the conservative strategy.
func (s *Service) AdaptFromPeers(ctx context.Context, target meta.Profile, peerProfiles []meta.Profile) (*meta.Strategy, error) {
	const op = "adapt_from_peers"
	start := time.Now()
	if target.UserID == "" {
		return nil, s.fail(op, ErrEmptyUserID)
	}

	ctx, span := s.tracer.Start(ctx, "personalization.AdaptFromPeers",
		trace.WithAttributes(attribute.String("user_id", logging.HashUserID(target.UserID))))
	defer span.End()

	lock := s.userLock(target.UserID)
	lock.Lock()
	defer lock.Unlock()

	if peerProfiles == nil {
		peerProfiles = s.lookupPeers(ctx, target.UserID)
	}

	strategy := s.adapter.Adapt(target, peerProfiles)
	span.SetAttributes(
		attribute.String("strategy", string(strategy.Type)),
		attribute.Int("peers", len(peerProfiles)),
	)
	s.logger.Info("adaptation strategy selected",
		logging.UserID("user_id", target.UserID),
		zap.String("strategy", string(strategy.Type)),
		zap.Int("peers", len(peerProfiles)))
	s.observe(op, start)
	return strategy, nil
}

// lookupPeers resolves similar users from the index into full
// profiles. Users without a stored profile are skipped.
func (s *Service) lookupPeers(ctx context.Context, userID string) []meta.Profile {
	found, err := s.peerIndex.Similar(ctx, userID, peerLookupLimit)
	if err != nil {
		s.logger.Warn("peer lookup failed",
			logging.UserID("user_id", userID), zap.Error(err))
		return []meta.Profile{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	profiles := make([]meta.Profile, 0, len(found))
	for _, p := range found {
		if prof, ok := s.profiles[p.UserID]; ok {
			profiles = append(profiles, *prof)
		}
	}
	return profiles
}

// RecordAdaptationOutcome records how an applied strategy worked out,
// feeding both the adapter's history and the user's peer profile.
func (s *Service) RecordAdaptationOutcome(ctx context.Context, userID string, strategy *meta.Strategy, outcome meta.Outcome) error {
	const op = "record_adaptation_outcome"
	start := time.Now()
	if userID == "" {
		return s.fail(op, ErrEmptyUserID)
	}
	if strategy == nil {
		return s.fail(op, ErrNilStrategy)
	}

	_, span := s.tracer.Start(ctx, "personalization.RecordAdaptationOutcome",
		trace.WithAttributes(
			attribute.String("user_id", logging.HashUserID(userID)),
			attribute.String("strategy", string(strategy.Type)),
			attribute.Bool("success", outcome.Success),
		))
	defer span.End()

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if outcome.Type == "" {
		outcome.Type = strategy.Type
	}
	if outcome.ObservedAt.IsZero() {
		outcome.ObservedAt = time.Now()
	}
	s.adapter.RecordOutcome(userID, outcome)

	success := 0.0
	if outcome.Success {
		success = 1.0
	}
	record := meta.AdaptationRecord{
		Type:        strategy.Type,
		Parameters:  strategy.Parameters,
		Success:     success,
		Improvement: clamp01(outcome.Improvement),
	}

	s.mu.Lock()
	prof, ok := s.profiles[userID]
	if !ok {
		prof = &meta.Profile{UserID: userID}
		s.profiles[userID] = prof
		trackedUsers.Set(float64(len(s.profiles)))
	}
	prof.Adaptations = append(prof.Adaptations, record)
	s.mu.Unlock()

	s.observe(op, start)
	return nil
}

// DeriveContext copies the context map and fills in hour_of_day and
// day_of_week when absent, so cyclical pattern conditions can match
// live contexts that only carry time_of_day.
func DeriveContext(values map[string]float64, now time.Time) map[string]float64 {
	out := make(map[string]float64, len(values)+2)
	for k, v := range values {
		out[k] = v
	}
	if _, ok := out[interaction.KeyHourOfDay]; !ok {
		if tod, ok := out[interaction.KeyTimeOfDay]; ok {
			out[interaction.KeyHourOfDay] = math.Floor(tod)
		} else {
			out[interaction.KeyHourOfDay] = float64(now.Hour())
		}
	}
	if _, ok := out[interaction.KeyDayOfWeek]; !ok {
		out[interaction.KeyDayOfWeek] = float64(now.Weekday())
	}
	return out
}

// userLock returns the lock serializing operations for one user.
func (s *Service) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.userLocks[userID] = lock
	}
	return lock
}

// optimizer returns the user's bandit, creating it on first use.
// Caller holds the user lock.
func (s *Service) optimizer(userID string) *bandit.Optimizer {
	s.mu.Lock()
	defer s.mu.Unlock()
	opt, ok := s.bandits[userID]
	if !ok {
		opt = bandit.NewOptimizer(s.cfg.Bandit.ExplorationRate, s.logger)
		s.bandits[userID] = opt
	}
	return opt
}

func (s *Service) observe(op string, start time.Time) {
	operationsTotal.WithLabelValues(op, "success").Inc()
	operationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (s *Service) fail(op string, err error) error {
	operationsTotal.WithLabelValues(op, "error").Inc()
	return err
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

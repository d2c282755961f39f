package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/modu-camp/quizdeck-api/internal/dto"
	"github.com/modu-camp/quizdeck-api/internal/models"
	"github.com/modu-camp/quizdeck-api/internal/observability"
	"github.com/modu-camp/quizdeck-api/internal/quiz"
	"github.com/modu-camp/quizdeck-api/internal/repository"
)

// Deployment lifecycle errors, mapped to HTTP statuses by the handler layer.
var (
	ErrDeploymentNotFound = errors.New("deployment not found")
	ErrCohortNotFound     = errors.New("cohort not found")
	ErrInvalidWindow      = errors.New("close_at must be after open_at")
	ErrInvalidAccessCode  = errors.New("invalid access code")
	ErrDeploymentInactive = errors.New("deployment is deactivated")
	ErrDeploymentNotOpen  = errors.New("deployment is not open yet")
	ErrDeploymentClosed   = errors.New("deployment is closed")
)

const accessCodeAttempts = 3

// DeploymentService exposes deployment lifecycle use cases.
type DeploymentService interface {
	Create(ctx context.Context, payload dto.DeploymentCreateRequest) (dto.DeploymentResponse, error)
	Get(ctx context.Context, id uint) (dto.DeploymentResponse, error)
	ListByQuiz(ctx context.Context, quizID uint) ([]dto.DeploymentResponse, error)
	Toggle(ctx context.Context, id uint) (dto.DeploymentToggleResponse, error)
	Delete(ctx context.Context, id uint) error
	ValidateAccess(ctx context.Context, id uint, code string) (dto.AccessInfoResponse, error)
}

type deploymentService struct {
	deployments     repository.DeploymentRepository
	quizzes         repository.QuizRepository
	cohorts         repository.CohortRepository
	questions       repository.QuestionRepository
	validator       *validator.Validate
	cache           *redis.Client
	cacheTTL        time.Duration
	defaultDuration int
	logger          zerolog.Logger
	tracer          trace.Tracer
	now             func() time.Time
}

// NewDeploymentService constructs the deployment service. The redis client
// may be nil; access lookups then always hit the database.
func NewDeploymentService(
	deployments repository.DeploymentRepository,
	quizzes repository.QuizRepository,
	cohorts repository.CohortRepository,
	questions repository.QuestionRepository,
	validate *validator.Validate,
	cache *redis.Client,
	cacheTTL time.Duration,
	defaultDuration int,
	logger zerolog.Logger,
) DeploymentService {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	if defaultDuration <= 0 {
		defaultDuration = 20
	}

	return &deploymentService{
		deployments:     deployments,
		quizzes:         quizzes,
		cohorts:         cohorts,
		questions:       questions,
		validator:       validate,
		cache:           cache,
		cacheTTL:        cacheTTL,
		defaultDuration: defaultDuration,
		logger:          logger.With().Str("component", "deployment_service").Logger(),
		tracer:          otel.Tracer("github.com/modu-camp/quizdeck-api/internal/service/deployment"),
		now:             time.Now,
	}
}

// Create freezes the quiz's current question set into a snapshot and issues a
// unique access code. Later edits to the question bank never reach the
// snapshot. Deploying a quiz with no questions is allowed; every submission
// then grades 0/0.
func (s *deploymentService) Create(ctx context.Context, payload dto.DeploymentCreateRequest) (dto.DeploymentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "deployment.create")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("quiz.id", int64(payload.QuizID)),
		attribute.Int64("cohort.id", int64(payload.CohortID)),
	)

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.DeploymentResponse{}, err
	}

	openAt, err := time.Parse(time.RFC3339, payload.OpenAt)
	if err != nil {
		return dto.DeploymentResponse{}, fmt.Errorf("invalid open_at: %w", err)
	}
	closeAt, err := time.Parse(time.RFC3339, payload.CloseAt)
	if err != nil {
		return dto.DeploymentResponse{}, fmt.Errorf("invalid close_at: %w", err)
	}
	if !closeAt.After(openAt) {
		return dto.DeploymentResponse{}, ErrInvalidWindow
	}

	if _, err := s.quizzes.GetByID(ctx, payload.QuizID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DeploymentResponse{}, ErrQuizNotFound
		}
		return dto.DeploymentResponse{}, err
	}
	if _, err := s.cohorts.GetByID(ctx, payload.CohortID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DeploymentResponse{}, ErrCohortNotFound
		}
		return dto.DeploymentResponse{}, err
	}

	questions, err := s.questions.ListByQuiz(ctx, payload.QuizID)
	if err != nil {
		return dto.DeploymentResponse{}, err
	}
	snapshot := quiz.BuildSnapshot(questions)

	duration := payload.DurationMinutes
	if duration <= 0 {
		duration = s.defaultDuration
	}

	deployment := models.Deployment{
		QuizID:          payload.QuizID,
		CohortID:        payload.CohortID,
		DurationMinutes: duration,
		OpenAt:          openAt,
		CloseAt:         closeAt,
		Status:          models.DeploymentStatusActivated,
		QuestionCount:   len(snapshot),
	}
	deployment.SetSnapshot(snapshot)

	// The access code column carries a unique index. On the rare collision
	// the insert is retried with a fresh code.
	for attempt := 0; attempt < accessCodeAttempts; attempt++ {
		code, err := quiz.NewAccessCode()
		if err != nil {
			return dto.DeploymentResponse{}, fmt.Errorf("failed to generate access code: %w", err)
		}
		deployment.AccessCode = code

		err = s.deployments.Create(ctx, &deployment)
		if err == nil {
			break
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) && attempt < accessCodeAttempts-1 {
			s.logger.Warn().Int("attempt", attempt+1).Msg("access code collision, retrying")
			continue
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "deployment_create_failed")
		return dto.DeploymentResponse{}, err
	}

	span.SetAttributes(attribute.Int("deployment.question_count", deployment.QuestionCount))
	s.logger.Info().
		Uint("deployment_id", deployment.ID).
		Uint("quiz_id", deployment.QuizID).
		Uint("cohort_id", deployment.CohortID).
		Int("question_count", deployment.QuestionCount).
		Msg("quiz deployed")

	return dto.NewDeploymentResponse(deployment), nil
}

func (s *deploymentService) Get(ctx context.Context, id uint) (dto.DeploymentResponse, error) {
	deployment, err := s.deployments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DeploymentResponse{}, ErrDeploymentNotFound
		}
		return dto.DeploymentResponse{}, err
	}

	return dto.NewDeploymentResponse(deployment), nil
}

func (s *deploymentService) ListByQuiz(ctx context.Context, quizID uint) ([]dto.DeploymentResponse, error) {
	if _, err := s.quizzes.GetByID(ctx, quizID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, err
	}

	deployments, err := s.deployments.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	return dto.NewDeploymentResponseSlice(deployments), nil
}

// Toggle flips a deployment between Activated and Deactivated. Reactivating
// inside the window makes the quiz immediately enterable again; no other
// column changes.
func (s *deploymentService) Toggle(ctx context.Context, id uint) (dto.DeploymentToggleResponse, error) {
	deployment, err := s.deployments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DeploymentToggleResponse{}, ErrDeploymentNotFound
		}
		return dto.DeploymentToggleResponse{}, err
	}

	next := models.DeploymentStatusDeactivated
	if deployment.Status == models.DeploymentStatusDeactivated {
		next = models.DeploymentStatusActivated
	}

	updated, err := s.deployments.UpdateStatus(ctx, id, next)
	if err != nil {
		return dto.DeploymentToggleResponse{}, err
	}

	s.invalidateAccessCache(ctx, id)
	s.logger.Info().Uint("deployment_id", id).Str("status", next).Msg("deployment status toggled")

	return dto.DeploymentToggleResponse{
		ID:        updated.ID,
		Status:    updated.Status,
		UpdatedAt: updated.UpdatedAt,
	}, nil
}

func (s *deploymentService) Delete(ctx context.Context, id uint) error {
	if err := s.deployments.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDeploymentNotFound
		}
		return err
	}

	s.invalidateAccessCache(ctx, id)
	s.logger.Info().Uint("deployment_id", id).Msg("deployment deleted")
	return nil
}

// ValidateAccess checks a student's entry attempt. The checks run in a fixed
// order: code match, then status, then window. A deactivated deployment with
// a correct code reports the deactivation, never a wrong code.
func (s *deploymentService) ValidateAccess(ctx context.Context, id uint, code string) (dto.AccessInfoResponse, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, accessCacheKey(id, code)).Result(); err == nil && cached != "" {
			var info dto.AccessInfoResponse
			if err := json.Unmarshal([]byte(cached), &info); err == nil {
				observability.AccessChecks().WithLabelValues("hit").Inc()
				return info, nil
			}
		}
	}

	deployment, err := s.deployments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AccessInfoResponse{}, ErrDeploymentNotFound
		}
		return dto.AccessInfoResponse{}, err
	}

	if deployment.AccessCode != code {
		observability.AccessChecks().WithLabelValues("denied").Inc()
		return dto.AccessInfoResponse{}, ErrInvalidAccessCode
	}
	if deployment.Status == models.DeploymentStatusDeactivated {
		observability.AccessChecks().WithLabelValues("denied").Inc()
		return dto.AccessInfoResponse{}, ErrDeploymentInactive
	}
	reference := s.now()
	if reference.Before(deployment.OpenAt) {
		observability.AccessChecks().WithLabelValues("denied").Inc()
		return dto.AccessInfoResponse{}, ErrDeploymentNotOpen
	}
	if reference.After(deployment.CloseAt) {
		observability.AccessChecks().WithLabelValues("denied").Inc()
		return dto.AccessInfoResponse{}, ErrDeploymentClosed
	}

	quizRow, err := s.quizzes.GetByID(ctx, deployment.QuizID)
	if err != nil {
		return dto.AccessInfoResponse{}, err
	}

	info := dto.AccessInfoResponse{
		DeploymentID:    deployment.ID,
		QuizTitle:       quizRow.Title,
		DurationMinutes: deployment.DurationMinutes,
		QuestionCount:   deployment.QuestionCount,
	}

	if s.cache != nil {
		// The cached grant must not outlive the window; the TTL is capped at
		// close_at so a hit never bypasses the closing check.
		ttl := s.cacheTTL
		if remaining := deployment.CloseAt.Sub(reference); remaining < ttl {
			ttl = remaining
		}
		if ttl > 0 {
			if payload, err := json.Marshal(info); err == nil {
				if err := s.cache.Set(ctx, accessCacheKey(id, code), payload, ttl).Err(); err != nil {
					s.logger.Warn().Err(err).Msg("failed to cache access info")
				}
			}
		}
	}

	observability.AccessChecks().WithLabelValues("granted").Inc()
	return info, nil
}

func (s *deploymentService) invalidateAccessCache(ctx context.Context, id uint) {
	if s.cache == nil {
		return
	}

	pattern := fmt.Sprintf("deployments:access:v1:%d:*", id)
	iter := s.cache.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := s.cache.Del(ctx, iter.Val()).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to invalidate access cache")
		}
	}
	if err := iter.Err(); err != nil {
		s.logger.Warn().Err(err).Msg("access cache scan failed")
	}
}

func accessCacheKey(id uint, code string) string {
	return fmt.Sprintf("deployments:access:v1:%d:%s", id, code)
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
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

// Submission errors, mapped to HTTP statuses by the handler layer.
var (
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrAlreadySubmitted   = errors.New("submission already exists for this deployment")
)

// SubmissionService grades and stores student submissions.
type SubmissionService interface {
	Submit(ctx context.Context, deploymentID, studentID uint, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error)
	Result(ctx context.Context, id uint) (dto.SubmissionResultResponse, error)
	ResultForStudent(ctx context.Context, deploymentID, studentID uint) (dto.SubmissionResultResponse, error)
	ListByDeployment(ctx context.Context, deploymentID uint) ([]dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	deployments repository.DeploymentRepository
	validator   *validator.Validate
	nats        *nats.Conn
	natsSubject string
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// gradedEvent is the payload published after a submission is graded.
type gradedEvent struct {
	SubmissionID uint      `json:"submission_id"`
	DeploymentID uint      `json:"deployment_id"`
	StudentID    uint      `json:"student_id"`
	Score        int       `json:"score"`
	CorrectCount int       `json:"correct_count"`
	GradedAt     time.Time `json:"graded_at"`
}

// NewSubmissionService constructs the submission service. The NATS
// connection may be nil; graded events are then skipped.
func NewSubmissionService(
	submissions repository.SubmissionRepository,
	deployments repository.DeploymentRepository,
	validate *validator.Validate,
	natsConn *nats.Conn,
	natsSubject string,
	logger zerolog.Logger,
) SubmissionService {
	if natsSubject == "" {
		natsSubject = "quizdeck.submission.graded"
	}

	return &submissionService{
		submissions: submissions,
		deployments: deployments,
		validator:   validate,
		nats:        natsConn,
		natsSubject: natsSubject,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer("github.com/modu-camp/quizdeck-api/internal/service/submission"),
		now:         time.Now,
	}
}

// Submit grades the student's answers against the deployment's frozen
// snapshot and persists the result. Each student submits at most once per
// deployment; the unique index backs the same rule at the database level, so
// a concurrent double submit also surfaces as a conflict.
func (s *submissionService) Submit(ctx context.Context, deploymentID, studentID uint, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.submit")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("deployment.id", int64(deploymentID)),
		attribute.Int64("student.id", int64(studentID)),
	)

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	deployment, err := s.deployments.GetByID(ctx, deploymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrDeploymentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if deployment.Status == models.DeploymentStatusDeactivated {
		return dto.SubmissionResponse{}, ErrDeploymentInactive
	}
	reference := s.now()
	if reference.Before(deployment.OpenAt) {
		return dto.SubmissionResponse{}, ErrDeploymentNotOpen
	}
	if reference.After(deployment.CloseAt) {
		return dto.SubmissionResponse{}, ErrDeploymentClosed
	}

	if _, err := s.submissions.GetByDeploymentAndStudent(ctx, deploymentID, studentID); err == nil {
		return dto.SubmissionResponse{}, ErrAlreadySubmitted
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SubmissionResponse{}, err
	}

	startedAt, err := time.Parse(time.RFC3339, payload.StartedAt)
	if err != nil {
		return dto.SubmissionResponse{}, fmt.Errorf("invalid started_at: %w", err)
	}

	snapshot := deployment.SnapshotList()
	answers := quiz.NormalizeSubmitted(snapshot, payload.Answers)

	gradeStart := time.Now()
	result := quiz.Grade(snapshot, answers)
	observability.GradingLatency().Observe(time.Since(gradeStart).Seconds())

	submission := models.Submission{
		DeploymentID:  deploymentID,
		StudentID:     studentID,
		StartedAt:     startedAt,
		CheatingCount: payload.CheatingCount,
		Score:         result.Score,
		CorrectCount:  result.CorrectCount,
	}
	submission.SetAnswers(answers)

	if err := s.submissions.Create(ctx, &submission); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.SubmissionResponse{}, ErrAlreadySubmitted
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_create_failed")
		return dto.SubmissionResponse{}, err
	}

	observability.SubmissionsGraded().Inc()
	span.SetAttributes(
		attribute.Int("submission.score", result.Score),
		attribute.Int("submission.correct_count", result.CorrectCount),
	)
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("deployment_id", deploymentID).
		Uint("student_id", studentID).
		Int("score", result.Score).
		Int("correct_count", result.CorrectCount).
		Msg("submission graded")

	s.publishGraded(submission)

	return dto.NewSubmissionResponse(submission, len(snapshot)), nil
}

func (s *submissionService) Result(ctx context.Context, id uint) (dto.SubmissionResultResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResultResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResultResponse{}, err
	}

	return s.buildResult(ctx, submission)
}

func (s *submissionService) ResultForStudent(ctx context.Context, deploymentID, studentID uint) (dto.SubmissionResultResponse, error) {
	submission, err := s.submissions.GetByDeploymentAndStudent(ctx, deploymentID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResultResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResultResponse{}, err
	}

	return s.buildResult(ctx, submission)
}

func (s *submissionService) ListByDeployment(ctx context.Context, deploymentID uint) ([]dto.SubmissionResponse, error) {
	deployment, err := s.deployments.GetByID(ctx, deploymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeploymentNotFound
		}
		return nil, err
	}

	submissions, err := s.submissions.ListByDeployment(ctx, deploymentID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, dto.NewSubmissionResponse(submission, deployment.QuestionCount))
	}

	return responses, nil
}

// buildResult re-walks the frozen snapshot against the stored answers. The
// breakdown is always reconstructable because the snapshot lives on the
// deployment row, independent of the live question bank.
func (s *submissionService) buildResult(ctx context.Context, submission models.Submission) (dto.SubmissionResultResponse, error) {
	deployment, err := s.deployments.GetByID(ctx, submission.DeploymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResultResponse{}, ErrDeploymentNotFound
		}
		return dto.SubmissionResultResponse{}, err
	}

	result := quiz.Grade(deployment.SnapshotList(), submission.AnswerMap())

	return dto.NewSubmissionResultResponse(submission, result), nil
}

func (s *submissionService) publishGraded(submission models.Submission) {
	if s.nats == nil {
		return
	}

	event := gradedEvent{
		SubmissionID: submission.ID,
		DeploymentID: submission.DeploymentID,
		StudentID:    submission.StudentID,
		Score:        submission.Score,
		CorrectCount: submission.CorrectCount,
		GradedAt:     s.now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode graded event")
		return
	}
	if err := s.nats.Publish(s.natsSubject, payload); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish graded event")
	}
}

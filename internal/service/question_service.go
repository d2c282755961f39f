package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/gabriel-vasile/mimetype"

	"github.com/modu-camp/quizdeck-api/internal/dto"
	"github.com/modu-camp/quizdeck-api/internal/models"
	"github.com/modu-camp/quizdeck-api/internal/quiz"
	"github.com/modu-camp/quizdeck-api/internal/repository"
)

// ErrQuizNotFound indicates the referenced quiz does not exist.
var ErrQuizNotFound = errors.New("quiz not found")

// ErrQuestionNotFound indicates the requested question does not exist.
var ErrQuestionNotFound = errors.New("question not found")

// ErrUnsupportedImageType indicates an attached file is not an image.
var ErrUnsupportedImageType = errors.New("attachment must be an image")

// FileUploader abstracts uploading binary data and returning a URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// QuestionService exposes question bank use cases.
type QuestionService interface {
	List(ctx context.Context, quizID uint) ([]dto.QuestionResponse, error)
	Get(ctx context.Context, id uint) (dto.QuestionResponse, error)
	Create(ctx context.Context, quizID uint, payload dto.QuestionCreateRequest) (dto.QuestionResponse, error)
	BulkReplace(ctx context.Context, quizID uint, payload dto.QuestionBulkReplaceRequest) ([]dto.QuestionResponse, error)
	Update(ctx context.Context, id uint, payload dto.QuestionUpdateRequest) (dto.QuestionResponse, error)
	Delete(ctx context.Context, id uint) error
	AttachImage(ctx context.Context, id uint, file *multipart.FileHeader) (dto.QuestionResponse, error)
}

type questionService struct {
	questions repository.QuestionRepository
	quizzes   repository.QuizRepository
	validator *validator.Validate
	uploader  FileUploader
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewQuestionService builds a new question service.
func NewQuestionService(questions repository.QuestionRepository, quizzes repository.QuizRepository, validate *validator.Validate, uploader FileUploader, logger zerolog.Logger) QuestionService {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("p", "strong", "em", "code", "pre", "ul", "ol", "li", "br")

	return &questionService{
		questions: questions,
		quizzes:   quizzes,
		validator: validate,
		uploader:  uploader,
		sanitizer: policy,
		logger:    logger.With().Str("component", "question_service").Logger(),
	}
}

func (s *questionService) List(ctx context.Context, quizID uint) ([]dto.QuestionResponse, error) {
	if _, err := s.quizzes.GetByID(ctx, quizID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, err
	}

	questions, err := s.questions.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	return dto.NewQuestionResponseSlice(questions), nil
}

func (s *questionService) Get(ctx context.Context, id uint) (dto.QuestionResponse, error) {
	question, err := s.questions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuestionResponse{}, ErrQuestionNotFound
		}
		return dto.QuestionResponse{}, err
	}

	return dto.NewQuestionResponse(question), nil
}

func (s *questionService) Create(ctx context.Context, quizID uint, payload dto.QuestionCreateRequest) (dto.QuestionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionResponse{}, err
	}

	if _, err := s.quizzes.GetByID(ctx, quizID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuestionResponse{}, ErrQuizNotFound
		}
		return dto.QuestionResponse{}, err
	}

	question := s.buildQuestion(quizID, payload)
	if err := quiz.Normalize(&question); err != nil {
		return dto.QuestionResponse{}, err
	}

	existing, err := s.questions.ListByQuiz(ctx, quizID)
	if err != nil {
		return dto.QuestionResponse{}, err
	}
	if err := quiz.ValidateSet(append(existing, question)); err != nil {
		return dto.QuestionResponse{}, err
	}

	if err := s.questions.Create(ctx, &question); err != nil {
		return dto.QuestionResponse{}, err
	}

	s.logger.Info().Uint("question_id", question.ID).Uint("quiz_id", quizID).Str("type", question.Type).Msg("question created")

	return dto.NewQuestionResponse(question), nil
}

// BulkReplace validates every incoming question first, accumulating errors
// across the whole payload, and only then swaps the quiz's question set in a
// single transaction. A concurrent reader never observes a partial set.
func (s *questionService) BulkReplace(ctx context.Context, quizID uint, payload dto.QuestionBulkReplaceRequest) ([]dto.QuestionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, err
	}

	if _, err := s.quizzes.GetByID(ctx, quizID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, err
	}

	questions := make([]models.Question, 0, len(payload.Questions))
	var batch quiz.BatchError
	for i, item := range payload.Questions {
		question := s.buildQuestion(quizID, item)
		if err := quiz.Normalize(&question); err != nil {
			if validation, ok := quiz.AsValidationError(err); ok {
				batch.Questions = append(batch.Questions, quiz.QuestionError{Index: i, Fields: validation.Fields})
				continue
			}
			return nil, err
		}
		questions = append(questions, question)
	}

	if len(batch.Questions) > 0 {
		return nil, &batch
	}

	if err := quiz.ValidateSet(questions); err != nil {
		return nil, err
	}

	if err := s.questions.ReplaceForQuiz(ctx, quizID, questions); err != nil {
		return nil, err
	}

	s.logger.Info().Uint("quiz_id", quizID).Int("count", len(questions)).Msg("question set replaced")

	return dto.NewQuestionResponseSlice(questions), nil
}

func (s *questionService) Update(ctx context.Context, id uint, payload dto.QuestionUpdateRequest) (dto.QuestionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionResponse{}, err
	}

	question, err := s.questions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuestionResponse{}, ErrQuestionNotFound
		}
		return dto.QuestionResponse{}, err
	}

	if payload.Question != nil {
		question.Text = s.sanitizer.Sanitize(*payload.Question)
	}
	if payload.Prompt != nil {
		prompt := s.sanitizer.Sanitize(*payload.Prompt)
		question.Prompt = &prompt
	}
	if payload.BlankCount != nil {
		question.BlankCount = payload.BlankCount
	}
	if payload.Options != nil {
		question.SetOptions(payload.Options)
	}
	if payload.Answer != nil {
		question.SetAnswer(payload.Answer)
	}
	if payload.Point != nil {
		question.Point = *payload.Point
	}
	if payload.Explanation != nil {
		question.Explanation = s.sanitizer.Sanitize(*payload.Explanation)
	}

	if err := quiz.Normalize(&question); err != nil {
		return dto.QuestionResponse{}, err
	}

	siblings, err := s.questions.ListByQuiz(ctx, question.QuizID)
	if err != nil {
		return dto.QuestionResponse{}, err
	}
	for i := range siblings {
		if siblings[i].ID == question.ID {
			siblings[i] = question
		}
	}
	if err := quiz.ValidateSet(siblings); err != nil {
		return dto.QuestionResponse{}, err
	}

	if err := s.questions.Update(ctx, &question); err != nil {
		return dto.QuestionResponse{}, err
	}

	s.logger.Info().Uint("question_id", question.ID).Msg("question updated")

	return dto.NewQuestionResponse(question), nil
}

func (s *questionService) Delete(ctx context.Context, id uint) error {
	if err := s.questions.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuestionNotFound
		}
		return err
	}

	s.logger.Info().Uint("question_id", id).Msg("question deleted")
	return nil
}

// AttachImage uploads an image for an existing question and stores the
// resulting URL. The file content type is sniffed, not trusted from headers.
func (s *questionService) AttachImage(ctx context.Context, id uint, file *multipart.FileHeader) (dto.QuestionResponse, error) {
	if s.uploader == nil {
		return dto.QuestionResponse{}, errors.New("image uploads are not configured")
	}

	question, err := s.questions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuestionResponse{}, ErrQuestionNotFound
		}
		return dto.QuestionResponse{}, err
	}

	src, err := file.Open()
	if err != nil {
		return dto.QuestionResponse{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	buf := &bytes.Buffer{}
	if _, err := io.Copy(buf, src); err != nil {
		return dto.QuestionResponse{}, fmt.Errorf("failed to read file: %w", err)
	}

	mime := mimetype.Detect(buf.Bytes())
	if !strings.HasPrefix(mime.String(), "image/") {
		return dto.QuestionResponse{}, ErrUnsupportedImageType
	}

	url, err := s.uploader.Upload(ctx, file.Filename, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return dto.QuestionResponse{}, fmt.Errorf("failed to upload image: %w", err)
	}

	question.ImageURL = url
	if err := s.questions.Update(ctx, &question); err != nil {
		return dto.QuestionResponse{}, err
	}

	s.logger.Info().Uint("question_id", question.ID).Str("mime", mime.String()).Msg("question image attached")

	return dto.NewQuestionResponse(question), nil
}

func (s *questionService) buildQuestion(quizID uint, payload dto.QuestionCreateRequest) models.Question {
	question := models.Question{
		QuizID:      quizID,
		Type:        payload.Type,
		Text:        s.sanitizer.Sanitize(payload.Question),
		BlankCount:  payload.BlankCount,
		Point:       payload.Point,
		Explanation: s.sanitizer.Sanitize(payload.Explanation),
	}
	if payload.Prompt != nil {
		prompt := s.sanitizer.Sanitize(*payload.Prompt)
		question.Prompt = &prompt
	}
	question.SetOptions(payload.Options)
	question.SetAnswer(payload.Answer)
	return question
}

package service

import (
	"context"
	"sort"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/modu-camp/quizdeck-api/internal/dto"
	"github.com/modu-camp/quizdeck-api/internal/models"
	"github.com/modu-camp/quizdeck-api/internal/quiz"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

type quizRepoStub struct {
	quizzes map[uint]models.Quiz
}

func newQuizRepoStub(quizzes ...models.Quiz) *quizRepoStub {
	stub := &quizRepoStub{quizzes: make(map[uint]models.Quiz)}
	for _, q := range quizzes {
		stub.quizzes[q.ID] = q
	}
	return stub
}

func (s *quizRepoStub) GetByID(_ context.Context, id uint) (models.Quiz, error) {
	if q, ok := s.quizzes[id]; ok {
		return q, nil
	}
	return models.Quiz{}, gorm.ErrRecordNotFound
}

func (s *quizRepoStub) Create(_ context.Context, q *models.Quiz) error {
	s.quizzes[q.ID] = *q
	return nil
}

type questionRepoStub struct {
	questions map[uint]models.Question
	nextID    uint
}

func newQuestionRepoStub() *questionRepoStub {
	return &questionRepoStub{questions: make(map[uint]models.Question), nextID: 1}
}

func (s *questionRepoStub) ListByQuiz(_ context.Context, quizID uint) ([]models.Question, error) {
	var result []models.Question
	for _, q := range s.questions {
		if q.QuizID == quizID {
			result = append(result, q)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *questionRepoStub) GetByID(_ context.Context, id uint) (models.Question, error) {
	if q, ok := s.questions[id]; ok {
		return q, nil
	}
	return models.Question{}, gorm.ErrRecordNotFound
}

func (s *questionRepoStub) Create(_ context.Context, q *models.Question) error {
	q.ID = s.nextID
	s.nextID++
	s.questions[q.ID] = *q
	return nil
}

func (s *questionRepoStub) Update(_ context.Context, q *models.Question) error {
	if _, ok := s.questions[q.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	s.questions[q.ID] = *q
	return nil
}

func (s *questionRepoStub) Delete(_ context.Context, id uint) error {
	if _, ok := s.questions[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.questions, id)
	return nil
}

func (s *questionRepoStub) ReplaceForQuiz(_ context.Context, quizID uint, questions []models.Question) error {
	for id, q := range s.questions {
		if q.QuizID == quizID {
			delete(s.questions, id)
		}
	}
	for i := range questions {
		questions[i].QuizID = quizID
		questions[i].ID = s.nextID
		s.nextID++
		s.questions[questions[i].ID] = questions[i]
	}
	return nil
}

func newQuestionServiceForTest(t *testing.T) (QuestionService, *questionRepoStub) {
	t.Helper()
	questions := newQuestionRepoStub()
	quizzes := newQuizRepoStub(models.Quiz{ID: 1, Title: "Go Basics"})
	svc := NewQuestionService(questions, quizzes, testValidator(), nil, testLogger())
	return svc, questions
}

func TestQuestionServiceCreateSanitizesAndStores(t *testing.T) {
	svc, _ := newQuestionServiceForTest(t)

	created, err := svc.Create(context.Background(), 1, dto.QuestionCreateRequest{
		Type:     models.QuestionTypeSingleChoice,
		Question: "<script>alert('x')</script><p>What does go.mod declare?</p>",
		Options:  []string{"module path", "binary name"},
		Answer:   []string{"module path"},
		Point:    5,
	})
	require.NoError(t, err)
	require.Equal(t, "<p>What does go.mod declare?</p>", created.Question)
	require.Equal(t, []string{"module path"}, created.Answer)
	require.NotZero(t, created.ID)
}

func TestQuestionServiceCreateUnknownQuiz(t *testing.T) {
	svc, _ := newQuestionServiceForTest(t)

	_, err := svc.Create(context.Background(), 99, dto.QuestionCreateRequest{
		Type:     models.QuestionTypeShortAnswer,
		Question: "What keyword starts a goroutine?",
		Answer:   []string{"go"},
		Point:    3,
	})
	require.ErrorIs(t, err, ErrQuizNotFound)
}

func TestQuestionServiceCreateRejectsInvalidAnswer(t *testing.T) {
	svc, _ := newQuestionServiceForTest(t)

	_, err := svc.Create(context.Background(), 1, dto.QuestionCreateRequest{
		Type:     models.QuestionTypeSingleChoice,
		Question: "Pick one",
		Options:  []string{"a", "b"},
		Answer:   []string{"c"},
		Point:    2,
	})
	require.Error(t, err)
	validation, ok := quiz.AsValidationError(err)
	require.True(t, ok)
	require.NotEmpty(t, validation.Fields)
}

func TestQuestionServiceCreateEnforcesPointBudget(t *testing.T) {
	svc, repo := newQuestionServiceForTest(t)

	for i := 0; i < 10; i++ {
		question := models.Question{QuizID: 1, Type: models.QuestionTypeShortAnswer, Text: "q", Point: 10}
		question.SetAnswer([]string{"a"})
		require.NoError(t, repo.Create(context.Background(), &question))
	}

	_, err := svc.Create(context.Background(), 1, dto.QuestionCreateRequest{
		Type:     models.QuestionTypeShortAnswer,
		Question: "One too many",
		Answer:   []string{"a"},
		Point:    1,
	})
	require.ErrorIs(t, err, quiz.ErrPointLimitExceeded)
}

func TestQuestionServiceBulkReplaceSwapsSet(t *testing.T) {
	svc, repo := newQuestionServiceForTest(t)

	old := models.Question{QuizID: 1, Type: models.QuestionTypeShortAnswer, Text: "old", Point: 1}
	old.SetAnswer([]string{"x"})
	require.NoError(t, repo.Create(context.Background(), &old))

	replaced, err := svc.BulkReplace(context.Background(), 1, dto.QuestionBulkReplaceRequest{
		Questions: []dto.QuestionCreateRequest{
			{
				Type:     models.QuestionTypeTrueFalse,
				Question: "Slices are reference types",
				Answer:   []string{"o"},
				Point:    2,
			},
			{
				Type:     models.QuestionTypeOrdering,
				Question: "Order the steps",
				Options:  []string{"write", "build", "run"},
				Answer:   []string{"write", "build", "run"},
				Point:    3,
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, replaced, 2)
	require.Equal(t, []string{"O"}, replaced[0].Answer)

	remaining, err := repo.ListByQuiz(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
}

func TestQuestionServiceBulkReplaceAggregatesErrors(t *testing.T) {
	svc, _ := newQuestionServiceForTest(t)

	_, err := svc.BulkReplace(context.Background(), 1, dto.QuestionBulkReplaceRequest{
		Questions: []dto.QuestionCreateRequest{
			{
				Type:     models.QuestionTypeSingleChoice,
				Question: "Valid",
				Options:  []string{"a", "b"},
				Answer:   []string{"a"},
				Point:    2,
			},
			{
				Type:     models.QuestionTypeSingleChoice,
				Question: "Broken",
				Options:  []string{"a", "b"},
				Answer:   []string{"z"},
				Point:    2,
			},
			{
				Type:     models.QuestionTypeTrueFalse,
				Question: "Also broken",
				Answer:   []string{"maybe"},
				Point:    2,
			},
		},
	})
	require.Error(t, err)

	var batch *quiz.BatchError
	require.ErrorAs(t, err, &batch)
	require.Len(t, batch.Questions, 2)
	require.Equal(t, 1, batch.Questions[0].Index)
	require.Equal(t, 2, batch.Questions[1].Index)
}

func TestQuestionServiceUpdateRevalidates(t *testing.T) {
	svc, repo := newQuestionServiceForTest(t)

	question := models.Question{QuizID: 1, Type: models.QuestionTypeSingleChoice, Text: "Pick", Point: 2}
	question.SetOptions([]string{"a", "b"})
	question.SetAnswer([]string{"a"})
	require.NoError(t, repo.Create(context.Background(), &question))

	badAnswer := []string{"z"}
	_, err := svc.Update(context.Background(), question.ID, dto.QuestionUpdateRequest{Answer: badAnswer})
	require.Error(t, err)

	newPoint := 4
	updated, err := svc.Update(context.Background(), question.ID, dto.QuestionUpdateRequest{Point: &newPoint})
	require.NoError(t, err)
	require.Equal(t, 4, updated.Point)
}

func TestQuestionServiceDeleteMissing(t *testing.T) {
	svc, _ := newQuestionServiceForTest(t)
	require.ErrorIs(t, svc.Delete(context.Background(), 42), ErrQuestionNotFound)
}

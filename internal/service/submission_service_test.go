package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/modu-camp/quizdeck-api/internal/dto"
	"github.com/modu-camp/quizdeck-api/internal/models"
)

type submissionRepoStub struct {
	submissions map[uint]models.Submission
	nextID      uint
}

func newSubmissionRepoStub() *submissionRepoStub {
	return &submissionRepoStub{submissions: make(map[uint]models.Submission), nextID: 1}
}

func (s *submissionRepoStub) Create(_ context.Context, submission *models.Submission) error {
	for _, existing := range s.submissions {
		if existing.DeploymentID == submission.DeploymentID && existing.StudentID == submission.StudentID {
			return gorm.ErrDuplicatedKey
		}
	}
	submission.ID = s.nextID
	s.nextID++
	s.submissions[submission.ID] = *submission
	return nil
}

func (s *submissionRepoStub) GetByID(_ context.Context, id uint) (models.Submission, error) {
	if sub, ok := s.submissions[id]; ok {
		return sub, nil
	}
	return models.Submission{}, gorm.ErrRecordNotFound
}

func (s *submissionRepoStub) GetByDeploymentAndStudent(_ context.Context, deploymentID, studentID uint) (models.Submission, error) {
	for _, sub := range s.submissions {
		if sub.DeploymentID == deploymentID && sub.StudentID == studentID {
			return sub, nil
		}
	}
	return models.Submission{}, gorm.ErrRecordNotFound
}

func (s *submissionRepoStub) ListByDeployment(_ context.Context, deploymentID uint) ([]models.Submission, error) {
	var result []models.Submission
	for _, sub := range s.submissions {
		if sub.DeploymentID == deploymentID {
			result = append(result, sub)
		}
	}
	return result, nil
}

type submissionFixture struct {
	svc         SubmissionService
	submissions *submissionRepoStub
	deployments *deploymentRepoStub
}

func newSubmissionFixture(t *testing.T, snapshot []models.QuestionSnapshot) (submissionFixture, models.Deployment) {
	t.Helper()
	submissions := newSubmissionRepoStub()
	deployments := newDeploymentRepoStub()

	deployment := models.Deployment{
		QuizID:          1,
		CohortID:        7,
		DurationMinutes: 20,
		AccessCode:      "Abc123",
		OpenAt:          time.Now().Add(-time.Hour),
		CloseAt:         time.Now().Add(time.Hour),
		Status:          models.DeploymentStatusActivated,
		QuestionCount:   len(snapshot),
	}
	deployment.SetSnapshot(snapshot)
	require.NoError(t, deployments.Create(context.Background(), &deployment))

	svc := NewSubmissionService(submissions, deployments, testValidator(), nil, "", testLogger())
	return submissionFixture{svc: svc, submissions: submissions, deployments: deployments}, deployment
}

func submitRequest(answers map[string][]string) dto.SubmissionCreateRequest {
	return dto.SubmissionCreateRequest{
		StartedAt: time.Now().Add(-10 * time.Minute).Format(time.RFC3339),
		Answers:   answers,
	}
}

func testSnapshot() []models.QuestionSnapshot {
	return []models.QuestionSnapshot{
		{QuestionID: 11, Type: models.QuestionTypeTrueFalse, Text: "Maps are ordered", Options: []string{"O", "X"}, Answer: []string{"X"}, Point: 2},
		{QuestionID: 12, Type: models.QuestionTypeSingleChoice, Text: "Pick the keyword", Options: []string{"go", "run"}, Answer: []string{"go"}, Point: 3},
		{QuestionID: 13, Type: models.QuestionTypeOrdering, Text: "Order the steps", Options: []string{"1", "2", "3"}, Answer: []string{"1", "2", "3"}, Point: 5},
	}
}

func TestSubmissionServiceSubmitGrades(t *testing.T) {
	fixture, deployment := newSubmissionFixture(t, testSnapshot())

	// The true/false token is accepted case-insensitively.
	graded, err := fixture.svc.Submit(context.Background(), deployment.ID, 101, submitRequest(map[string][]string{
		"11": {"x"},
		"12": {"go"},
		"13": {"3", "2", "1"},
	}))
	require.NoError(t, err)
	require.Equal(t, 5, graded.Score)
	require.Equal(t, 2, graded.CorrectCount)
	require.Equal(t, 3, graded.QuestionCount)
}

func TestSubmissionServiceSubmitPerfectScore(t *testing.T) {
	fixture, deployment := newSubmissionFixture(t, testSnapshot())

	graded, err := fixture.svc.Submit(context.Background(), deployment.ID, 101, submitRequest(map[string][]string{
		"11": {"X"},
		"12": {"go"},
		"13": {"1", "2", "3"},
	}))
	require.NoError(t, err)
	require.Equal(t, 10, graded.Score)
	require.Equal(t, 3, graded.CorrectCount)
}

func TestSubmissionServiceSubmitIgnoresUnknownIDs(t *testing.T) {
	fixture, deployment := newSubmissionFixture(t, testSnapshot())

	graded, err := fixture.svc.Submit(context.Background(), deployment.ID, 101, submitRequest(map[string][]string{
		"11":  {"X"},
		"999": {"stray"},
	}))
	require.NoError(t, err)
	require.Equal(t, 2, graded.Score)
	require.Equal(t, 1, graded.CorrectCount)
}

func TestSubmissionServiceSubmitEmptyAnswers(t *testing.T) {
	fixture, deployment := newSubmissionFixture(t, testSnapshot())

	graded, err := fixture.svc.Submit(context.Background(), deployment.ID, 101, submitRequest(nil))
	require.NoError(t, err)
	require.Equal(t, 0, graded.Score)
	require.Equal(t, 0, graded.CorrectCount)
}

func TestSubmissionServiceSubmitEmptyDeployment(t *testing.T) {
	fixture, deployment := newSubmissionFixture(t, nil)

	graded, err := fixture.svc.Submit(context.Background(), deployment.ID, 101, submitRequest(map[string][]string{
		"1": {"anything"},
	}))
	require.NoError(t, err)
	require.Equal(t, 0, graded.Score)
	require.Equal(t, 0, graded.QuestionCount)
}

func TestSubmissionServiceSubmitOncePerStudent(t *testing.T) {
	fixture, deployment := newSubmissionFixture(t, testSnapshot())

	_, err := fixture.svc.Submit(context.Background(), deployment.ID, 101, submitRequest(nil))
	require.NoError(t, err)

	_, err = fixture.svc.Submit(context.Background(), deployment.ID, 101, submitRequest(nil))
	require.ErrorIs(t, err, ErrAlreadySubmitted)

	// A different student is unaffected.
	_, err = fixture.svc.Submit(context.Background(), deployment.ID, 102, submitRequest(nil))
	require.NoError(t, err)
}

func TestSubmissionServiceSubmitChecksLifecycle(t *testing.T) {
	fixture, deployment := newSubmissionFixture(t, testSnapshot())

	_, err := fixture.svc.Submit(context.Background(), 999, 101, submitRequest(nil))
	require.ErrorIs(t, err, ErrDeploymentNotFound)

	inner := fixture.svc.(*submissionService)
	inner.now = func() time.Time { return deployment.OpenAt.Add(-time.Minute) }
	_, err = fixture.svc.Submit(context.Background(), deployment.ID, 101, submitRequest(nil))
	require.ErrorIs(t, err, ErrDeploymentNotOpen)

	inner.now = func() time.Time { return deployment.CloseAt.Add(time.Minute) }
	_, err = fixture.svc.Submit(context.Background(), deployment.ID, 101, submitRequest(nil))
	require.ErrorIs(t, err, ErrDeploymentClosed)

	inner.now = time.Now
	_, err = fixture.deployments.UpdateStatus(context.Background(), deployment.ID, models.DeploymentStatusDeactivated)
	require.NoError(t, err)
	_, err = fixture.svc.Submit(context.Background(), deployment.ID, 101, submitRequest(nil))
	require.ErrorIs(t, err, ErrDeploymentInactive)
}

func TestSubmissionServiceResultBreakdown(t *testing.T) {
	fixture, deployment := newSubmissionFixture(t, testSnapshot())

	graded, err := fixture.svc.Submit(context.Background(), deployment.ID, 101, submitRequest(map[string][]string{
		"11": {"o"},
		"13": {"1", "2", "3"},
	}))
	require.NoError(t, err)

	result, err := fixture.svc.Result(context.Background(), graded.ID)
	require.NoError(t, err)
	require.Equal(t, 5, result.Score)
	require.Len(t, result.Questions, 3)

	require.False(t, result.Questions[0].Correct)
	require.Equal(t, []string{"O"}, result.Questions[0].Submitted)
	require.Equal(t, []string{"X"}, result.Questions[0].Answer)

	require.False(t, result.Questions[1].Correct)
	require.Empty(t, result.Questions[1].Submitted)

	require.True(t, result.Questions[2].Correct)
}

func TestSubmissionServiceResultForStudent(t *testing.T) {
	fixture, deployment := newSubmissionFixture(t, testSnapshot())

	_, err := fixture.svc.Submit(context.Background(), deployment.ID, 101, submitRequest(map[string][]string{"12": {"go"}}))
	require.NoError(t, err)

	result, err := fixture.svc.ResultForStudent(context.Background(), deployment.ID, 101)
	require.NoError(t, err)
	require.Equal(t, 3, result.Score)

	_, err = fixture.svc.ResultForStudent(context.Background(), deployment.ID, 999)
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestSubmissionServiceListByDeployment(t *testing.T) {
	fixture, deployment := newSubmissionFixture(t, testSnapshot())

	_, err := fixture.svc.Submit(context.Background(), deployment.ID, 101, submitRequest(nil))
	require.NoError(t, err)
	_, err = fixture.svc.Submit(context.Background(), deployment.ID, 102, submitRequest(nil))
	require.NoError(t, err)

	submissions, err := fixture.svc.ListByDeployment(context.Background(), deployment.ID)
	require.NoError(t, err)
	require.Len(t, submissions, 2)
}

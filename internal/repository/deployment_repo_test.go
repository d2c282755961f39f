package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/modu-camp/quizdeck-api/internal/models"
)

func buildDeployment(quizID, cohortID uint, code string) models.Deployment {
	deployment := models.Deployment{
		QuizID:          quizID,
		CohortID:        cohortID,
		DurationMinutes: 60,
		AccessCode:      code,
		OpenAt:          time.Now().Add(-time.Hour),
		CloseAt:         time.Now().Add(time.Hour),
		Status:          models.DeploymentStatusActivated,
	}
	deployment.SetSnapshot([]models.QuestionSnapshot{
		{QuestionID: 1, Type: models.QuestionTypeTrueFalse, Text: "True?", Options: []string{"O", "X"}, Answer: []string{"O"}, Point: 10},
	})
	deployment.QuestionCount = 1
	return deployment
}

func TestDeploymentRepositorySnapshotRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeploymentRepository(db)

	deployment := buildDeployment(1, 1, "Ab12Cd")
	require.NoError(t, repo.Create(context.Background(), &deployment))

	stored, err := repo.GetByID(context.Background(), deployment.ID)
	require.NoError(t, err)

	snapshot := stored.SnapshotList()
	require.Len(t, snapshot, 1)
	require.Equal(t, uint(1), snapshot[0].QuestionID)
	require.Equal(t, []string{"O"}, snapshot[0].Answer)
	require.Equal(t, 10, snapshot[0].Point)
}

func TestDeploymentRepositoryDuplicateAccessCode(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeploymentRepository(db)

	first := buildDeployment(1, 1, "SAME01")
	require.NoError(t, repo.Create(context.Background(), &first))

	second := buildDeployment(2, 2, "SAME01")
	err := repo.Create(context.Background(), &second)
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestDeploymentRepositoryUpdateStatusTouchesNothingElse(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeploymentRepository(db)

	deployment := buildDeployment(1, 1, "Tg7xQ2")
	require.NoError(t, repo.Create(context.Background(), &deployment))

	updated, err := repo.UpdateStatus(context.Background(), deployment.ID, models.DeploymentStatusDeactivated)
	require.NoError(t, err)
	require.Equal(t, models.DeploymentStatusDeactivated, updated.Status)
	require.Equal(t, deployment.AccessCode, updated.AccessCode)
	require.Len(t, updated.SnapshotList(), 1)
}

func TestDeploymentRepositoryDeleteMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeploymentRepository(db)

	require.ErrorIs(t, repo.Delete(context.Background(), 777), gorm.ErrRecordNotFound)
}

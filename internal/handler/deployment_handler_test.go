package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/modu-camp/quizdeck-api/internal/dto"
	"github.com/modu-camp/quizdeck-api/internal/handler"
	"github.com/modu-camp/quizdeck-api/internal/service"
)

type stubDeploymentService struct {
	deployment dto.DeploymentResponse
	info       dto.AccessInfoResponse
	toggle     dto.DeploymentToggleResponse
	err        error
}

func (s stubDeploymentService) Create(context.Context, dto.DeploymentCreateRequest) (dto.DeploymentResponse, error) {
	return s.deployment, s.err
}

func (s stubDeploymentService) Get(context.Context, uint) (dto.DeploymentResponse, error) {
	return s.deployment, s.err
}

func (s stubDeploymentService) ListByQuiz(context.Context, uint) ([]dto.DeploymentResponse, error) {
	return []dto.DeploymentResponse{s.deployment}, s.err
}

func (s stubDeploymentService) Toggle(context.Context, uint) (dto.DeploymentToggleResponse, error) {
	return s.toggle, s.err
}

func (s stubDeploymentService) Delete(context.Context, uint) error {
	return s.err
}

func (s stubDeploymentService) ValidateAccess(context.Context, uint, string) (dto.AccessInfoResponse, error) {
	return s.info, s.err
}

func newDeploymentApp(svc service.DeploymentService) *fiber.App {
	app := fiber.New()
	h := handler.NewDeploymentHandler(svc, zerolog.Nop())
	api := app.Group("/api/v1")
	h.RegisterAdmin(api, passGuard)
	h.RegisterStudent(api)
	return app
}

func TestDeploymentHandlerCreate(t *testing.T) {
	app := newDeploymentApp(stubDeploymentService{deployment: dto.DeploymentResponse{ID: 1, AccessCode: "Abc123"}})

	body, err := json.Marshal(dto.DeploymentCreateRequest{
		QuizID:   1,
		CohortID: 7,
		OpenAt:   time.Now().Format(time.RFC3339),
		CloseAt:  time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/deployments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestDeploymentHandlerCreateUnknownQuiz(t *testing.T) {
	app := newDeploymentApp(stubDeploymentService{err: service.ErrQuizNotFound})

	body := []byte(`{"quiz_id":9,"cohort_id":7,"open_at":"2026-01-01T00:00:00Z","close_at":"2026-01-02T00:00:00Z"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/deployments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeploymentHandlerAccessDenials(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"invalid code", service.ErrInvalidAccessCode},
		{"deactivated", service.ErrDeploymentInactive},
		{"not open", service.ErrDeploymentNotOpen},
		{"closed", service.ErrDeploymentClosed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newDeploymentApp(stubDeploymentService{err: tc.err})

			body := []byte(`{"code":"Abc123"}`)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/deployments/1/access", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}

func TestDeploymentHandlerAccessGranted(t *testing.T) {
	app := newDeploymentApp(stubDeploymentService{info: dto.AccessInfoResponse{
		DeploymentID:    1,
		QuizTitle:       "Go Basics",
		DurationMinutes: 20,
		QuestionCount:   3,
	}})

	body := []byte(`{"code":"Abc123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/deployments/1/access", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Data dto.AccessInfoResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, "Go Basics", payload.Data.QuizTitle)
	require.Equal(t, 3, payload.Data.QuestionCount)
}

func TestDeploymentHandlerToggle(t *testing.T) {
	app := newDeploymentApp(stubDeploymentService{toggle: dto.DeploymentToggleResponse{ID: 1, Status: "Deactivated"}})

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/deployments/1/toggle", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDeploymentHandlerDeleteMissing(t *testing.T) {
	app := newDeploymentApp(stubDeploymentService{err: service.ErrDeploymentNotFound})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/deployments/42", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

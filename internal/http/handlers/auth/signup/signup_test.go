package signup

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/floodsense/backend/internal/models"
	"github.com/floodsense/backend/internal/storage/repository"
)

// MockService реализует интерфейс signup.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) SignUp(ctx context.Context, name, email, password string) (string, *models.User, error) {
	args := m.Called(ctx, name, email, password)
	if res := args.Get(1); res != nil {
		return args.String(0), res.(*models.User), args.Error(2)
	}
	return args.String(0), nil, args.Error(2)
}

func TestSignUpHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешная регистрация",
			body: `{"name":"User","email":"user@example.com","password":"secret1"}`,
			setupMock: func(m *MockService) {
				m.On("SignUp", mock.Anything, "User", "user@example.com", "secret1").
					Return("token-123", &models.User{UID: "uid", Name: "User", Email: "user@example.com", Role: models.RoleUser}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"token":"token-123"`,
		},
		{
			name:           "некорректный JSON",
			body:           `{not json`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `invalid request body`,
		},
		{
			name:           "короткий пароль не проходит валидацию",
			body:           `{"name":"User","email":"user@example.com","password":"123"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Password is too short`,
		},
		{
			name: "занятая почта возвращает 400",
			body: `{"name":"User","email":"taken@example.com","password":"secret1"}`,
			setupMock: func(m *MockService) {
				m.On("SignUp", mock.Anything, "User", "taken@example.com", "secret1").
					Return("", nil, fmt.Errorf("services.auth.SignUp: %w", repository.ErrEmailTaken))
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `email already registered`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}

func TestSignUpHandler_LogsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Post("/api/auth/signup", New(logger, new(MockService)).ServeHTTP)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader(`{not json`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	// Записи обработчика привязаны к идентификатору запроса из middleware
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, buf.String(), "request_id=")
}

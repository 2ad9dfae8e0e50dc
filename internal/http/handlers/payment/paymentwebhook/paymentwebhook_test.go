package paymentwebhook

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/floodsense/backend/internal/paymentprovider"
	"github.com/floodsense/backend/internal/services/payment"
)

// MockService реализует интерфейс paymentwebhook.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) ProcessWebhook(ctx context.Context, payload *paymentprovider.WebhookPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func TestWebhookHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешная обработка уведомления",
			body: `{"code":"00","desc":"success","success":true,"data":{"orderCode":1,"amount":30000,"code":"00"},"signature":"abc"}`,
			setupMock: func(m *MockService) {
				m.On("ProcessWebhook", mock.Anything, mock.Anything).Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"success":true`,
		},
		{
			name:           "некорректный JSON",
			body:           `{not json`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `invalid request body`,
		},
		{
			name: "неверная подпись отклоняется с 401",
			body: `{"code":"00","success":true,"data":{"orderCode":1},"signature":"bad"}`,
			setupMock: func(m *MockService) {
				m.On("ProcessWebhook", mock.Anything, mock.Anything).
					Return(payment.ErrBadSignature)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `invalid signature`,
		},
		{
			name: "внутренняя ошибка возвращает 500 для повторной доставки",
			body: `{"code":"00","success":true,"data":{"orderCode":1},"signature":"abc"}`,
			setupMock: func(m *MockService) {
				m.On("ProcessWebhook", mock.Anything, mock.Anything).
					Return(errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `internal error`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/api/payment/webhook", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}

package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/sbilibin2017/bookworm/internal/models"
	"github.com/sbilibin2017/bookworm/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginHandler(t *testing.T) {
	creds := models.Credentials{Email: "john@example.com", Password: "secret1"}
	body := `{"email":"john@example.com","password":"secret1"}`

	tests := []struct {
		name         string
		body         string
		mockSetup    func(m *MockLoginer)
		expectedCode int
		expectedBody map[string]any
	}{
		{
			name: "success",
			body: body,
			mockSetup: func(m *MockLoginer) {
				m.EXPECT().Login(gomock.Any(), creds).
					Return(&models.AuthResult{Token: "tok", User: &models.User{ID: uuid.New()}}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "invalid credentials",
			body: body,
			mockSetup: func(m *MockLoginer) {
				m.EXPECT().Login(gomock.Any(), creds).Return(nil, services.ErrInvalidCredentials)
			},
			expectedCode: http.StatusBadRequest,
			expectedBody: map[string]any{"message": "Invalid credentials"},
		},
		{
			name: "service error",
			body: body,
			mockSetup: func(m *MockLoginer) {
				m.EXPECT().Login(gomock.Any(), creds).Return(nil, errors.New("db down"))
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: map[string]any{"message": "Internal server error"},
		},
		{
			name:         "invalid json",
			body:         "not json",
			expectedCode: http.StatusBadRequest,
			expectedBody: map[string]any{"message": "Invalid request body"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockSvc := NewMockLoginer(ctrl)
			if tt.mockSetup != nil {
				tt.mockSetup(mockSvc)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(tt.body))
			rr := httptest.NewRecorder()
			NewLoginHandler(mockSvc)(rr, req)

			assert.Equal(t, tt.expectedCode, rr.Code)

			var resp map[string]any
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			if tt.expectedBody != nil {
				assert.Equal(t, tt.expectedBody, resp)
				return
			}
			assert.Equal(t, "tok", resp["token"])
			assert.NotContains(t, resp["user"], "password_hash")
		})
	}
}

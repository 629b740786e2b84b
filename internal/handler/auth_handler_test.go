package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"marketplace/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_RegisterSeller(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		mockSetup      func(*MockAuthService)
		expectedStatus int
		expectedCode   string
		expectedMsg    string
	}{
		{
			name: "Success",
			body: `{"name":"Acme","email":"owner@acme.test","password":"s3cretpass"}`,
			mockSetup: func(m *MockAuthService) {
				m.On("RegisterSeller", mock.Anything, &model.SellerRegisterRequest{
					Name: "Acme", Email: "owner@acme.test", Password: "s3cretpass",
				}).Return(&model.TokenResponse{Token: "tok", ExpiresAt: time.Now().Add(time.Hour), Role: model.RoleSeller}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Short password",
			body:           `{"name":"Acme","email":"owner@acme.test","password":"short"}`,
			mockSetup:      func(m *MockAuthService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeValidation,
			expectedMsg:    "password failed min=8",
		},
		{
			name:           "Bad email",
			body:           `{"name":"Acme","email":"nope","password":"s3cretpass"}`,
			mockSetup:      func(m *MockAuthService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeValidation,
			expectedMsg:    "email failed email",
		},
		{
			name:           "Malformed body",
			body:           `{"name":`,
			mockSetup:      func(m *MockAuthService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidJSON,
		},
		{
			name: "Email taken",
			body: `{"name":"Acme","email":"owner@acme.test","password":"s3cretpass"}`,
			mockSetup: func(m *MockAuthService) {
				m.On("RegisterSeller", mock.Anything, mock.Anything).Return(nil, model.ErrSellerExists)
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   model.ErrCodeSellerExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthService)
			tt.mockSetup(svc)
			h := NewAuthHandler(svc, zerolog.Nop())

			req := httptest.NewRequest(http.MethodPost, "/api/auth/seller/register", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			h.RegisterSeller(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				var resp model.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, tt.expectedCode, resp.Error)
				if tt.expectedMsg != "" {
					assert.Contains(t, resp.Message, tt.expectedMsg)
				}
			} else {
				var resp model.TokenResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, "tok", resp.Token)
				assert.Equal(t, model.RoleSeller, resp.Role)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_LoginCustomer(t *testing.T) {
	sellerID := uuid.New()

	tests := []struct {
		name           string
		body           string
		mockSetup      func(*MockAuthService)
		expectedStatus int
	}{
		{
			name: "Success",
			body: `{"sellerId":"` + sellerID.String() + `","email":"jo@example.test","password":"hunter22"}`,
			mockSetup: func(m *MockAuthService) {
				m.On("LoginCustomer", mock.Anything, &model.CustomerAuthRequest{
					SellerID: sellerID, Email: "jo@example.test", Password: "hunter22",
				}).Return(&model.TokenResponse{Token: "tok", Role: model.RoleCustomer}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Missing seller",
			body:           `{"email":"jo@example.test","password":"hunter22"}`,
			mockSetup:      func(m *MockAuthService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Wrong password",
			body: `{"sellerId":"` + sellerID.String() + `","email":"jo@example.test","password":"hunter23"}`,
			mockSetup: func(m *MockAuthService) {
				m.On("LoginCustomer", mock.Anything, mock.Anything).Return(nil, model.ErrInvalidCredentials)
			},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthService)
			tt.mockSetup(svc)
			h := NewAuthHandler(svc, zerolog.Nop())

			req := httptest.NewRequest(http.MethodPost, "/api/auth/customer/login", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			h.LoginCustomer(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_RegisterCustomer_NotAllowListed(t *testing.T) {
	svc := new(MockAuthService)
	svc.On("RegisterCustomer", mock.Anything, mock.Anything).Return(nil, model.ErrNotAllowListed)
	h := NewAuthHandler(svc, zerolog.Nop())

	body := `{"sellerId":"` + uuid.NewString() + `","email":"stranger@example.test","password":"hunter22"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/customer/register", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.RegisterCustomer(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)

	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.ErrCodeNotAllowListed, resp.Error)
}

package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/emilythestrangee/blogposts/backend/internal/models"
	"github.com/emilythestrangee/blogposts/backend/internal/services"
)

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tests := []struct {
		name             string
		header           string
		mockSetup        func(m *MockAuthenticator)
		expectedStatus   int
		expectChallenge  bool
		expectNextCalled bool
	}{
		{
			name:             "NoHeader",
			header:           "",
			mockSetup:        func(m *MockAuthenticator) {},
			expectedStatus:   http.StatusUnauthorized,
			expectChallenge:  true,
			expectNextCalled: false,
		},
		{
			name:             "WrongScheme",
			header:           "Basic abc",
			mockSetup:        func(m *MockAuthenticator) {},
			expectedStatus:   http.StatusUnauthorized,
			expectChallenge:  true,
			expectNextCalled: false,
		},
		{
			name:   "InvalidToken",
			header: "Bearer sometoken",
			mockSetup: func(m *MockAuthenticator) {
				m.EXPECT().Authenticate(gomock.Any(), "sometoken").
					Return(nil, services.ErrInvalidToken)
			},
			expectedStatus:   http.StatusUnauthorized,
			expectChallenge:  true,
			expectNextCalled: false,
		},
		{
			name:   "StoreFailure",
			header: "Bearer sometoken",
			mockSetup: func(m *MockAuthenticator) {
				m.EXPECT().Authenticate(gomock.Any(), "sometoken").
					Return(nil, errors.New("db down"))
			},
			expectedStatus:   http.StatusInternalServerError,
			expectNextCalled: false,
		},
		{
			name:   "ValidToken",
			header: "bearer validtoken",
			mockSetup: func(m *MockAuthenticator) {
				m.EXPECT().Authenticate(gomock.Any(), "validtoken").
					Return(&models.User{ID: 7, Username: "alice"}, nil)
			},
			expectedStatus:   http.StatusOK,
			expectNextCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAuthn := NewMockAuthenticator(ctrl)
			tt.mockSetup(mockAuthn)

			nextCalled := false
			r := gin.New()
			r.GET("/", AuthMiddleware(mockAuthn), func(c *gin.Context) {
				nextCalled = true
				id, ok := CurrentUserID(c)
				assert.True(t, ok)
				assert.Equal(t, uint(7), id)
				user, ok := CurrentUser(c)
				assert.True(t, ok)
				assert.Equal(t, "alice", user.Username)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			r.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, tt.expectNextCalled, nextCalled)
			if tt.expectChallenge {
				assert.Equal(t, "Bearer", rr.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestCurrentUser_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := CurrentUser(c)
	assert.False(t, ok)
	_, ok = CurrentUserID(c)
	assert.False(t, ok)
}

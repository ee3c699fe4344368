package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chrisminnick/starboard2/internal/lib/rabbitmq"
	"github.com/chrisminnick/starboard2/internal/models"
)

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, toName, toEmail, subject, body string) error {
	args := m.Called(ctx, toName, toEmail, subject, body)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func reminderBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(models.TrialReminder{
		UserID:       "u-1",
		Email:        "ann@example.com",
		Name:         "Ann",
		TrialEndDate: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return body
}

func TestSenderService_SendTrialExpiring(t *testing.T) {
	tests := []struct {
		name          string
		body          func(t *testing.T) []byte
		setupMocks    func(*MockMailer)
		expectedError bool
		errorMessage  string
	}{
		{
			name: "success",
			body: reminderBody,
			setupMocks: func(m *MockMailer) {
				m.On("Send", mock.Anything, "Ann", "ann@example.com",
					"Your Starboard Write trial ends soon",
					mock.MatchedBy(func(text string) bool {
						return containsAll(text, "Hello Ann", "March 2, 2026", "http://localhost:3000")
					})).Return(nil).Once()
			},
		},
		{
			name:          "invalid JSON",
			body:          func(*testing.T) []byte { return []byte("invalid json") },
			setupMocks:    func(*MockMailer) {},
			expectedError: true,
			errorMessage:  "error unmarshalling message",
		},
		{
			name: "mailer error is returned for requeue",
			body: reminderBody,
			setupMocks: func(m *MockMailer) {
				m.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(errors.New("sendgrid down")).Once()
			},
			expectedError: true,
			errorMessage:  "sendgrid down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := new(MockMailer)
			service := NewSenderService(mailer, "http://localhost:3000", newNoopLogger())
			tt.setupMocks(mailer)

			err := service.SendTrialExpiring(tt.body(t))
			if tt.expectedError {
				assert.ErrorContains(t, err, tt.errorMessage)
			} else {
				assert.NoError(t, err)
			}
			mailer.AssertExpectations(t)
		})
	}
}

func TestSenderService_NoMailerAcks(t *testing.T) {
	service := NewSenderService(nil, "http://localhost:3000", newNoopLogger())
	assert.NoError(t, service.SendTrialExpiring(reminderBody(t)))
}

func TestSenderService_MalformedMessageIsDiscarded(t *testing.T) {
	service := NewSenderService(new(MockMailer), "http://localhost:3000", newNoopLogger())
	err := service.SendTrialExpiring([]byte("{"))
	assert.ErrorIs(t, err, rabbitmq.ErrDiscard)
}

func TestSendGridMailer_Send(t *testing.T) {
	var got map[string]any
	status := http.StatusAccepted
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(status)
	}))
	defer srv.Close()

	mailer := NewSendGridMailer("sg-key", "noreply@starboard.app", srv.URL)
	require.NoError(t, mailer.Send(context.Background(), "Ann", "ann@example.com", "Subject", "Body"))
	assert.Equal(t, "Subject", got["subject"])
	from := got["from"].(map[string]any)
	assert.Equal(t, "noreply@starboard.app", from["email"])

	status = http.StatusUnauthorized
	err := mailer.Send(context.Background(), "Ann", "ann@example.com", "Subject", "Body")
	assert.ErrorContains(t, err, "401")
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}

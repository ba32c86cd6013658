package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/upstander-api/pkg/config"
)

var testFrom = mail.Address{Name: "Upstander", Address: "noreply@upstander.help"}

func TestNewSelectsProvider(t *testing.T) {
	s, err := New(config.MailConfig{Provider: "log"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LogSender{}, s)

	s, err = New(config.MailConfig{Provider: "resend", ResendAPIKey: "re_123", ResendBaseURL: "http://localhost"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &ResendSender{}, s)

	s, err = New(config.MailConfig{Provider: "sendgrid", SendgridAPIKey: "SG.x"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &SendgridSender{}, s)

	_, err = New(config.MailConfig{Provider: "resend"}, nil)
	assert.Error(t, err)

	_, err = New(config.MailConfig{Provider: "pigeon"}, nil)
	assert.Error(t, err)
}

func TestResendSend(t *testing.T) {
	var got resendPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_123", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1"}`))
	}))
	defer srv.Close()

	s := NewResendSender(srv.URL, "re_123", testFrom, time.Second)
	err := s.Send(context.Background(), Message{To: "admin@school.test", Subject: "New Report Submitted", HTML: "<p>hi</p>"})
	require.NoError(t, err)
	assert.Equal(t, []string{"admin@school.test"}, got.To)
	assert.Equal(t, `"Upstander" <noreply@upstander.help>`, got.From)
	assert.Equal(t, "New Report Submitted", got.Subject)
}

func TestResendSendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"name":"validation_error","message":"invalid to"}`))
	}))
	defer srv.Close()

	s := NewResendSender(srv.URL, "re_123", testFrom, time.Second)
	err := s.Send(context.Background(), Message{To: "x", Subject: "s"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid to")
}

func TestSendgridSend(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, sendgridEndpoint, r.URL.Path)
		assert.Equal(t, "Bearer SG.key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewSendgridSender("SG.key", testFrom)
	s.host = srv.URL
	err := s.Send(context.Background(), Message{To: "admin@school.test", Subject: "New Anonymous Message Received", HTML: "<p>x</p>", Text: "x"})
	require.NoError(t, err)
	assert.Len(t, body["content"], 2)
}

func TestSendgridSendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewSendgridSender("SG.bad", testFrom)
	s.host = srv.URL
	assert.Error(t, s.Send(context.Background(), Message{To: "a@b.test", Subject: "s", Text: "x"}))
}

func TestLogSender(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewLogSender(testFrom, zap.New(core))

	require.NoError(t, s.Send(context.Background(), Message{To: "admin@school.test", Subject: "hello"}))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "admin@school.test", logs.All()[0].ContextMap()["to"])

	assert.ErrorIs(t, s.Send(context.Background(), Message{Subject: "no one"}), ErrNoRecipient)
}

package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/upstander-api/internal/middleware"
	"github.com/noah-isme/upstander-api/internal/models"
)

func TestMessagePost(t *testing.T) {
	convo := newConversationMock()
	convo.schools["r1"] = "Lincoln-HS"
	h := NewMessageHandler(convo)

	cases := []struct {
		name   string
		body   string
		claims *models.JWTClaims
		status int
	}{
		{"reporter", `{"reportId":"r1","text":"hello","sender":"reporter"}`, nil, http.StatusOK},
		{"admin with token", `{"reportId":"r1","text":"hi","sender":"admin"}`, &models.JWTClaims{AdminID: "a1", SchoolID: "Lincoln-HS"}, http.StatusOK},
		{"admin without token", `{"reportId":"r1","text":"hi","sender":"admin"}`, nil, http.StatusUnauthorized},
		{"admin of another school", `{"reportId":"r1","text":"hi","sender":"admin"}`, &models.JWTClaims{AdminID: "b1", SchoolID: "Riverside-HS"}, http.StatusNotFound},
		{"missing report id", `{"text":"hi","sender":"reporter"}`, nil, http.StatusBadRequest},
		{"missing sender", `{"reportId":"r1","text":"hi"}`, nil, http.StatusBadRequest},
		{"unknown sender", `{"reportId":"r1","text":"hi","sender":"teacher"}`, nil, http.StatusBadRequest},
		{"blank text", `{"reportId":"r1","text":"  ","sender":"reporter"}`, nil, http.StatusBadRequest},
		{"unknown report", `{"reportId":"r9","text":"hi","sender":"reporter"}`, nil, http.StatusNotFound},
		{"malformed", `{`, nil, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, w := newGinContext(http.MethodPost, "/messages", []byte(tc.body))
			if tc.claims != nil {
				c.Set(middleware.ContextUserKey, tc.claims)
			}
			h.Post(c)
			assert.Equal(t, tc.status, w.Code)
		})
	}

	require.Len(t, convo.messages["r1"], 2)
	assert.Equal(t, models.SenderReporter, convo.messages["r1"][0].Sender)
	assert.Equal(t, models.SenderAdmin, convo.messages["r1"][1].Sender)
}

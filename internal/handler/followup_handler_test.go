package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/upstander-api/internal/dto"
	"github.com/noah-isme/upstander-api/internal/models"
	"github.com/noah-isme/upstander-api/internal/realtime"
	appErrors "github.com/noah-isme/upstander-api/pkg/errors"
)

func newFollowUpFixture() (*FollowUpHandler, *intakeMock, *conversationMock) {
	intake := &intakeMock{
		submitResp: &dto.SubmitReportResponse{ReferenceCode: "FR2026-AB3F"},
		codes:      map[string]string{"FR2026-AB3F": "report-1"},
	}
	convo := newConversationMock()
	convo.schools["report-1"] = "Lincoln-HS"
	return NewFollowUpHandler(intake, convo, nil, nil, zap.NewNop(), nil), intake, convo
}

func TestFollowUpSubmit(t *testing.T) {
	h, intake, _ := newFollowUpFixture()

	body, _ := json.Marshal(dto.SubmitReportRequest{BullyingType: models.BullyingCyber, Narrative: "posts about me"})
	c, w := newGinContext(http.MethodPost, "/schools/Lincoln-HS/reports", body)
	c.Params = gin.Params{{Key: "schoolId", Value: "Lincoln-HS"}}
	h.Submit(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Lincoln-HS", intake.gotSchool)
	var res dto.SubmitReportResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &res))
	assert.Equal(t, "FR2026-AB3F", res.ReferenceCode)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	c, w = newGinContext(http.MethodPost, "/schools/Lincoln-HS/reports", []byte("{"))
	h.Submit(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	intake.submitErr = appErrors.ErrResourceExhausted
	c, w = newGinContext(http.MethodPost, "/schools/Lincoln-HS/reports", body)
	h.Submit(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "RESOURCE_EXHAUSTED", decode(t, w).Error.Code)
}

func TestFollowUpResolve(t *testing.T) {
	h, _, _ := newFollowUpFixture()

	c, w := newGinContext(http.MethodPost, "/follow-up/resolve", []byte(`{"code":"FR2026-AB3F"}`))
	h.Resolve(c)
	require.Equal(t, http.StatusOK, w.Code)
	var res dto.ResolveCodeResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &res))
	assert.Equal(t, "report-1", res.ReportID)

	c, w = newGinContext(http.MethodPost, "/follow-up/resolve", []byte(`{"code":"FR2026-AB3F "}`))
	h.Resolve(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "report not found", decode(t, w).Error.Message)
}

func TestFollowUpViewAndMessages(t *testing.T) {
	h, _, convo := newFollowUpFixture()

	c, w := newGinContext(http.MethodPost, "/follow-up/FR2026-AB3F/messages", []byte(`{"text":"hello?"}`))
	c.Params = gin.Params{{Key: "code", Value: "FR2026-AB3F"}}
	h.PostMessage(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, convo.messages["report-1"], 1)
	assert.Equal(t, models.SenderReporter, convo.messages["report-1"][0].Sender)

	c, w = newGinContext(http.MethodGet, "/follow-up/FR2026-AB3F", nil)
	c.Params = gin.Params{{Key: "code", Value: "FR2026-AB3F"}}
	h.View(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "notes")

	c, w = newGinContext(http.MethodGet, "/follow-up/FR2026-AB3F/messages?since=bad", nil)
	c.Params = gin.Params{{Key: "code", Value: "FR2026-AB3F"}}
	h.ListMessages(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newGinContext(http.MethodGet, "/follow-up/FR2026-AB3F/messages?since="+time.Unix(0, 0).UTC().Format(time.RFC3339), nil)
	c.Params = gin.Params{{Key: "code", Value: "FR2026-AB3F"}}
	h.ListMessages(c)
	require.Equal(t, http.StatusOK, w.Code)
	var msgs []dto.MessageResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &msgs))
	assert.Len(t, msgs, 1)

	c, w = newGinContext(http.MethodGet, "/follow-up/nope/messages", nil)
	c.Params = gin.Params{{Key: "code", Value: "nope"}}
	h.ListMessages(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFollowUpStreamUnavailableWithoutBroker(t *testing.T) {
	h, _, _ := newFollowUpFixture()
	c, w := newGinContext(http.MethodGet, "/follow-up/FR2026-AB3F/stream", nil)
	c.Params = gin.Params{{Key: "code", Value: "FR2026-AB3F"}}
	h.Stream(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestFollowUpStreamSendsBacklogThenLive(t *testing.T) {
	_, intake, convo := newFollowUpFixture()
	broker := realtime.NewLocalBroker()
	convo.appendFn = func(m models.ConversationMessage) {
		_ = broker.Publish(context.Background(), m.ReportID, dto.NewMessageResponse(m))
	}
	h := NewFollowUpHandler(intake, convo, broker, nil, zap.NewNop(), nil)

	_, err := convo.AppendMessage(context.Background(), "report-1", "first", models.SenderReporter, nil)
	require.NoError(t, err)

	router := gin.New()
	router.GET("/follow-up/:code/stream", h.Stream)
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/follow-up/FR2026-AB3F/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var msg dto.MessageResponse
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "first", msg.Text)

	// The subscription is registered before the upgrade, so a publish now is delivered.
	_, err = convo.AppendMessage(context.Background(), "report-1", "second", models.SenderAdmin, &models.JWTClaims{AdminID: "a1", SchoolID: "Lincoln-HS"})
	require.NoError(t, err)
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "second", msg.Text)
	assert.Equal(t, models.SenderAdmin, msg.Sender)
}

func TestFollowUpStreamUnknownCode(t *testing.T) {
	_, intake, convo := newFollowUpFixture()
	h := NewFollowUpHandler(intake, convo, realtime.NewLocalBroker(), nil, zap.NewNop(), nil)

	router := gin.New()
	router.GET("/follow-up/:code/stream", h.Stream)
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/follow-up/missing/stream"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

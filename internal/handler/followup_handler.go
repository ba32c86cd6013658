package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/noah-isme/upstander-api/internal/dto"
	"github.com/noah-isme/upstander-api/internal/models"
	"github.com/noah-isme/upstander-api/internal/realtime"
	"github.com/noah-isme/upstander-api/internal/service"
	appErrors "github.com/noah-isme/upstander-api/pkg/errors"
	"github.com/noah-isme/upstander-api/pkg/middleware/cors"
	"github.com/noah-isme/upstander-api/pkg/response"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// Reporters only send control frames over the socket.
	maxReadSize = 512
)

type intakeService interface {
	SubmitReport(ctx context.Context, schoolID string, req dto.SubmitReportRequest) (*dto.SubmitReportResponse, error)
	ResolveCode(ctx context.Context, code string) (string, error)
}

type conversationService interface {
	ReporterView(ctx context.Context, reportID string) (*dto.ReporterView, error)
	AppendMessage(ctx context.Context, reportID, text string, sender models.MessageSender, actor *models.JWTClaims) (*models.ConversationMessage, error)
	ListMessages(ctx context.Context, reportID string, since *time.Time) ([]models.ConversationMessage, error)
}

// FollowUpHandler serves the anonymous reporter: intake, code resolution and
// the conversation reached through a reference code.
type FollowUpHandler struct {
	intake   intakeService
	reports  conversationService
	broker   realtime.Broker
	metrics  *service.MetricsService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewFollowUpHandler constructs a FollowUpHandler. broker may be nil, which
// disables the live stream.
func NewFollowUpHandler(intake intakeService, reports conversationService, broker realtime.Broker, metrics *service.MetricsService, logger *zap.Logger, allowedOrigins []string) *FollowUpHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FollowUpHandler{
		intake:  intake,
		reports: reports,
		broker:  broker,
		metrics: metrics,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     cors.CheckOrigin(allowedOrigins),
		},
	}
}

// Submit godoc
// @Summary Submit an anonymous report
// @Description Stores the report and returns its reference code. The code is shown once and is the only way back to the report.
// @Tags Reports
// @Accept json
// @Produce json
// @Param schoolId path string true "School slug"
// @Param payload body dto.SubmitReportRequest true "Report"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /schools/{schoolId}/reports [post]
func (h *FollowUpHandler) Submit(c *gin.Context) {
	var req dto.SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid report payload"))
		return
	}

	res, err := h.intake.SubmitReport(c.Request.Context(), c.Param("schoolId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, res)
}

// Resolve godoc
// @Summary Resolve a reference code
// @Description Maps a reference code to its report. Matching is exact.
// @Tags Follow-up
// @Accept json
// @Produce json
// @Param payload body dto.ResolveCodeRequest true "Reference code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /follow-up/resolve [post]
func (h *FollowUpHandler) Resolve(c *gin.Context) {
	var req dto.ResolveCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid payload"))
		return
	}

	reportID, err := h.intake.ResolveCode(c.Request.Context(), req.Code)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.ResolveCodeResponse{ReportID: reportID}, nil)
}

// View godoc
// @Summary View a report by reference code
// @Description Returns status, submitted fields and the conversation. Admin notes are never included.
// @Tags Follow-up
// @Produce json
// @Param code path string true "Reference code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /follow-up/{code} [get]
func (h *FollowUpHandler) View(c *gin.Context) {
	reportID, ok := h.resolve(c)
	if !ok {
		return
	}

	view, err := h.reports.ReporterView(c.Request.Context(), reportID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, view, nil)
}

// ListMessages godoc
// @Summary Poll the conversation
// @Description Messages in ascending time order, optionally only those after since.
// @Tags Follow-up
// @Produce json
// @Param code path string true "Reference code"
// @Param since query string false "RFC3339 timestamp"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /follow-up/{code}/messages [get]
func (h *FollowUpHandler) ListMessages(c *gin.Context) {
	var query dto.MessageQuery
	_ = c.ShouldBindQuery(&query)
	since, err := parseSince(query.Since)
	if err != nil {
		response.Error(c, err)
		return
	}

	reportID, ok := h.resolve(c)
	if !ok {
		return
	}

	messages, err := h.reports.ListMessages(c.Request.Context(), reportID, since)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.NewMessageResponses(messages), nil)
}

// PostMessage godoc
// @Summary Send a message as the reporter
// @Tags Follow-up
// @Accept json
// @Produce json
// @Param code path string true "Reference code"
// @Param payload body dto.MessageTextRequest true "Message"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /follow-up/{code}/messages [post]
func (h *FollowUpHandler) PostMessage(c *gin.Context) {
	var req dto.MessageTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid message payload"))
		return
	}

	reportID, ok := h.resolve(c)
	if !ok {
		return
	}

	msg, err := h.reports.AppendMessage(c.Request.Context(), reportID, req.Text, models.SenderReporter, nil)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.NewMessageResponse(*msg))
}

// Stream godoc
// @Summary Live conversation feed
// @Description Upgrades to a websocket that sends the existing thread, then each new message as a JSON frame. Clients de-duplicate by id.
// @Tags Follow-up
// @Param code path string true "Reference code"
// @Success 101
// @Failure 404 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /follow-up/{code}/stream [get]
func (h *FollowUpHandler) Stream(c *gin.Context) {
	reportID, ok := h.resolve(c)
	if !ok {
		return
	}
	if h.broker == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnavailable, "live updates are unavailable, poll the messages endpoint"))
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Subscribe before reading the backlog so nothing falls between the two.
	sub, err := h.broker.Subscribe(ctx, reportID)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "live updates are unavailable, poll the messages endpoint"))
		return
	}
	defer sub.Close()

	backlog, err := h.reports.ListMessages(ctx, reportID, nil)
	if err != nil {
		response.Error(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.metrics.StreamOpened()
	defer h.metrics.StreamClosed()

	go h.readPump(conn, cancel)
	h.writePump(ctx, conn, dto.NewMessageResponses(backlog), sub)
}

func (h *FollowUpHandler) resolve(c *gin.Context) (string, bool) {
	reportID, err := h.intake.ResolveCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return "", false
	}
	return reportID, true
}

// readPump keeps the pong deadline fresh and cancels the stream once the
// client goes away.
func (h *FollowUpHandler) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(maxReadSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("conversation stream closed", zap.Error(err))
			}
			return
		}
	}
}

func (h *FollowUpHandler) writePump(ctx context.Context, conn *websocket.Conn, backlog []dto.MessageResponse, sub *realtime.Subscription) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for _, msg := range backlog {
		if err := writeJSON(conn, msg); err != nil {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg, ok := <-sub.C:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := writeJSON(conn, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeJSON(conn *websocket.Conn, msg dto.MessageResponse) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

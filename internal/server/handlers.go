package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/calendar-agent-poc/server/internal/agent/graph"
	"github.com/calendar-agent-poc/server/internal/agent/model"
	errx "github.com/calendar-agent-poc/server/internal/core/error"
	logx "github.com/calendar-agent-poc/server/pkg/logger"
)

const stateCookie = "oauth_state"

type chatRequest struct {
	ThreadID string `json:"thread_id" binding:"required"`
	Message  string `json:"message" binding:"required"`
}

type chatResponse struct {
	ThreadID string `json:"thread_id"`
	Reply    string `json:"reply"`
}

type chatHandler struct {
	runner graph.Runner
}

func newChatHandler(runner graph.Runner) *chatHandler {
	return &chatHandler{runner: runner}
}

// Chat handles POST /v1/chat.
func (h *chatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "thread_id and message are required"})
		return
	}

	reply, err := h.runner.Invoke(c.Request.Context(), model.QueryInput{
		ConversationID: req.ThreadID,
		Query:          req.Message,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, chatResponse{ThreadID: req.ThreadID, Reply: reply})
}

// Reset handles DELETE /v1/threads/:id.
func (h *chatHandler) Reset(c *gin.Context) {
	id := c.Param("id")
	if err := h.runner.Reset(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"thread_id": id, "deleted": true})
}

type oauthHandler struct {
	auth Authenticator
}

func newOAuthHandler(auth Authenticator) *oauthHandler {
	return &oauthHandler{auth: auth}
}

// Auth redirects to the Google consent page.
func (h *oauthHandler) Auth(c *gin.Context) {
	state := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, int((10 * time.Minute).Seconds()), "/", "", false, true)
	c.Redirect(http.StatusFound, h.auth.AuthURL(state))
}

// Callback exchanges the authorization code and stores the token.
func (h *oauthHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}
	if want, err := c.Cookie(stateCookie); err == nil && want != c.Query("state") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "state mismatch"})
		return
	}

	if _, err := h.auth.Exchange(c.Request.Context(), code); err != nil {
		logx.Error().Err(err).Msg("OAuth callback failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to connect google calendar"})
		return
	}
	c.SetCookie(stateCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Connected"})
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func writeError(c *gin.Context, err error) {
	status := errx.StatusOf(err)
	if c.Request.Context().Err() != nil {
		// client went away; the status is never seen
		status = 499
	}
	logx.Error().Err(err).Int("status", status).Str("path", c.FullPath()).Msg("Request failed")
	c.JSON(status, gin.H{"error": errx.SafeMessage(err)})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logx.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("HTTP request")
	}
}

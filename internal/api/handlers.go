package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"leetcode-dash/internal/leetcode"
	"leetcode-dash/internal/rss"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	gw     *Gateway
	svc    *UserService
	logger *slog.Logger
}

func NewHandlers(gw *Gateway, svc *UserService, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		gw:     gw,
		svc:    svc,
		logger: logger,
	}
}

// Proxy relays a GraphQL request body to the upstream and returns its
// {data, errors} envelope. Upstream cookies are handed on to the browser.
func (h *Handlers) Proxy(c *gin.Context) {
	var req leetcode.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortJSONErrorWithDetails(c, http.StatusBadRequest, ErrorCodeValidation, "invalid request body", err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		AbortJSONError(c, http.StatusBadRequest, ErrorCodeValidation, "query is required")
		return
	}

	resp, err := h.gw.Forward(c.Request.Context(), req)
	if err != nil {
		h.logger.Warn("proxy request failed", "operation", req.OperationName, "error", err)
		WriteError(c, err)
		return
	}

	for _, ck := range resp.Cookies {
		// the upstream scopes cookies to its own domain; rescope to ours
		cp := *ck
		cp.Domain = ""
		http.SetCookie(c.Writer, &cp)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) Status(c *gin.Context) {
	body := gin.H{
		"session":       h.gw.Sessions().Status(),
		"last_username": h.svc.LastUsername(c.Request.Context()),
	}

	if c.Query("verify") == "true" {
		st, err := h.svc.VerifySession(c.Request.Context())
		if err != nil {
			WriteError(c, err)
			return
		}
		body["user"] = st
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handlers) Login(c *gin.Context) {
	var creds leetcode.Session
	if err := c.ShouldBindJSON(&creds); err != nil {
		AbortJSONErrorWithDetails(c, http.StatusBadRequest, ErrorCodeValidation, "invalid request body", err.Error())
		return
	}
	creds.ID = strings.TrimSpace(creds.ID)
	creds.CSRFToken = strings.TrimSpace(creds.CSRFToken)

	if err := h.gw.Sessions().Set(creds); err != nil {
		if errors.Is(err, ErrIncompleteSession) {
			AbortJSONError(c, http.StatusBadRequest, ErrorCodeValidation, err.Error())
			return
		}
		AbortJSONError(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to store session")
		return
	}

	h.logger.Info("leetcode session stored")
	c.JSON(http.StatusOK, gin.H{"session": h.gw.Sessions().Status()})
}

func (h *Handlers) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context()); err != nil {
		h.logger.Error("logout failed", "error", err)
		AbortJSONError(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to clear stored data")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) UserData(c *gin.Context) {
	res, ok := h.fetch(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) SubmissionsFeed(c *gin.Context) {
	res, ok := h.fetch(c)
	if !ok {
		return
	}

	b, err := rss.Render(SubmissionsFeed(res.Data, res.FetchedAt))
	if err != nil {
		AbortJSONError(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to render feed")
		return
	}
	c.Data(http.StatusOK, "application/rss+xml", b)
}

func (h *Handlers) Daily(c *gin.Context) {
	d, err := h.svc.Daily(c.Request.Context())
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handlers) fetch(c *gin.Context) (*Result, bool) {
	res, err := h.svc.FetchUserData(c.Request.Context(), c.Param("username"))
	if err != nil {
		WriteError(c, err)
		return nil, false
	}
	if res.Stale {
		c.Header("X-Data-Stale", "true")
		c.Header("X-Data-Fetched-At", res.FetchedAt.UTC().Format(time.RFC3339))
	}
	return res, true
}

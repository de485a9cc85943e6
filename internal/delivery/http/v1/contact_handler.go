package v1

import (
	"encoding/json"
	"math"
	"net/http"
	"sort"
	"strconv"
	"time"

	"portfolio-backend/internal/delivery/http/response"
	"portfolio-backend/internal/domain"
	"portfolio-backend/pkg/apperror"
	"portfolio-backend/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const maxContactBodyBytes = 64 << 10

type ContactHandler struct {
	contactUC domain.ContactUsecase
	secLog    *security.SecurityLogger
	now       func() time.Time
}

// NewContactHandler registers the contact routes (public, no auth required)
func NewContactHandler(api *gin.RouterGroup, contactUC domain.ContactUsecase, secLog *security.SecurityLogger) {
	handler := &ContactHandler{
		contactUC: contactUC,
		secLog:    secLog,
		now:       time.Now,
	}

	api.POST("/contact", handler.SubmitContact)
}

// SubmitContact godoc
// @Summary      Submit Contact Form
// @Description  Validates the submission, emails it to the site owner and records it. Limited per client address.
// @Tags         contact
// @Accept       json
// @Produce      json
// @Param        contact  body      domain.SubmissionRequest  true  "Contact Form Data"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Failure      429      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /contact [post]
func (h *ContactHandler) SubmitContact(c *gin.Context) {
	ip, ua, reqID := c.ClientIP(), c.Request.UserAgent(), c.GetString("RequestID")
	ctx := c.Request.Context()

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxContactBodyBytes)

	// A body that is not a non-empty JSON object never reaches the pipeline
	var fields map[string]json.RawMessage
	var req domain.SubmissionRequest
	if err := c.ShouldBindBodyWith(&fields, binding.JSON); err != nil || len(fields) == 0 {
		h.secLog.LogMalformedRequest(ctx, ip, ua, reqID, "undecodable body")
		c.Error(apperror.BadRequest("Invalid JSON input"))
		return
	}
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		h.secLog.LogMalformedRequest(ctx, ip, ua, reqID, "wrong field types")
		c.Error(apperror.BadRequest("Invalid JSON input"))
		return
	}

	outcome := h.contactUC.Handle(ctx, req, ip)
	h.setRateLimitHeaders(c, outcome.Decision)

	switch outcome.Kind {
	case domain.OutcomeAccepted:
		h.secLog.LogContactAccepted(ctx, req.Email, ip, ua, reqID)
		response.Success(c, http.StatusOK, "Message sent successfully! I will get back to you soon.", nil)

	case domain.OutcomeInvalidInput:
		h.secLog.LogValidationFailed(ctx, ip, ua, reqID, fieldNames(outcome.Errors))
		c.Error(apperror.Unprocessable("Validation failed", outcome.Errors))

	case domain.OutcomeRateLimited:
		h.secLog.LogRateLimitTriggered(ctx, ip, ua, reqID, c.FullPath(), outcome.Decision.ResetAt)
		c.Header("Retry-After", strconv.Itoa(h.retryAfter(outcome.Decision.ResetAt)))
		c.Error(apperror.TooManyRequests("Too many requests. Please try again later."))

	default:
		h.secLog.LogContactSendFailed(ctx, req.Email, ip, ua, reqID)
		c.Error(apperror.New(http.StatusInternalServerError, "Failed to send message. Please try again later.", nil))
	}
}

func (h *ContactHandler) setRateLimitHeaders(c *gin.Context, d domain.RateLimitDecision) {
	if d.Limit <= 0 {
		return
	}
	c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(max(d.Remaining, 0)))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
}

// retryAfter rounds up to whole seconds, never below one.
func (h *ContactHandler) retryAfter(resetAt time.Time) int {
	secs := int(math.Ceil(resetAt.Sub(h.now()).Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

func fieldNames(errs domain.ValidationErrors) []string {
	names := make([]string, 0, len(errs))
	for k := range errs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

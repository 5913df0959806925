package newsletter

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// subscribeRequest is the JSON body of POST /api/subscribe.
type subscribeRequest struct {
	Email string `json:"email"`
}

// Handler serves the thin JSON subscribe endpoint, rate-limited per IP.
type Handler struct {
	svc *Service

	mu       sync.Mutex
	visitors map[string]*rate.Limiter
}

// NewHandler creates a Handler around svc.
func NewHandler(svc *Service) *Handler {
	return &Handler{
		svc:      svc,
		visitors: make(map[string]*rate.Limiter),
	}
}

// Register mounts the endpoint on e.
func (h *Handler) Register(e *echo.Echo) {
	e.POST("/api/subscribe", h.Subscribe)
}

// limiter returns the per-IP token bucket: 5 requests per minute, burst 5.
func (h *Handler) limiter(ip string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.visitors[ip]
	if !ok {
		l = rate.NewLimiter(rate.Limit(5.0/60.0), 5)
		h.visitors[ip] = l
	}
	return l
}

// Subscribe handles POST /api/subscribe.
func (h *Handler) Subscribe(c echo.Context) error {
	if !h.limiter(c.RealIP()).Allow() {
		return c.JSON(http.StatusTooManyRequests, echo.Map{
			"error": "Too many requests. Please try again later.",
		})
	}

	var req subscribeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Email is required"})
	}
	// Trimmed here like the site form, so both entry points accept the same
	// input and the service stays strict.
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Email is required"})
	}

	err := h.svc.Subscribe(c.Request().Context(), req.Email)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"message": ConfirmationMessage})
	case errors.Is(err, ErrInvalidEmail):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid email format"})
	case errors.Is(err, ErrAlreadySubscribed):
		return c.JSON(http.StatusConflict, echo.Map{"error": "This email is already subscribed."})
	default:
		c.Logger().Errorf("subscribe failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Something went wrong. Please try again later.",
		})
	}
}

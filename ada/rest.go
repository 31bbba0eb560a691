package ada

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/odit-bit/ada/ada/messaging"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Response is the acknowledgement returned to the webhook caller.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

type Turner interface {
	Turn(ctx context.Context, sender, text string) (string, error)
}

type SessionCounter interface {
	Count() int
}

// Handler serve the inbound webhook.
type Handler struct {
	Turner   Turner
	Sender   messaging.Sender
	Sessions SessionCounter
	// region used to read phone numbers without a country code
	Region string
}

func RestHandler(e *echo.Echo, h Handler) {
	if e == nil || h.Turner == nil || h.Sender == nil || h.Sessions == nil {
		panic("got nil parameter")
	}

	meter := otel.Meter("ada.rest")
	requestCounter, err := meter.Int64Counter(
		"ada.http.request_total",
		metric.WithDescription("total number of HTTP request"),
	)
	if err != nil {
		panic(err)
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	// otel middleware
	e.Use(otelecho.Middleware("ada-server"))

	//custom middleware to counter request
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			requestCounter.Add(c.Request().Context(), 1)
			return err
		}
	})

	e.POST("/message", h.message)
	e.GET("/health", h.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

func (h Handler) message(c echo.Context) error {
	reqID := c.Response().Header().Get(echo.HeaderXRequestID)
	body := strings.TrimSpace(c.FormValue("Body"))
	from := strings.TrimSpace(c.FormValue("From"))

	if body == "" || from == "" {
		return c.JSON(http.StatusBadRequest, Response{Status: StatusError, Message: "Body and From are required"})
	}

	sender, err := messaging.NormalizeAddress(from, h.Region)
	if err != nil {
		slog.Warn("invalid sender", "request_id", reqID, "from", from, "error", err)
		return c.JSON(http.StatusBadRequest, Response{Status: StatusError, Message: "invalid sender address"})
	}

	ctx := c.Request().Context()
	reply, err := h.Turner.Turn(ctx, sender, body)
	if err != nil {
		if errors.Is(err, ErrEmptyMessage) {
			return c.JSON(http.StatusBadRequest, Response{Status: StatusError, Message: err.Error()})
		}
		slog.Error("failed turn", "request_id", reqID, "sender", sender, "error", err)
		return c.JSON(http.StatusInternalServerError, Response{Status: StatusError, Message: err.Error()})
	}

	if err := h.Sender.Send(ctx, sender, reply); err != nil {
		slog.Error("failed send reply", "request_id", reqID, "sender", sender, "error", err)
		return c.JSON(http.StatusBadGateway, Response{Status: StatusError, Message: "failed to deliver reply"})
	}

	slog.Debug("request finish", "request_id", reqID, "sender", sender)
	return c.JSON(http.StatusOK, Response{Status: StatusOK, Message: reply})
}

func (h Handler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: StatusOK, Sessions: h.Sessions.Count()})
}

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"FXCast/internal/domain/models"
	"FXCast/internal/service/metrics"
	"FXCast/internal/service/ratelimit"
	"FXCast/internal/usecase"
	xhttp "FXCast/pkg/http"
	xlogger "FXCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PredictEchoHandler serves the forecasting endpoints.
type PredictEchoHandler struct {
	logger *xlogger.Logger
	svc    *usecase.PredictionService
	rl     *ratelimit.Limiter
}

func NewPredictEchoHandler(logger *xlogger.Logger, svc *usecase.PredictionService, rl *ratelimit.Limiter) *PredictEchoHandler {
	metrics.Register()
	return &PredictEchoHandler{logger: logger, svc: svc, rl: rl}
}

func (h *PredictEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/predict", h.limited("predict", h.Predict))
	g.GET("/predict_multi", h.limited("predict_multi", h.PredictMulti))
	g.GET("/tier", h.Tier)
}

func (h *PredictEchoHandler) Predict(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.EndpointLatency.WithLabelValues("predict").Observe(time.Since(start).Seconds()) }()

	req := &models.PredictRequest{Days: 1}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.invalid(c, "predict", verr)
	}
	params, verr := toParams(req.Pair, req.Days, req.UseBusinessDays, req.Timezone, req.Market, req.At)
	if verr != nil {
		return h.invalid(c, "predict", verr)
	}

	res, err := h.svc.Predict(c.Request().Context(), params)
	if err != nil {
		return h.fail(c, "predict", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *PredictEchoHandler) PredictMulti(c echo.Context) error {
	start := time.Now()
	defer func() {
		metrics.EndpointLatency.WithLabelValues("predict_multi").Observe(time.Since(start).Seconds())
	}()

	req := &models.PredictMultiRequest{Days: 10}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.invalid(c, "predict_multi", verr)
	}
	params, verr := toParams(req.Pair, req.Days, req.UseBusinessDays, req.Timezone, req.Market, req.At)
	if verr != nil {
		return h.invalid(c, "predict_multi", verr)
	}

	res, err := h.svc.PredictMulti(c.Request().Context(), params)
	if err != nil {
		return h.fail(c, "predict_multi", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *PredictEchoHandler) Tier(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.TierStatus())
}

func (h *PredictEchoHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "ok",
		"tier":   h.svc.TierStatus().Tier,
	})
}

func (h *PredictEchoHandler) limited(endpoint string, next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.rl != nil && !h.rl.Allow(c.RealIP()+":"+endpoint) {
			metrics.RateLimited.WithLabelValues(endpoint).Inc()
			return xhttp.TooManyRequestsResponse(c)
		}
		return next(c)
	}
}

func (h *PredictEchoHandler) invalid(c echo.Context, endpoint string, errs []xhttp.ValidationError) error {
	metrics.EndpointErrors.WithLabelValues(endpoint, "InvalidRequest").Inc()
	return xhttp.BadRequestResponse(c, "InvalidRequest", errs)
}

func (h *PredictEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	kind := models.ErrorKind(err)
	metrics.EndpointErrors.WithLabelValues(endpoint, kind).Inc()
	if errors.Is(err, models.ErrInvalidRequest) {
		return xhttp.AppErrorResponse(c, kind, xhttp.InvalidRequestError(err))
	}
	if errors.Is(err, context.Canceled) {
		h.logger.Debug(endpoint+" request cancelled", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, kind, err)
	}
	h.logger.Error(endpoint+" usecase error", xlogger.String("kind", kind), xlogger.Error(err))
	return xhttp.AppErrorResponse(c, kind, err)
}

func toParams(pair string, days int, business bool, tz, market, at string) (usecase.PredictParams, []xhttp.ValidationError) {
	p := usecase.PredictParams{
		Pair:            pair,
		Days:            days,
		UseBusinessDays: business,
		Timezone:        strings.TrimSpace(tz),
		Market:          strings.TrimSpace(market),
	}
	if at != "" {
		t, ok := xhttp.ParseTime(at)
		if !ok {
			return p, []xhttp.ValidationError{{
				Code:    "ERR_INVALID_TIME",
				Field:   "at",
				Message: "at must be RFC3339 or unix seconds",
			}}
		}
		p.At = &t
	}
	return p, nil
}

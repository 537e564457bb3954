package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"ExoVista/internal/domain/models"
	"ExoVista/internal/service/cache"
	svcmetrics "ExoVista/internal/service/metrics"
	"ExoVista/internal/service/ratelimit"
	"ExoVista/internal/services/ingest"
	"ExoVista/internal/usecase"
	xhttp "ExoVista/pkg/http"
	xlogger "ExoVista/pkg/logger"
)

const (
	APIVersion = "1.0.0"

	headerReplayed = "Idempotent-Replayed"
	idemKeyPrefix  = "analyze:"
)

// DispositionHandler serves the disposition HTTP and websocket API.
type DispositionHandler struct {
	logger       *xlogger.Logger
	uc           *usecase.DispositionUseCase
	cache        cache.BytesCache
	cacheTTL     time.Duration
	limiter      *ratelimit.Limiter
	maxUpload    int64
	pingInterval time.Duration
	upgrader     websocket.Upgrader
	started      time.Time
	now          func() time.Time
}

type HandlerOption func(*DispositionHandler)

// WithIdempotencyCache enables Idempotency-Key replay on /api/analyze.
func WithIdempotencyCache(c cache.BytesCache, ttl time.Duration) HandlerOption {
	return func(h *DispositionHandler) {
		h.cache = c
		if ttl > 0 {
			h.cacheTTL = ttl
		}
	}
}

func WithRateLimiter(l *ratelimit.Limiter) HandlerOption {
	return func(h *DispositionHandler) { h.limiter = l }
}

func WithMaxUploadBytes(n int64) HandlerOption {
	return func(h *DispositionHandler) {
		if n > 0 {
			h.maxUpload = n
		}
	}
}

func WithPingInterval(d time.Duration) HandlerOption {
	return func(h *DispositionHandler) {
		if d > 0 {
			h.pingInterval = d
		}
	}
}

func NewDispositionHandler(logger *xlogger.Logger, uc *usecase.DispositionUseCase, opts ...HandlerOption) *DispositionHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	svcmetrics.Register()
	h := &DispositionHandler{
		logger:       logger,
		uc:           uc,
		cacheTTL:     10 * time.Minute,
		maxUpload:    10 << 20,
		pingInterval: 30 * time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// browsers are already filtered by the CORS middleware
			CheckOrigin: func(*http.Request) bool { return true },
		},
		now: time.Now,
	}
	for _, o := range opts {
		o(h)
	}
	h.started = h.now()
	return h
}

func (h *DispositionHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/info", h.Info)

	g := e.Group("/api", h.rateLimit)
	g.POST("/analyze", h.Analyze)
	g.POST("/predict", h.Predict)
	g.POST("/explain", h.Explain)
	g.GET("/stream", h.Stream)
}

type healthResponse struct {
	Status        string  `json:"status"`
	Engine        string  `json:"engine"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

func (h *DispositionHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status:        "healthy",
		Engine:        "rule-based",
		UptimeSeconds: h.now().Sub(h.started).Seconds(),
	})
}

func (h *DispositionHandler) Analyze(c echo.Context) error {
	start := time.Now()
	defer observe("analyze", start)
	ctx := c.Request().Context()

	key := c.Request().Header.Get(xhttp.HeaderIdempotencyKey)
	if key != "" && h.cache != nil {
		b, ok, err := h.cache.GetBytes(ctx, idemKeyPrefix+key)
		if err != nil {
			h.logger.Warn("idempotency cache read failed", xlogger.Error(err))
		} else if ok {
			svcmetrics.IdempotentReplays.Inc()
			c.Response().Header().Set(headerReplayed, "true")
			return c.JSONBlob(http.StatusOK, b)
		}
	}

	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.fail(c, "analyze", verr)
	}
	report, err := h.uc.Analyze(ctx, req.Observation(), models.InputMode(req.Mode), req.Seed, usecase.SourceHTTP)
	if err != nil {
		return h.fail(c, "analyze", err)
	}

	body, err := json.Marshal(xhttp.APIResponse{
		Status:  http.StatusOK,
		Message: http.StatusText(http.StatusOK),
		Data:    report,
	})
	if err != nil {
		return h.fail(c, "analyze", err)
	}
	if key != "" && h.cache != nil {
		if err := h.cache.SetBytes(ctx, idemKeyPrefix+key, body, h.cacheTTL); err != nil {
			h.logger.Warn("idempotency cache write failed", xlogger.Error(err))
		}
	}
	return c.JSONBlob(http.StatusOK, body)
}

func (h *DispositionHandler) Predict(c echo.Context) error {
	start := time.Now()
	defer observe("predict", start)

	fh, err := c.FormFile("file")
	if err != nil {
		return h.fail(c, "predict", xhttp.InvalidFieldError("file", "file is required"))
	}
	if fh.Size > h.maxUpload {
		return h.fail(c, "predict", xhttp.RequestTooLargeError("uploaded file is too large").
			WithParam("max_bytes", h.maxUpload))
	}
	f, err := fh.Open()
	if err != nil {
		return h.fail(c, "predict", err)
	}
	defer f.Close()

	res, err := h.uc.AnalyzeFile(c.Request().Context(), fh.Filename, f, usecase.SourceBatch)
	if err != nil {
		return h.fail(c, "predict", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DispositionHandler) Explain(c echo.Context) error {
	start := time.Now()
	defer observe("explain", start)

	req := &models.ExplainRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.fail(c, "explain", verr)
	}
	report, err := h.uc.Explain(c.Request().Context(), req.Observation.Observation(),
		models.InputMode(req.Observation.Mode), req.ModelOutput, usecase.SourceHTTP)
	if err != nil {
		return h.fail(c, "explain", err)
	}
	return xhttp.SuccessResponse(c, report)
}

// rateLimit keys buckets by client address and route.
func (h *DispositionHandler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.limiter != nil && !h.limiter.Allow(c.RealIP()+" "+c.Path()) {
			return h.fail(c, endpointName(c), xhttp.TooManyRequestsError("rate limit exceeded, retry later"))
		}
		return next(c)
	}
}

// fail maps err onto an API error response.
func (h *DispositionHandler) fail(c echo.Context, endpoint string, err error) error {
	appErr := toAppError(err)
	if appErr == nil {
		svcmetrics.EndpointErrors.WithLabelValues(endpoint, "validation").Inc()
		return xhttp.AppErrorResponse(c, err)
	}
	kind := "client"
	if appErr.Status >= http.StatusInternalServerError {
		kind = "internal"
		h.logger.Error(endpoint+" failed", xlogger.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)), xlogger.Error(err))
	}
	svcmetrics.EndpointErrors.WithLabelValues(endpoint, kind).Inc()
	return xhttp.AppErrorResponse(c, appErr)
}

// toAppError returns nil for ValidationErrors, which AppErrorResponse renders as is.
func toAppError(err error) *xhttp.AppError {
	var verrs xhttp.ValidationErrors
	if errors.As(err, &verrs) {
		return nil
	}
	var appErr *xhttp.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var fe *models.FieldError
	if errors.As(err, &fe) {
		return xhttp.InvalidFieldError(fe.Field, fe.Field+" "+fe.Reason).WithError(err)
	}
	switch {
	case errors.Is(err, ingest.ErrThermalSchema):
		return xhttp.UnprocessableError(err.Error()).WithError(err)
	case errors.Is(err, ingest.ErrTooManyRows):
		return xhttp.RequestTooLargeError(err.Error()).WithError(err)
	case usecase.IsClientError(err):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	}
	return xhttp.InternalError("Something went wrong").WithError(err)
}

func observe(endpoint string, start time.Time) {
	svcmetrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func endpointName(c echo.Context) string {
	p := c.Path()
	if len(p) > len("/api/") {
		return p[len("/api/"):]
	}
	return p
}

var _ xhttp.Handler = (*DispositionHandler)(nil)

package api

import (
	"encoding/json"
	"net/http"
	"time"

	models "PortWatch/internal/domain/models"
	icache "PortWatch/internal/service/cache"
	imetrics "PortWatch/internal/service/metrics"
	"PortWatch/internal/service/ratelimit"
	"PortWatch/internal/usecase"
	xhttp "PortWatch/pkg/http"
	xlogger "PortWatch/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AdvisorEchoHandler exposes the advisory engine over HTTP.
type AdvisorEchoHandler struct {
	logger  *xlogger.Logger
	advisor *usecase.AdvisorUseCase
	limiter *ratelimit.Limiter
	bytes   icache.BytesCache
}

func NewAdvisorEchoHandler(logger *xlogger.Logger, advisor *usecase.AdvisorUseCase) *AdvisorEchoHandler {
	imetrics.Register()
	return &AdvisorEchoHandler{
		logger:  logger,
		advisor: advisor,
		limiter: ratelimit.New(),
		bytes:   icache.NewTTLCache(),
	}
}

// WithBytesCache swaps the in-process byte cache for a shared one, so
// replicas behind a balancer serve the same cached report bodies.
func (h *AdvisorEchoHandler) WithBytesCache(bc icache.BytesCache) {
	if bc != nil {
		h.bytes = bc
	}
}

func (h *AdvisorEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api")
	g.GET("/alerts", h.Alerts)
	g.POST("/evaluate", h.Evaluate)
	g.GET("/rules", h.Rules)
	g.GET("/snapshot", h.Snapshot)
	g.GET("/holdings", h.Holdings)
	g.POST("/holdings", h.ImportHoldings)
	g.POST("/earnings", h.ImportEarnings)
}

func (h *AdvisorEchoHandler) Health(c echo.Context) error {
	if err := h.advisor.Health(c.Request().Context()); err != nil {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// Alerts serves the latest report for a scope, with a short-lived byte cache
// in front of the usecase so dashboard polling stays cheap.
func (h *AdvisorEchoHandler) Alerts(c echo.Context) error {
	req := &models.AlertsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	key := "alerts:" + req.Region
	if b, ok, _ := h.bytes.GetBytes(key); ok {
		return trimmedReportResponse(c, b, req.Limit)
	}

	rep, err := h.advisor.LatestReport(c.Request().Context(), req.Region)
	if err != nil {
		h.logger.Error("alerts usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	if b, err := json.Marshal(rep); err == nil {
		_ = h.bytes.SetBytes(key, b, 5*time.Second)
	}
	if req.Limit > 0 && len(rep.Alerts) > req.Limit {
		rep.Alerts = rep.Alerts[:req.Limit]
	}
	return xhttp.SuccessResponse(c, rep)
}

// Evaluate triggers a fresh engine run. Rate limited per client: runs touch
// every holding's price history and are not free.
func (h *AdvisorEchoHandler) Evaluate(c echo.Context) error {
	start := time.Now()
	defer func() {
		imetrics.EvalLatency.WithLabelValues("evaluate").Observe(time.Since(start).Seconds())
	}()

	if !h.limiter.Allow("evaluate:"+c.RealIP(), 3, 0.2) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "evaluation rate limit exceeded")
	}

	req := &models.EvaluateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	var (
		rep models.Report
		err error
	)
	if req.Region == usecase.ScopeAll {
		rep, err = h.advisor.RunAll(ctx)
	} else {
		rep, err = h.advisor.RunRegion(ctx, models.Region(req.Region))
	}
	if err != nil {
		imetrics.EvalErrors.WithLabelValues("evaluate").Inc()
		h.logger.Error("evaluate usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	// fresh run supersedes whatever the alerts cache held
	if b, err := json.Marshal(rep); err == nil {
		_ = h.bytes.SetBytes("alerts:"+req.Region, b, 5*time.Second)
	}
	return xhttp.SuccessResponse(c, rep)
}

func (h *AdvisorEchoHandler) Rules(c echo.Context) error {
	req := &models.RulesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rules := h.advisor.Rules()
	if req.Action != "" {
		filtered := make([]models.RuleDefinition, 0, len(rules))
		for _, r := range rules {
			if r.Action == models.ActionType(req.Action) {
				filtered = append(filtered, r)
			}
		}
		rules = filtered
	}
	return xhttp.ListResponse(c, rules, int64(len(rules)))
}

func (h *AdvisorEchoHandler) Snapshot(c echo.Context) error {
	req := &models.SnapshotRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	snap, err := h.advisor.Snapshot(c.Request().Context(), req.Symbol, models.Region(req.Region))
	if err != nil {
		h.logger.Error("snapshot usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=30")
	return xhttp.SuccessResponse(c, snap)
}

func (h *AdvisorEchoHandler) Holdings(c echo.Context) error {
	req := &models.HoldingsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	hs, err := h.advisor.Holdings(c.Request().Context(), models.Region(req.Region))
	if err != nil {
		h.logger.Error("holdings usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, hs, int64(len(hs)))
}

func (h *AdvisorEchoHandler) ImportHoldings(c echo.Context) error {
	req := &models.ImportHoldingsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if err := h.advisor.ImportHoldings(c.Request().Context(), models.Region(req.Region), req.Holdings); err != nil {
		h.logger.Error("import holdings error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, map[string]interface{}{
		"region":   req.Region,
		"imported": len(req.Holdings),
	})
}

func (h *AdvisorEchoHandler) ImportEarnings(c echo.Context) error {
	req := &models.ImportEarningsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	scored, err := h.advisor.ImportEarnings(c.Request().Context(), models.EarningsRecord{
		Symbol:          req.Symbol,
		FiscalYear:      req.FiscalYear,
		FiscalQuarter:   req.FiscalQuarter,
		EPSActual:       req.EPSActual,
		EPSEstimate:     req.EPSEstimate,
		RevenueActual:   req.RevenueActual,
		RevenueEstimate: req.RevenueEstimate,
		Guidance:        models.GuidanceDirection(req.Guidance),
		ReactionPct:     req.ReactionPct,
	})
	if err != nil {
		h.logger.Error("import earnings error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, scored)
}

// trimmedReportResponse replays a cached report body, applying the limit.
func trimmedReportResponse(c echo.Context, b []byte, limit int) error {
	var rep models.Report
	if err := json.Unmarshal(b, &rep); err != nil {
		return xhttp.InternalServerErrorResponse(c)
	}
	if limit > 0 && len(rep.Alerts) > limit {
		rep.Alerts = rep.Alerts[:limit]
	}
	return xhttp.SuccessResponse(c, rep)
}

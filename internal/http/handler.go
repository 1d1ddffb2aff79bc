package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"go.ngs.io/skychart-api/internal/adapter/history"
	"go.ngs.io/skychart-api/internal/adapter/location"
	"go.ngs.io/skychart-api/internal/domain"
	"go.ngs.io/skychart-api/internal/logging"
	"go.ngs.io/skychart-api/internal/usecase"
)

// Handler handles HTTP requests for sky charts.
type Handler struct {
	skyChartUC     *usecase.SkyChartUseCase
	log            logging.Logger
	streamInterval time.Duration
	upgrader       websocket.Upgrader
}

// NewHandler creates a new HTTP handler. Stream upgrades are accepted from
// allowedOrigins only; an empty list accepts every origin.
func NewHandler(skyChartUC *usecase.SkyChartUseCase, log logging.Logger, streamInterval time.Duration, allowedOrigins []string) *Handler {
	if log == nil {
		log = logging.Noop()
	}
	if streamInterval <= 0 {
		streamInterval = 5 * time.Second
	}
	return &Handler{
		skyChartUC:     skyChartUC,
		log:            log,
		streamInterval: streamInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: originChecker(allowedOrigins),
		},
	}
}

// originChecker accepts requests without an Origin header, same-host
// requests and the listed origins.
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set[strings.ToLower(origin)]; ok {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// parseChartRequest reads the observer and chart parameters shared by the
// chart endpoints.
func parseChartRequest(c *gin.Context) (usecase.ChartRequest, error) {
	req := usecase.ChartRequest{
		City:           c.Query("city"),
		Name:           c.Query("name"),
		TimeZone:       c.Query("tz"),
		OnUnknown:      c.Query("on_unknown"),
		Lang:           c.Query("lang"),
		AcceptLanguage: c.GetHeader("Accept-Language"),
	}

	// Parse lat/lon.
	if latStr := c.Query("lat"); latStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return req, fmt.Errorf("%w: invalid latitude: %v", domain.ErrInvalidArgument, err)
		}
		req.Lat = &lat
	}
	if lonStr := c.Query("lon"); lonStr != "" {
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			return req, fmt.Errorf("%w: invalid longitude: %v", domain.ErrInvalidArgument, err)
		}
		req.Lon = &lon
	}
	if heightStr := c.Query("height"); heightStr == "terrain" {
		req.TerrainHeight = true
	} else if heightStr != "" {
		height, err := strconv.ParseFloat(heightStr, 64)
		if err != nil {
			return req, fmt.Errorf("%w: invalid height: %v", domain.ErrInvalidArgument, err)
		}
		req.HeightM = height
	}

	// Parse time (default: now).
	if timeStr := c.Query("time"); timeStr != "" {
		t, err := time.Parse(time.RFC3339, timeStr)
		if err != nil {
			return req, fmt.Errorf("%w: invalid time (expected RFC3339): %v", domain.ErrInvalidArgument, err)
		}
		req.Time = t.UTC()
	}

	if bodies := c.Query("bodies"); bodies != "" {
		for _, b := range strings.Split(bodies, ",") {
			req.Bodies = append(req.Bodies, strings.TrimSpace(b))
		}
	}
	return req, nil
}

// writeError maps use case errors to HTTP statuses.
func (h *Handler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnknownBody),
		errors.Is(err, location.ErrUnknownLocation),
		errors.Is(err, history.ErrNotFound):
		status = http.StatusNotFound
	}

	_ = c.Error(err)
	if status == http.StatusInternalServerError {
		ctx := c.Request.Context()
		logging.FromContext(ctx, h.log).Error(ctx, "request error", logging.Err(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// GetSky handles GET /v1/sky.
func (h *Handler) GetSky(c *gin.Context) {
	req, err := parseChartRequest(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response, err := h.skyChartUC.Execute(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetChartImage handles GET /v1/sky/chart.
func (h *Handler) GetChartImage(c *gin.Context) {
	req, err := parseChartRequest(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	size := 0
	if sizeStr := c.Query("size"); sizeStr != "" {
		size, err = strconv.Atoi(sizeStr)
		if err != nil {
			h.writeError(c, fmt.Errorf("%w: invalid size: %v", domain.ErrInvalidArgument, err))
			return
		}
	}

	img, err := h.skyChartUC.Render(c.Request.Context(), req, c.DefaultQuery("format", "png"), size)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=\"skychart%s\"", img.Extension))
	c.Data(http.StatusOK, img.ContentType, img.Data)
}

// GetTrack handles GET /v1/sky/track.
func (h *Handler) GetTrack(c *gin.Context) {
	observer, err := parseChartRequest(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	startStr := c.Query("start")
	endStr := c.Query("end")
	if startStr == "" || endStr == "" {
		h.writeError(c, fmt.Errorf("%w: start and end parameters are required", domain.ErrInvalidArgument))
		return
	}
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		h.writeError(c, fmt.Errorf("%w: invalid start time (expected RFC3339): %v", domain.ErrInvalidArgument, err))
		return
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		h.writeError(c, fmt.Errorf("%w: invalid end time (expected RFC3339): %v", domain.ErrInvalidArgument, err))
		return
	}

	// Parse interval (default: 10m).
	interval, err := time.ParseDuration(c.DefaultQuery("interval", "10m"))
	if err != nil {
		h.writeError(c, fmt.Errorf("%w: invalid interval: %v", domain.ErrInvalidArgument, err))
		return
	}

	response, err := h.skyChartUC.Track(c.Request.Context(), usecase.TrackRequest{
		Observer: observer,
		Body:     c.Query("body"),
		Start:    start.UTC(),
		End:      end.UTC(),
		Interval: interval,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetChart handles GET /v1/charts/:id.
func (h *Handler) GetChart(c *gin.Context) {
	response, err := h.skyChartUC.GetChart(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// ListCharts handles GET /v1/charts.
func (h *Handler) ListCharts(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		h.writeError(c, fmt.Errorf("%w: invalid limit: %v", domain.ErrInvalidArgument, err))
		return
	}
	charts, err := h.skyChartUC.RecentCharts(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"charts": charts})
}

// GetBodies handles GET /v1/bodies.
func (h *Handler) GetBodies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"bodies":   h.skyChartUC.Bodies(),
		"defaults": usecase.DefaultBodies,
	})
}

// GetLocations handles GET /v1/locations.
func (h *Handler) GetLocations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"locations": h.skyChartUC.Locations(),
	})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

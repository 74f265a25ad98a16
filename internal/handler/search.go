package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-search/internal/index"
	"github.com/iliyamo/event-search/internal/search"
)

// SearchHandler exposes the search orchestrator over HTTP.
type SearchHandler struct {
	Searcher *search.Searcher
	Loc      *time.Location
}

// Search handles GET /v1/search. Categories accept both repeated parameters
// and one comma-joined value; the bounding box applies only when all four
// corners are given.
func (h *SearchHandler) Search(c echo.Context) error {
	p := search.Params{
		Text:       strings.TrimSpace(c.QueryParam("q")),
		City:       strings.TrimSpace(c.QueryParam("city")),
		Categories: c.QueryParams()["categories"],
		StartDate:  strings.TrimSpace(c.QueryParam("start_date")),
		EndDate:    strings.TrimSpace(c.QueryParam("end_date")),
		Limit:      parseLimit(c.QueryParam("limit"), 15),
		Offset:     parseUint(c.QueryParam("offset")),
		UserID:     userIDFrom(c),
		Box: index.BoxFromCorners(
			parseFloatPtr(c.QueryParam("min_lat")),
			parseFloatPtr(c.QueryParam("max_lat")),
			parseFloatPtr(c.QueryParam("min_lon")),
			parseFloatPtr(c.QueryParam("max_lon")),
		),
	}
	if v := c.QueryParam("score_threshold"); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			p.ScoreThreshold = float32(f)
		}
	}

	results, err := h.Searcher.Search(c.Request().Context(), p)
	if err != nil {
		return searchError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"result": results})
}

// ThisWeek handles GET /v1/search/events/this-week: structural query over the
// current Monday..Sunday span in the service's local zone.
func (h *SearchHandler) ThisWeek(c echo.Context) error {
	start, end := search.WeekRange(time.Now().In(h.Loc))
	return h.rangeSearch(c, start, end)
}

// ThisMonth handles GET /v1/search/events/this-month.
func (h *SearchHandler) ThisMonth(c echo.Context) error {
	start, end := search.MonthRange(time.Now().In(h.Loc))
	return h.rangeSearch(c, start, end)
}

func (h *SearchHandler) rangeSearch(c echo.Context, start, end string) error {
	results, err := h.Searcher.Search(c.Request().Context(), search.Params{
		StartDate: start,
		EndDate:   end,
		Limit:     parseLimit(c.QueryParam("limit"), 15),
		UserID:    userIDFrom(c),
	})
	if err != nil {
		return searchError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"events": results})
}

// EventsByCategory handles GET /v1/search/events-by-category.
func (h *SearchHandler) EventsByCategory(c echo.Context) error {
	buckets, err := h.Searcher.EventsByCategory(c.Request().Context(), userIDFrom(c))
	if err != nil {
		return searchError(c, err)
	}
	return c.JSON(http.StatusOK, buckets)
}

// Related handles GET /v1/events/:id/related.
func (h *SearchHandler) Related(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	limit := parseLimit(c.QueryParam("limit"), 4)
	results, err := h.Searcher.Related(c.Request().Context(), id, limit, userIDFrom(c))
	if err != nil {
		if errors.Is(err, search.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return searchError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"related_events": results})
}

// searchError maps core errors onto status codes: malformed input is the
// caller's fault, anything else means the index is unreachable or broken.
func searchError(c echo.Context, err error) error {
	if errors.Is(err, index.ErrMalformedFilter) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": err.Error()})
	}
	return c.JSON(http.StatusBadGateway, echo.Map{"error": "search_failed"})
}

// userIDFrom returns the authenticated subject, or "" for anonymous callers.
func userIDFrom(c echo.Context) string {
	if s, ok := c.Get("user_id").(string); ok {
		return s
	}
	return ""
}

func parseLimit(s string, def uint64) uint64 {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n < 1 {
		return def
	}
	if n > 100 {
		return 100
	}
	return n
}

func parseUint(s string) uint64 {
	n, _ := strconv.ParseUint(s, 10, 64)
	return n
}

func parseFloatPtr(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

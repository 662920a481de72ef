package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/dietdash/internal/callbacks"
	"github.com/wonny/dietdash/internal/charts"
	"github.com/wonny/dietdash/internal/contracts"
	"github.com/wonny/dietdash/internal/dataset"
	"github.com/wonny/dietdash/internal/layout"
	"github.com/wonny/dietdash/internal/render"
	"github.com/wonny/dietdash/pkg/logger"
	"github.com/wonny/dietdash/pkg/redis"
)

// Figure ids served besides the static figures
const (
	FigureRanked        = "ranked"
	FigureScatter       = "scatter"
	FigurePie           = "pie"
	FigureAnimalVegetal = "animal-vegetal"
	FigureMap           = "map"
)

// DashboardHandler serves the dashboard page, its figures and tables
// ⭐ SSOT: every dashboard endpoint reads the shared dataset through here
type DashboardHandler struct {
	ds       *dataset.Dataset
	registry *callbacks.Registry
	layout   *layout.Layout
	cache    *redis.Cache // nil disables caching
	logger   *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(ds *dataset.Dataset, registry *callbacks.Registry, lay *layout.Layout, cache *redis.Cache, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		ds:       ds,
		registry: registry,
		layout:   lay,
		cache:    cache,
		logger:   log.Component("dashboard"),
	}
}

// Health reports liveness and dataset completeness
// GET /health
func (h *DashboardHandler) Health(w http.ResponseWriter, r *http.Request) {
	q := h.ds.Quality()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"service":       "dietdash",
		"rows":          h.ds.Len(),
		"quality_score": q.QualityScore,
		"coverage":      q.Coverage,
		"cache":         h.cacheStatus(r.Context()),
	})
}

// cacheStatus is "disabled", "ok" or "unavailable". An unavailable
// cache only slows the service down, so health stays ok.
func (h *DashboardHandler) cacheStatus(ctx context.Context) string {
	if h.cache == nil {
		return "disabled"
	}
	err := h.cache.Ping(ctx)
	switch {
	case errors.Is(err, redis.ErrCacheDisabled):
		return "disabled"
	case err != nil:
		h.logger.WithError(err).Warn("Figure cache unreachable")
		return "unavailable"
	}
	return "ok"
}

// Index renders the dashboard page with its first-render outputs
// GET /
func (h *DashboardHandler) Index(w http.ResponseWriter, r *http.Request) {
	initial, err := h.registry.Initial(r.Context())
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	page, err := layout.NewPage(h.layout, h.ds.Options(), initial)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(w); err != nil {
		h.logger.WithError(err).Error("Failed to render page")
	}
}

// OptionsResponse lists the values every control accepts
type OptionsResponse struct {
	Countries  []contracts.Option `json:"countries"`
	AxisKeys   []contracts.Option `json:"axis_keys"`
	MapMetrics []contracts.Option `json:"map_metrics"`
	Slider     SliderOptions      `json:"slider"`
	Defaults   layout.Defaults    `json:"defaults"`
}

// SliderOptions describes the rank slider
type SliderOptions struct {
	Min   int   `json:"min"`
	Max   int   `json:"max"`
	Marks []int `json:"marks"`
	Value []int `json:"value"`
}

// GetOptions returns the control options
// GET /api/options
func (h *DashboardHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	d := h.layout.Defaults
	respondJSON(w, http.StatusOK, OptionsResponse{
		Countries:  h.ds.Options(),
		AxisKeys:   contracts.OptionsOf(contracts.AxisKeys),
		MapMetrics: contracts.OptionsOf(contracts.MapMetrics),
		Slider: SliderOptions{
			Min:   1,
			Max:   h.ds.Len(),
			Marks: layout.SliderMarks(h.ds.Len(), d.SliderStep),
			Value: d.Slider,
		},
		Defaults: d,
	})
}

// GetRanked returns the four ranked bar charts keyed by output id
// GET /api/figures/ranked?start=1&end=10
func (h *DashboardHandler) GetRanked(w http.ResponseWriter, r *http.Request) {
	window, err := h.window(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	figs, err := charts.RankedBars(h.ds, window)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[contracts.ControlID]contracts.Figure{
		contracts.OutputConfirmed: figs[0],
		contracts.OutputDeaths:    figs[1],
		contracts.OutputActive:    figs[2],
		contracts.OutputMortality: figs[3],
	})
}

// GetFigure returns one figure as JSON
// GET /api/figures/{id}
func (h *DashboardHandler) GetFigure(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if isStatic(id) && h.cache != nil {
		var cached json.RawMessage
		err := h.cache.GetOrSet(r.Context(), redis.StaticFigureKey(id), &cached, redis.TTLLong, func() (interface{}, error) {
			return charts.Static(h.ds, id)
		})
		if err != nil {
			h.respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, cached)
		return
	}

	fig, err := h.figure(r, id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, fig)
}

// GetFigurePNG renders one figure as a PNG image
// GET /api/figures/{id}.png
func (h *DashboardHandler) GetFigurePNG(w http.ResponseWriter, r *http.Request) {
	fig, err := h.figure(r, mux.Vars(r)["id"])
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	width, height := render.DefaultWidth, render.DefaultHeight
	w.Header().Set("Content-Type", "image/png")
	if err := render.PNG(w, fig, width, height); err != nil {
		w.Header().Del("Content-Type")
		h.respondErr(w, r, err)
	}
}

// PostMapClick returns the drill-down outputs of a map click.
// An empty or null body is "no click yet".
// POST /api/figures/map/click
func (h *DashboardHandler) PostMapClick(w http.ResponseWriter, r *http.Request) {
	var click *contracts.ClickData
	if err := json.NewDecoder(r.Body).Decode(&click); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid click payload")
		return
	}

	res, err := charts.MapClick(h.ds, click)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// GetTable returns the covid table of the selected countries
// GET /api/table?country=Brazil&country=Japan
func (h *DashboardHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, charts.CovidTable(h.ds, h.selection(r)))
}

// GetTableXLSX returns the covid table as a workbook
// GET /api/table.xlsx?country=Brazil
func (h *DashboardHandler) GetTableXLSX(w http.ResponseWriter, r *http.Request) {
	table := charts.CovidTable(h.ds, h.selection(r))

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="covid.xlsx"`)
	if err := render.TableXLSX(w, table); err != nil {
		h.logger.WithError(err).Error("Failed to write table workbook")
	}
}

// PostUpdate dispatches changed control values
// POST /api/update
func (h *DashboardHandler) PostUpdate(w http.ResponseWriter, r *http.Request) {
	var u callbacks.Update
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		respondError(w, http.StatusBadRequest, "invalid update payload")
		return
	}

	res, err := h.registry.Dispatch(r.Context(), u)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, UpdateResponse{Outputs: res})
}

// UpdateResponse carries the recomputed outputs
type UpdateResponse struct {
	Outputs callbacks.Result `json:"outputs,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// figure builds a single figure from query parameters, falling back to
// the layout defaults
func (h *DashboardHandler) figure(r *http.Request, id string) (contracts.Figure, error) {
	q := r.URL.Query()
	d := h.layout.Defaults
	param := func(key, def string) string {
		if v := q.Get(key); v != "" {
			return v
		}
		return def
	}

	switch id {
	case FigureRanked:
		window, err := h.window(r)
		if err != nil {
			return contracts.Figure{}, err
		}
		return charts.RankedBar(h.ds, param("metric", contracts.ColConfirmed), window)
	case FigureScatter:
		return charts.CustomScatter(h.ds, param("x", d.XAxis), param("y", d.YAxis), param("size", d.PointsSize))
	case FigurePie:
		return charts.FoodPie(h.ds, param("country", d.FoodCountry))
	case FigureAnimalVegetal:
		return charts.AnimalVegetal(h.ds, param("country", d.FoodCountry))
	case FigureMap:
		return charts.Choropleth(h.ds, param("metric", d.MapMetric))
	}
	return charts.Static(h.ds, id)
}

// window reads start/end, defaulting to the layout's slider
func (h *DashboardHandler) window(r *http.Request) (contracts.RankWindow, error) {
	d := h.layout.Defaults.Slider
	w := contracts.RankWindow{Start: d[0], End: d[1]}

	q := r.URL.Query()
	for key, dst := range map[string]*int{"start": &w.Start, "end": &w.End} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return w, fmt.Errorf("%w: %s=%q", contracts.ErrInvalidControl, key, v)
		}
		*dst = n
	}
	return w, w.Validate()
}

// selection reads repeated or comma separated country parameters,
// defaulting to the layout's table selection
func (h *DashboardHandler) selection(r *http.Request) []string {
	var out []string
	for _, v := range r.URL.Query()["country"] {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, name)
			}
		}
	}
	if len(out) == 0 {
		return h.layout.Defaults.CovidCountries
	}
	return out
}

func isStatic(id string) bool {
	for _, s := range charts.StaticIDs {
		if s == id {
			return true
		}
	}
	return false
}

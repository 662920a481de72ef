package api

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/wonny/dietdash/internal/api/handlers"
	"github.com/wonny/dietdash/internal/callbacks"
	"github.com/wonny/dietdash/internal/contracts"
	"github.com/wonny/dietdash/internal/dataset"
	"github.com/wonny/dietdash/internal/layout"
	"github.com/wonny/dietdash/internal/render"
	"github.com/wonny/dietdash/pkg/logger"
)

func testDataset() *dataset.Dataset {
	return dataset.FromRecords([]contracts.Record{
		{Country: "Brazil", ISOAlpha3: "BRA", Confirmed: 4, Deaths: 0.1, Active: 0.3, Obesity: 22, Undernourished: 2.5, AnimalProducts: 30, VegetalProducts: 70, Food: foodShares()},
		{Country: "Japan", ISOAlpha3: "JPN", Confirmed: 0.2, Deaths: 0.004, Active: 0.02, Obesity: 4, Undernourished: 2, AnimalProducts: 25, VegetalProducts: 75, Food: foodShares()},
		{Country: "Chile", ISOAlpha3: "CHL", Confirmed: 3, Deaths: 0.08, Active: 0.1, Obesity: 28, Undernourished: 3, AnimalProducts: 35, VegetalProducts: 65, Food: foodShares()},
		{Country: "Kiribati", Obesity: 46, Undernourished: 3, AnimalProducts: 20, VegetalProducts: 80, Food: foodShares()},
	})
}

func foodShares() [contracts.NumFoodGroups]float64 {
	var f [contracts.NumFoodGroups]float64
	for i := range f {
		f[i] = 100.0 / contracts.NumFoodGroups
	}
	return f
}

func newTestRouter(t *testing.T, limits *Limits) http.Handler {
	t.Helper()

	ds := testDataset()
	lay := layout.Default()
	log := logger.Nop()
	reg := callbacks.New(ds, callbacks.Options{Defaults: lay.ControlDefaults(), Logger: log})

	dash := handlers.NewDashboardHandler(ds, reg, lay, nil, log)
	ws := handlers.NewWSHandler(reg, log)
	return NewRouter(dash, ws, limits, log)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest), rec.Body.String())
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := do(t, h, "GET", "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(4), body["rows"])
	assert.Contains(t, body, "quality_score")
	assert.Contains(t, body["coverage"], "geo")
	assert.Equal(t, "disabled", body["cache"])
}

func TestRequestID_Reused(t *testing.T) {
	h := newTestRouter(t, nil)

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestIndex(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := do(t, h, "GET", "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)

	for _, id := range []string{"confirmed", "dt-covid", "custom-graph", "food-pie", "map", "ftext"} {
		assert.Equal(t, 1, doc.Find("#"+id).Length(), id)
	}
	assert.Equal(t, 4, doc.Find("#food-country-dd option").Length())
	assert.Contains(t, doc.Find("script").Text(), `"custom-graph"`)
}

func TestGetOptions(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := do(t, h, "GET", "/api/options", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body handlers.OptionsResponse
	decode(t, rec, &body)
	assert.Len(t, body.Countries, 4)
	assert.Len(t, body.AxisKeys, 4)
	assert.Len(t, body.MapMetrics, 7)
	assert.Equal(t, 4, body.Slider.Max)
	assert.Equal(t, []int{1, 10}, body.Slider.Value)
}

func TestGetRanked(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := do(t, h, "GET", "/api/figures/ranked?start=1&end=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]contracts.Figure
	decode(t, rec, &body)
	require.Len(t, body, 4)

	confirmed := body["confirmed"]
	require.Len(t, confirmed.Data, 1)
	assert.Equal(t, []interface{}{"Brazil", "Chile"}, confirmed.Data[0].X)
}

func TestFigures_Errors(t *testing.T) {
	h := newTestRouter(t, nil)

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"reversed window", "/api/figures/ranked?start=5&end=2", http.StatusBadRequest},
		{"non-numeric window", "/api/figures/ranked?start=one", http.StatusBadRequest},
		{"bad axis", "/api/figures/scatter?x=Bogus", http.StatusBadRequest},
		{"bad metric", "/api/figures/map?metric=Bogus", http.StatusBadRequest},
		{"unknown country", "/api/figures/pie?country=Nowhere", http.StatusNotFound},
		{"unknown figure", "/api/figures/nope", http.StatusNotFound},
		{"pie has no image", "/api/figures/pie.png", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, "GET", tt.target, "")
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())

			var body map[string]string
			decode(t, rec, &body)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestGetFigure(t *testing.T) {
	h := newTestRouter(t, nil)

	for _, target := range []string{
		"/api/figures/scatter?x=Obesity&y=Deaths&size=Confirmed",
		"/api/figures/pie?country=Japan",
		"/api/figures/animal-vegetal",
		"/api/figures/map?metric=Undernourished",
		"/api/figures/deaths-v-conf",
		"/api/figures/death-obesity",
	} {
		rec := do(t, h, "GET", target, "")
		require.Equal(t, http.StatusOK, rec.Code, target)

		var fig contracts.Figure
		decode(t, rec, &fig)
		assert.NotEmpty(t, fig.Data, target)
	}
}

func TestGetFigurePNG(t *testing.T) {
	h := newTestRouter(t, nil)

	for _, target := range []string{
		"/api/figures/deaths-v-conf.png",
		"/api/figures/ranked.png?metric=Mortality",
		"/api/figures/animal-products.png",
		"/api/figures/ranked.png?start=50&end=60",
		"/api/figures/ranked.png?start=0&end=0",
	} {
		rec := do(t, h, "GET", target, "")
		require.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

		_, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
		assert.NoError(t, err, target)
	}
}

func TestPostMapClick(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := do(t, h, "POST", "/api/figures/map/click", `{"points":[{"hovertext":"Japan"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]json.RawMessage
	decode(t, rec, &body)
	assert.Contains(t, body, "obesity")
	assert.Contains(t, body, "under")
	assert.Contains(t, body, "AP")
	assert.Contains(t, string(body["ftext"]), "Japan")

	rec = do(t, h, "POST", "/api/figures/map/click", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &body)
	assert.NotEmpty(t, body["ftext"])

	rec = do(t, h, "POST", "/api/figures/map/click", `{"points":[{}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTable(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := do(t, h, "GET", "/api/table?country=Brazil,Kiribati", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var table contracts.Table
	decode(t, rec, &table)
	require.Len(t, table.Data, 2)
	assert.Equal(t, "Brazil", table.Data[0].Country)
	assert.False(t, table.Data[1].Mortality.IsFinite())

	rec = do(t, h, "GET", "/api/table", "")
	decode(t, rec, &table)
	require.Len(t, table.Data, 1, "defaults to the layout selection")
	assert.Equal(t, "Brazil", table.Data[0].Country)
}

func TestGetTableXLSX(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := do(t, h, "GET", "/api/table.xlsx?country=Japan&country=Chile", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "covid.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(render.SheetCovid)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Japan", rows[1][0], "dataset order")
	assert.Equal(t, "Chile", rows[2][0])
}

func TestPostUpdate(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := do(t, h, "POST", "/api/update", `{"inputs":{"slider":[1,2]}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Outputs map[string]json.RawMessage `json:"outputs"`
	}
	decode(t, rec, &body)
	assert.Len(t, body.Outputs, 4)
	assert.Contains(t, body.Outputs, "mortality")

	rec = do(t, h, "POST", "/api/update", `{"inputs":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, "POST", "/api/update", `{"inputs":{"slider":[4,1]}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, "POST", "/api/update", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimit(t *testing.T) {
	h := newTestRouter(t, NewLimits(1, 1, nil))

	first := do(t, h, "GET", "/api/options", "")
	assert.Equal(t, http.StatusOK, first.Code)

	second := do(t, h, "GET", "/api/options", "")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))

	// health is outside the API subrouter
	assert.Equal(t, http.StatusOK, do(t, h, "GET", "/health", "").Code)
}

func TestNewLimits_Disabled(t *testing.T) {
	h := newTestRouter(t, NewLimits(0, 0, nil))

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do(t, h, "GET", "/api/options", "").Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}

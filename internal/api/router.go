package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/dietdash/internal/api/handlers"
	"github.com/wonny/dietdash/pkg/logger"
)

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: every route is registered in this function
func NewRouter(dash *handlers.DashboardHandler, ws *handlers.WSHandler, limits *Limits, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", dash.Health).Methods("GET")

	// Page + live updates
	r.HandleFunc("/", dash.Index).Methods("GET")
	r.Handle("/ws", ws).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	if limits != nil {
		api.Use(limits.Middleware(log))
	}

	api.HandleFunc("/options", dash.GetOptions).Methods("GET")
	api.HandleFunc("/update", dash.PostUpdate).Methods("POST")

	// Figures: fixed paths before {id}, PNG before JSON
	api.HandleFunc("/figures/ranked", dash.GetRanked).Methods("GET")
	api.HandleFunc("/figures/map/click", dash.PostMapClick).Methods("POST")
	api.HandleFunc("/figures/{id}.png", dash.GetFigurePNG).Methods("GET")
	api.HandleFunc("/figures/{id}", dash.GetFigure).Methods("GET")

	// Covid table
	api.HandleFunc("/table.xlsx", dash.GetTableXLSX).Methods("GET")
	api.HandleFunc("/table", dash.GetTable).Methods("GET")

	// Apply middleware
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRoutes wires all HTTP routes behind a permissive CORS layer.
func SetupRoutes(presHandler *PresentationHandler, wsHandler *WebSocketHandler, staticHandler *StaticHandler) http.Handler {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/presentations", presHandler.CreatePresentation).Methods(http.MethodPost)
	api.HandleFunc("/presentations", presHandler.ListPresentations).Methods(http.MethodGet)
	api.HandleFunc("/presentations/{id}", presHandler.GetPresentation).Methods(http.MethodGet)
	api.HandleFunc("/presentations/{id}/analyze", presHandler.AnalyzePresentation).Methods(http.MethodPost)
	api.HandleFunc("/presentations/{id}", presHandler.UpdatePresentation).Methods(http.MethodPut)
	api.HandleFunc("/presentations/{id}/activity", presHandler.GetActivity).Methods(http.MethodGet)
	api.HandleFunc("/health", healthCheck).Methods(http.MethodGet)

	router.HandleFunc("/ws", wsHandler.HandleWebSocket)
	router.HandleFunc("/", healthCheck).Methods(http.MethodGet)

	// Everything else is the SPA.
	router.PathPrefix("/").Handler(staticHandler)

	return cors(router)
}

// cors mirrors the permissive policy the React dev server needs.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "AI Presentation Coach backend running",
	})
}

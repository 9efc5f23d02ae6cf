package handlers

import (
	"net/http"
	"strings"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	videos := VideoHandler{Videos: deps.Videos}
	favorites := FavoriteHandler{Favorites: deps.Favorites}
	messages := MessageHandler{Messages: deps.Messages}
	uploads := UploadHandler{Store: deps.Uploads, MaxBytes: deps.MaxUploadBytes, Limiter: deps.UploadLimiter}

	mux.HandleFunc("GET /health", health.Handle)
	mux.HandleFunc("GET /videos", videos.List)
	mux.HandleFunc("POST /videos", videos.Create)
	mux.HandleFunc("POST /videos/upload", uploads.Video)
	mux.HandleFunc("POST /videos/upload-thumb", uploads.Thumb)
	mux.HandleFunc("GET /favorites/{userId}", favorites.List)
	mux.HandleFunc("POST /favorites", favorites.Create)
	mux.HandleFunc("DELETE /favorites/{userId}/{videoId}", favorites.Delete)
	mux.HandleFunc("GET /messages/{userId}", messages.List)
	mux.HandleFunc("POST /messages", messages.Create)

	if dir := strings.TrimSpace(deps.UploadDir); dir != "" {
		mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(dir))))
	}
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Videos         VideoStore
	Favorites      FavoriteStore
	Messages       MessageStore
	Uploads        UploadStore
	UploadLimiter  Limiter
	MaxUploadBytes int64
	// UploadDir is served at /uploads/ when set.
	UploadDir string
}

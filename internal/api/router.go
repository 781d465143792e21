package api

import (
	"net/http"

	_ "github.com/AlexZinkM/emotes-portal/docs"
	"github.com/AlexZinkM/emotes-portal/internal/handler"

	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRouter sets up router with handlers
func SetupRouter(sessionHandler *handler.SessionHandler) http.Handler {
	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	// Session endpoints
	mux.HandleFunc("/session", sessionHandler.State)
	mux.HandleFunc("/session/connect", sessionHandler.Connect)
	mux.HandleFunc("/session/input", sessionHandler.Input)
	mux.HandleFunc("/session/submit", sessionHandler.Submit)
	mux.HandleFunc("/session/initialize", sessionHandler.Initialize)

	return mux
}

package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhixinliu/medichat/backend/internal/handler/articles"
	chatHandler "github.com/zhixinliu/medichat/backend/internal/handler/chat"
	placesHandler "github.com/zhixinliu/medichat/backend/internal/handler/places"
	"github.com/zhixinliu/medichat/backend/internal/handler/stream"
	middlewarePkg "github.com/zhixinliu/medichat/backend/internal/middleware"
	"github.com/zhixinliu/medichat/backend/internal/model/article"
	aiService "github.com/zhixinliu/medichat/backend/internal/service/ai"
	chatService "github.com/zhixinliu/medichat/backend/internal/service/chat"
	placesService "github.com/zhixinliu/medichat/backend/internal/service/places"
	"github.com/zhixinliu/medichat/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services. aiSvc may be nil when no
// completion backend is configured.
func NewRouter(articleStore article.Store, chatSvc *chatService.Service, aiSvc *aiService.Service, placesSvc *placesService.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	articlesH := articles.New(articleStore)
	placesH := placesHandler.New(placesSvc)

	var responder chatService.Responder
	if aiSvc != nil {
		responder = aiSvc
	}
	chatH := chatHandler.New(responder, chatSvc)

	var streamH *stream.Handler
	if aiSvc != nil {
		streamH = stream.New(aiSvc, chatSvc)
	}

	r.Route("/api", func(api chi.Router) {
		articlesH.RegisterRoutes(api)
		placesH.RegisterRoutes(api)
		chatH.RegisterRoutes(api)

		api.Get("/sessions/{sessionID}/stream", func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, "sessionID")
			userMessage := r.URL.Query().Get("message")

			if streamH == nil {
				utils.RespondError(w, http.StatusServiceUnavailable, "assistant streaming unavailable")
				return
			}
			if userMessage == "" {
				utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
				return
			}

			if err := streamH.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
				log.Printf("[stream] error handling request: %v", err)
			}
		})
	})

	return r
}

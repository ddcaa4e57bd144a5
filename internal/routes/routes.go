package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/wanderlist/backend/internal/handlers"
)

type Options struct {
	Collections    *handlers.CollectionHandler
	Places         *handlers.PlacesHandler
	Identity       func(http.Handler) http.Handler
	AllowedOrigins []string
}

// New builds the full router: request middleware, health check, and the
// /api surface for collections, items and the places proxy.
func New(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/users/{userId}", func(r chi.Router) {
			if opts.Identity != nil {
				r.Use(opts.Identity)
			}

			r.Route("/collections", func(r chi.Router) {
				r.Post("/", opts.Collections.CreateCollection)
				r.Get("/", opts.Collections.ListCollections)

				r.Route("/{collectionId}", func(r chi.Router) {
					r.Get("/", opts.Collections.GetCollection)
					r.Put("/", opts.Collections.UpdateCollection)

					r.Route("/items", func(r chi.Router) {
						r.Post("/", opts.Collections.CreateLocation)
						r.Get("/", opts.Collections.ListLocations)

						r.Route("/{itemId}", func(r chi.Router) {
							r.Get("/", opts.Collections.GetLocation)
							r.Put("/", opts.Collections.UpdateLocation)
							r.Delete("/", opts.Collections.DeleteLocation)
						})
					})
				})
			})
		})

		r.Route("/places", func(r chi.Router) {
			r.Get("/search", opts.Places.Search)
			r.Get("/photo", opts.Places.Photo)
			r.Get("/{placeId}", opts.Places.Details)
		})
	})

	return r
}

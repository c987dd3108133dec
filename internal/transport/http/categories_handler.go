package http

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"quiz-runner/internal/domain"
)

// CategoryLister is implemented by question sources that can enumerate the
// categories they serve.
type CategoryLister interface {
	Categories(ctx context.Context) ([]domain.Category, error)
}

// CategoriesHandler serves the category list the rendering layer picks from.
func CategoriesHandler(lister CategoryLister, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := lister.Categories(r.Context())
		if err != nil {
			log.Warn("category listing failed", zap.Error(err))
			http.Error(w, "could not load categories", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(categories)
	}
}

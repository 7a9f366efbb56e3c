package admin

import (
	"net/http"

	"github.com/angelmondragon/phytopro-backend/api/responses"
	"github.com/angelmondragon/phytopro-backend/internal/stats"
	"github.com/angelmondragon/phytopro-backend/pkg/logger"
)

func Stats(svc stats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.Summary(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

package checkout

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/phytopro-backend/api/middleware"
	"github.com/angelmondragon/phytopro-backend/api/responses"
	"github.com/angelmondragon/phytopro-backend/api/validators"
	internalcheckout "github.com/angelmondragon/phytopro-backend/internal/checkout"
	pkgerrors "github.com/angelmondragon/phytopro-backend/pkg/errors"
	"github.com/angelmondragon/phytopro-backend/pkg/logger"
)

// CreateOrder places the order and returns the gateway redirect.
func CreateOrder(svc internalcheckout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input internalcheckout.CreateOrderInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if strings.TrimSpace(input.OriginURL) == "" {
			input.OriginURL = r.Header.Get("Origin")
		}

		result, err := svc.CreateOrder(r.Context(), middleware.UserIDFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Status polls the gateway and applies confirmation or expiry side effects.
func Status(svc internalcheckout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := strings.TrimSpace(chi.URLParam(r, "sessionId"))
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session id required"))
			return
		}
		status, err := svc.PollStatus(r.Context(), middleware.UserIDFromContext(r.Context()), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}

// ShippingQuote previews the shipping cost for ?subtotal=<euros>.
func ShippingQuote(svc internalcheckout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subtotal, err := validators.ParseQueryEuros(r, "subtotal")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if subtotal == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "subtotal is required").WithDetails(map[string]string{"field": "subtotal"}))
			return
		}
		responses.WriteSuccess(w, internalcheckout.QuoteFromHelpers(svc.Quote(*subtotal)))
	}
}

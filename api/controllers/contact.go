package controllers

import (
	"net/http"

	"github.com/angelmondragon/phytopro-backend/api/responses"
	"github.com/angelmondragon/phytopro-backend/api/validators"
	"github.com/angelmondragon/phytopro-backend/pkg/logger"
)

const (
	contactFieldMax   = 200
	contactMessageMax = 5000
)

type contactRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Message string `json:"message" validate:"required"`
}

// Contact accepts a storefront contact message. Messages are only logged.
func Contact(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req contactRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{
				"contact_name":    validators.SanitizeString(req.Name, contactFieldMax),
				"contact_email":   validators.SanitizeString(req.Email, contactFieldMax),
				"contact_subject": validators.SanitizeString(req.Subject, contactFieldMax),
				"contact_length":  len(validators.SanitizeString(req.Message, contactMessageMax)),
			})
			logg.Info(ctx, "contact.message_received")
		}
		responses.WriteSuccess(w, map[string]string{"message": "Message envoyé avec succès"})
	}
}

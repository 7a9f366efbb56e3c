package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/angelmondragon/phytopro-backend/api/responses"
	pkgerrors "github.com/angelmondragon/phytopro-backend/pkg/errors"
	"github.com/angelmondragon/phytopro-backend/pkg/logger"
)

const maxWebhookBytes = 1 << 20

type stripeHandler interface {
	Handle(ctx context.Context, payload []byte, signature string) error
}

type ackBody struct {
	Status string `json:"status"`
}

// StripeWebhook acknowledges every delivery with 200. Failures are logged
// and reported as {"status":"error"} so the provider does not retry forever.
func StripeWebhook(svc stripeHandler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
		if err != nil {
			logFailure(ctx, logg, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read webhook body"))
			responses.WriteRaw(w, http.StatusOK, ackBody{Status: "error"})
			return
		}

		if err := svc.Handle(ctx, payload, r.Header.Get("Stripe-Signature")); err != nil {
			logFailure(ctx, logg, err)
			responses.WriteRaw(w, http.StatusOK, ackBody{Status: "error"})
			return
		}
		responses.WriteRaw(w, http.StatusOK, ackBody{Status: "success"})
	}
}

func logFailure(ctx context.Context, logg *logger.Logger, err error) {
	if logg == nil {
		return
	}
	if pkgerrors.IsCode(err, pkgerrors.CodeInvalidSignature) {
		logg.Warn(ctx, "stripe.webhook.invalid_signature")
		return
	}
	logg.Error(ctx, "stripe.webhook.failed", err)
}

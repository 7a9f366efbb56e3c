package helpers

import (
	"net/url"
	"strings"

	pkgerrors "github.com/angelmondragon/phytopro-backend/pkg/errors"
)

const (
	successPath = "/commande/succes?session_id={CHECKOUT_SESSION_ID}"
	cancelPath  = "/panier"
)

// RedirectURLs builds the gateway success and cancel URLs from the storefront origin.
func RedirectURLs(origin string) (success, cancel string, err error) {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if origin == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "origin_url is required")
	}
	parsed, parseErr := url.Parse(origin)
	if parseErr != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "origin_url must be an absolute http(s) url")
	}
	return origin + successPath, origin + cancelPath, nil
}

package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/phytopro-backend/api/responses"
	"github.com/angelmondragon/phytopro-backend/api/validators"
	"github.com/angelmondragon/phytopro-backend/internal/catalog"
	"github.com/angelmondragon/phytopro-backend/pkg/logger"
	"github.com/angelmondragon/phytopro-backend/pkg/pagination"
)

// ProductList serves the public catalog with its query filters.
func ProductList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := parseListFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		skip, err := validators.ParseQueryInt(r, "skip", 0, 0, 1<<30)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), filters, pagination.OffsetParams{Skip: skip, Limit: limit})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func parseListFilters(r *http.Request) (catalog.ListFilters, error) {
	filters := catalog.ListFilters{
		Category:    validators.ParseQueryString(r, "category"),
		Subcategory: validators.ParseQueryString(r, "subcategory"),
		Brand:       validators.ParseQueryString(r, "brand"),
		Search:      strings.TrimSpace(r.URL.Query().Get("search")),
	}
	var err error
	if filters.IsBio, err = validators.ParseQueryBool(r, "is_bio"); err != nil {
		return filters, err
	}
	if filters.MinPriceCents, err = validators.ParseQueryEuros(r, "min_price"); err != nil {
		return filters, err
	}
	if filters.MaxPriceCents, err = validators.ParseQueryEuros(r, "max_price"); err != nil {
		return filters, err
	}
	return filters, nil
}

func ProductFeatured(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.Featured(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func ProductBySlug(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		product, err := svc.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func CategoryList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

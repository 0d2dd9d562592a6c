package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sitheefoods/storefront-backend/api/responses"
	"github.com/sitheefoods/storefront-backend/api/validators"
	"github.com/sitheefoods/storefront-backend/internal/products"
	pkgerrors "github.com/sitheefoods/storefront-backend/pkg/errors"
	"github.com/sitheefoods/storefront-backend/pkg/logger"
	"github.com/sitheefoods/storefront-backend/pkg/pagination"
)

// CatalogAPI is the slice of the catalog client these handlers use.
type CatalogAPI interface {
	List(ctx context.Context, params pagination.Params, category string) (*products.Page, error)
	Get(ctx context.Context, productID string) (*products.Product, error)
}

// ProductList proxies the paginated catalog.
func ProductList(client CatalogAPI, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParseQueryInt(r, "page", 1, 1, 1<<20)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := client.List(r.Context(), pagination.Params{Page: page, Limit: limit}, r.URL.Query().Get("category"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ProductDetail proxies a single catalog entry.
func ProductDetail(client CatalogAPI, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID := chi.URLParam(r, "productId")
		if productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}

		product, err := client.Get(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

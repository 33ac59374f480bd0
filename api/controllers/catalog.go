package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/shopdesk/api/responses"
	"github.com/angelmondragon/shopdesk/internal/demostore"
	"github.com/angelmondragon/shopdesk/pkg/logger"
)

type CatalogService interface {
	ListProducts(ctx context.Context) ([]demostore.NamedDTO, error)
	ListMeasurements(ctx context.Context) ([]demostore.NamedDTO, error)
}

func ProductsList(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListProducts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, responses.DataKey, items, nil)
	}
}

func MeasurementsList(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListMeasurements(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, responses.DataKey, items, nil)
	}
}

package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/shopdesk/api/responses"
	"github.com/angelmondragon/shopdesk/api/validators"
	"github.com/angelmondragon/shopdesk/internal/demostore"
	"github.com/angelmondragon/shopdesk/pkg/logger"
	"github.com/angelmondragon/shopdesk/pkg/pagination"
	"github.com/angelmondragon/shopdesk/pkg/types"
)

// salesKey is the envelope key of the sales list.
const salesKey = "sales"

type SaleService interface {
	ListSales(ctx context.Context, params pagination.Params) ([]demostore.SaleDTO, pagination.Meta, error)
	CreateSale(ctx context.Context, in demostore.SaleInput) (demostore.SaleDTO, error)
	UpdateSale(ctx context.Context, id types.ID, in demostore.SaleInput) (demostore.SaleDTO, error)
	MarkDelivered(ctx context.Context, id types.ID) (demostore.SaleDTO, error)
	RevertDelivery(ctx context.Context, id types.ID) (demostore.SaleDTO, error)
	DeleteSale(ctx context.Context, id types.ID) error
}

// SalesList serves GET /sales?page=&limit=; the list is always paged.
func SalesList(svc SaleService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, meta, err := svc.ListSales(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, salesKey, items, &meta)
	}
}

func SaleCreate(svc SaleService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload demostore.SaleInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		created, err := svc.CreateSale(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func SaleUpdate(svc SaleService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload demostore.SaleInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updated, err := svc.UpdateSale(r.Context(), pathID(r), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// SaleMarkDelivered serves PUT /sales/mark-delivered/{id}. A stock shortfall
// answers 409 with the shortfall spelled out in message.
func SaleMarkDelivered(svc SaleService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sale, err := svc.MarkDelivered(r.Context(), pathID(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sale)
	}
}

func SaleRevertDelivery(svc SaleService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sale, err := svc.RevertDelivery(r.Context(), pathID(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sale)
	}
}

func SaleDelete(svc SaleService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteSale(r.Context(), pathID(r)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "Sale deleted")
	}
}

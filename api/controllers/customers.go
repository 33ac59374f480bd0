package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/shopdesk/api/responses"
	"github.com/angelmondragon/shopdesk/api/validators"
	"github.com/angelmondragon/shopdesk/internal/demostore"
	"github.com/angelmondragon/shopdesk/pkg/logger"
	"github.com/angelmondragon/shopdesk/pkg/types"
)

type CustomerService interface {
	ListCustomers(ctx context.Context, filter demostore.CustomerFilter) ([]demostore.CustomerDTO, error)
	CreateCustomer(ctx context.Context, in demostore.CustomerInput) (demostore.CustomerDTO, error)
	UpdateCustomer(ctx context.Context, id types.ID, in demostore.CustomerInput) (demostore.CustomerDTO, error)
	DeleteCustomer(ctx context.Context, id types.ID) error
}

// CustomersAll serves GET /customers/all.
func CustomersAll(svc CustomerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListCustomers(r.Context(), demostore.CustomerFilter{})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, responses.DataKey, items, nil)
	}
}

// CustomersFiltered serves GET /customers?city=&area=.
func CustomersFiltered(svc CustomerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		filter := demostore.CustomerFilter{
			City: validators.SanitizeFilter(query.Get("city"), validators.MaxFilterLen),
			Area: validators.SanitizeFilter(query.Get("area"), validators.MaxFilterLen),
		}
		items, err := svc.ListCustomers(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, responses.DataKey, items, nil)
	}
}

func CustomerCreate(svc CustomerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload demostore.CustomerInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		created, err := svc.CreateCustomer(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func CustomerUpdate(svc CustomerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload demostore.CustomerInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updated, err := svc.UpdateCustomer(r.Context(), pathID(r), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func CustomerDelete(svc CustomerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteCustomer(r.Context(), pathID(r)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "Customer deleted")
	}
}

func pathID(r *http.Request) types.ID {
	return types.ID(chi.URLParam(r, "id"))
}

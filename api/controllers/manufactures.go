package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/shopdesk/api/responses"
	"github.com/angelmondragon/shopdesk/api/validators"
	"github.com/angelmondragon/shopdesk/internal/demostore"
	pkgerrors "github.com/angelmondragon/shopdesk/pkg/errors"
	"github.com/angelmondragon/shopdesk/pkg/logger"
	"github.com/angelmondragon/shopdesk/pkg/pagination"
	"github.com/angelmondragon/shopdesk/pkg/types"
)

type ManufactureService interface {
	ListManufactures(ctx context.Context, filter demostore.ManufactureFilter) ([]demostore.ManufactureDTO, error)
	PageManufactures(ctx context.Context, filter demostore.ManufactureFilter, params pagination.Params) ([]demostore.ManufactureDTO, pagination.Meta, error)
	CreateManufacture(ctx context.Context, in demostore.ManufactureInput) (demostore.ManufactureDTO, error)
	UpdateManufacture(ctx context.Context, id types.ID, in demostore.ManufactureInput) (demostore.ManufactureDTO, error)
	DeleteManufacture(ctx context.Context, id types.ID) error
}

func ManufacturesAll(svc ManufactureService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListManufactures(r.Context(), demostore.ManufactureFilter{})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, responses.DataKey, items, nil)
	}
}

// ManufacturesFiltered serves GET /manufactures?startDate=&endDate=. A page
// parameter switches to a paged response with a pagination object.
func ManufacturesFiltered(svc ManufactureService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseManufactureFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if strings.TrimSpace(r.URL.Query().Get("page")) == "" {
			items, err := svc.ListManufactures(r.Context(), filter)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteList(w, responses.DataKey, items, nil)
			return
		}

		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, meta, err := svc.PageManufactures(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, responses.DataKey, items, &meta)
	}
}

func ManufactureCreate(svc ManufactureService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload demostore.ManufactureInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		created, err := svc.CreateManufacture(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func ManufactureUpdate(svc ManufactureService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload demostore.ManufactureInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updated, err := svc.UpdateManufacture(r.Context(), pathID(r), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func ManufactureDelete(svc ManufactureService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteManufacture(r.Context(), pathID(r)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "Manufacturing record deleted")
	}
}

func parseManufactureFilter(r *http.Request) (demostore.ManufactureFilter, error) {
	start, err := validators.ParseQueryDate(r, "startDate")
	if err != nil {
		return demostore.ManufactureFilter{}, err
	}
	end, err := validators.ParseQueryDate(r, "endDate")
	if err != nil {
		return demostore.ManufactureFilter{}, err
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return demostore.ManufactureFilter{}, pkgerrors.New(pkgerrors.CodeValidation, "endDate must not be before startDate")
	}
	return demostore.ManufactureFilter{StartDate: start, EndDate: end}, nil
}

func parsePageParams(r *http.Request) (pagination.Params, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 1_000_000)
	if err != nil {
		return pagination.Params{}, err
	}
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Page: page, Limit: limit}, nil
}

package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/shopdesk/api/responses"
	"github.com/angelmondragon/shopdesk/internal/demostore"
	"github.com/angelmondragon/shopdesk/pkg/logger"
)

type StockService interface {
	ListStocks(ctx context.Context) ([]demostore.StockDTO, error)
}

func StocksList(svc StockService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListStocks(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, "stocks", items, nil)
	}
}

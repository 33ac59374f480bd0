package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/shopdesk/pkg/errors"
	"github.com/angelmondragon/shopdesk/pkg/metrics"
	"github.com/angelmondragon/shopdesk/pkg/types"
)

type widget struct {
	ID   types.ID `json:"id"`
	Name string   `json:"name"`
}

var widgetSpec = ResourceSpec{
	Name:    "widgets",
	ListAll: "/widgets/all",
	List:    "/widgets",
	Create:  "/widgets/add",
	Item:    "/widgets",
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := New(Params{BaseURL: srv.URL})
	require.NoError(t, err)
	return client, srv
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestNewRejectsRelativeBaseURL(t *testing.T) {
	_, err := New(Params{BaseURL: "localhost:5000"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = New(Params{})
	require.Error(t, err)
}

func TestListWithoutFiltersUsesListAll(t *testing.T) {
	var gotPath, gotQuery string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, map[string]any{"data": []map[string]any{{"id": 1, "name": "bolt"}}})
	}))

	res := NewResource[widget](client, widgetSpec)
	out, err := res.List(context.Background(), Query{Filters: map[string]string{"city": "", "area": "  "}})
	require.NoError(t, err)

	assert.Equal(t, "/widgets/all", gotPath)
	assert.Empty(t, gotQuery)
	require.Len(t, out.Items, 1)
	assert.Equal(t, types.ID("1"), out.Items[0].ID)
	assert.Nil(t, out.Pagination)
}

func TestListWithFiltersOmitsEmptyValues(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		writeJSON(w, http.StatusOK, map[string]any{"data": []any{}})
	}))

	res := NewResource[widget](client, widgetSpec)
	out, err := res.List(context.Background(), Query{Filters: map[string]string{"city": "Surat", "area": ""}})
	require.NoError(t, err)

	assert.Equal(t, "/widgets", gotPath)
	assert.Equal(t, map[string][]string{"city": {"Surat"}}, gotQuery)
	assert.NotNil(t, out.Items)
	assert.Empty(t, out.Items)
}

func TestListDecodesPaginationAndCustomKey(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, map[string]any{
			"sales": []map[string]any{{"id": "s-1", "name": "x"}},
			"pagination": map[string]any{
				"currentPage": 2, "totalPages": 3, "totalCount": 25, "limit": 10, "hasNext": true, "hasPrev": true,
			},
		})
	}))

	spec := widgetSpec
	spec.ListKey = "sales"
	out, err := NewResource[widget](client, spec).List(context.Background(), Query{Page: 2, Limit: 10})
	require.NoError(t, err)
	require.NotNil(t, out.Pagination)
	assert.Equal(t, 3, out.Pagination.TotalPages)
	assert.Equal(t, 25, out.Pagination.TotalCount)
	assert.Equal(t, types.ID("s-1"), out.Items[0].ID)
}

func TestListMissingEnvelopeKeyIsDecodeError(t *testing.T) {
	cases := map[string]string{
		"missing key": `{"items":[]}`,
		"null key":    `{"data":null}`,
		"not object":  `[1,2,3]`,
		"wrong shape": `{"data":{"id":1}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, body)
			}))
			_, err := NewResource[widget](client, widgetSpec).List(context.Background(), Query{})
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeDecode, pkgerrors.CodeOf(err))
		})
	}
}

func TestServerErrorCarriesStatusAndMessage(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "database offline"})
	}))

	_, err := NewResource[widget](client, widgetSpec).List(context.Background(), Query{})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeServer, typed.Code())
	assert.Equal(t, http.StatusInternalServerError, typed.Status())
	assert.Equal(t, "database offline", typed.Message())
	assert.Equal(t, "database offline", pkgerrors.UserMessage(err))
}

func TestServerErrorWithoutBodyUsesStatusText(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	err := NewResource[widget](client, widgetSpec).Remove(context.Background(), "4")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsServer(err))
	assert.Contains(t, pkgerrors.UserMessage(err), "502")
}

func TestCreateRejectionIsValidationError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "shop_name is required"})
	}))

	_, err := NewResource[widget](client, widgetSpec).Create(context.Background(), map[string]string{"name": ""})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
	assert.Equal(t, http.StatusBadRequest, pkgerrors.As(err).Status())
	assert.Equal(t, "shop_name is required", pkgerrors.UserMessage(err))
}

func TestActionConflictStaysServerError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "Insufficient stock"})
	}))

	_, err := NewResource[widget](client, widgetSpec).Action(context.Background(), "deliver", http.MethodPut, "/widgets/mark-delivered", "9")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsServer(err))
	assert.Equal(t, http.StatusConflict, pkgerrors.As(err).Status())
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := New(Params{BaseURL: url})
	require.NoError(t, err)
	_, err = NewResource[widget](client, widgetSpec).List(context.Background(), Query{})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNetwork(err))
}

func TestCreateSendsJSONAndHeaders(t *testing.T) {
	var gotMethod, gotPath, gotType, gotRequestID, gotIdem string
	var gotBody map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotRequestID = r.Header.Get(requestIDHeader)
		gotIdem = r.Header.Get(idempotencyHeader)
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		writeJSON(w, http.StatusCreated, map[string]any{"data": map[string]any{"id": 12, "name": "nut"}})
	}))

	created, err := NewResource[widget](client, widgetSpec).Create(context.Background(), map[string]string{"name": "nut"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/widgets/add", gotPath)
	assert.Equal(t, "application/json", gotType)
	assert.NotEmpty(t, gotRequestID)
	assert.NotEmpty(t, gotIdem)
	assert.Equal(t, "nut", gotBody["name"])
	assert.Equal(t, widget{ID: "12", Name: "nut"}, created)
}

func TestCreateWithoutIDIsDecodeError(t *testing.T) {
	bodies := []any{
		map[string]any{"data": map[string]any{"name": "nut"}},
		map[string]any{"data": map[string]any{"id": nil, "name": "nut"}},
		map[string]any{"data": map[string]any{"id": " ", "name": "nut"}},
	}
	for _, body := range bodies {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusCreated, body)
		}))
		created, err := NewResource[widget](client, widgetSpec).Create(context.Background(), map[string]string{"name": "nut"})
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeDecode, pkgerrors.CodeOf(err))
		assert.Equal(t, widget{}, created)
	}
}

func TestUpdateAndRemoveTargetItemRoute(t *testing.T) {
	var calls []string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		assert.Empty(t, r.Header.Get(idempotencyHeader))
		if r.Method == http.MethodDelete {
			writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"id": 7, "name": "renamed"}})
	}))

	res := NewResource[widget](client, widgetSpec)
	updated, err := res.Update(context.Background(), "7", map[string]string{"name": "renamed"})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	require.NoError(t, res.Remove(context.Background(), "7"))

	assert.Equal(t, []string{"PUT /widgets/7", "DELETE /widgets/7"}, calls)
}

func TestItemCallsRequireID(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	}))
	res := NewResource[widget](client, widgetSpec)

	_, err := res.Update(context.Background(), "", nil)
	assert.True(t, pkgerrors.IsValidation(err))
	assert.True(t, pkgerrors.IsValidation(res.Remove(context.Background(), " ")))
}

func TestBaseURLPathPrefixIsKept(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		writeJSON(w, http.StatusOK, map[string]any{"data": []any{}})
	}))
	t.Cleanup(srv.Close)

	client, err := New(Params{BaseURL: srv.URL + "/api/"})
	require.NoError(t, err)
	_, err = NewResource[widget](client, widgetSpec).List(context.Background(), Query{})
	require.NoError(t, err)
	assert.Equal(t, "/api/widgets/all", gotPath)
}

func TestMetricsRecordOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewGatewayMetrics(reg)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/widgets/all" {
			writeJSON(w, http.StatusOK, map[string]any{"data": []any{}})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client, err := New(Params{BaseURL: srv.URL, Metrics: m})
	require.NoError(t, err)
	res := NewResource[widget](client, widgetSpec)
	_, _ = res.List(context.Background(), Query{})
	_ = res.Remove(context.Background(), "1")

	families, err := reg.Gather()
	require.NoError(t, err)
	outcomes := map[string]float64{}
	for _, family := range families {
		if family.GetName() != "gateway_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "outcome" {
					outcomes[label.GetValue()] += metric.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, map[string]float64{"ok": 1, "SERVER_ERROR": 1}, outcomes)
}

func TestQueryString(t *testing.T) {
	q := Query{Filters: map[string]string{"startDate": "2024-12-01", "endDate": "2024-12-31"}, Page: 2}
	assert.Equal(t, "endDate=2024-12-31&startDate=2024-12-01&page=2", q.String())
}

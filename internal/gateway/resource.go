package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/shopdesk/pkg/errors"
	"github.com/angelmondragon/shopdesk/pkg/pagination"
	"github.com/angelmondragon/shopdesk/pkg/types"
)

// ResourceSpec is the route table and envelope layout of one backend entity.
type ResourceSpec struct {
	// Name labels logs and metrics.
	Name string
	// ListAll is used when a list call carries no query parameters.
	ListAll string
	List    string
	Create  string
	// Item is the prefix of /{id} routes.
	Item string
	// ListKey names the field that wraps list payloads.
	ListKey string
	// ItemKey names the field that wraps single-entity payloads.
	ItemKey string
}

// Query is the filter/page snapshot a list call is issued for.
type Query struct {
	Filters map[string]string
	Page    int
	Limit   int
}

// Values serializes the query. Empty filter values are omitted entirely.
func (q Query) Values() url.Values {
	values := url.Values{}
	for key, value := range q.Filters {
		if strings.TrimSpace(value) == "" {
			continue
		}
		values.Set(key, value)
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	return values
}

// String renders the query deterministically for logs.
func (q Query) String() string {
	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys)+2)
	for _, k := range keys {
		parts = append(parts, k+"="+q.Filters[k])
	}
	if q.Page > 0 {
		parts = append(parts, fmt.Sprintf("page=%d", q.Page))
	}
	if q.Limit > 0 {
		parts = append(parts, fmt.Sprintf("limit=%d", q.Limit))
	}
	return strings.Join(parts, "&")
}

// ListResult is one decoded list response.
type ListResult[E any] struct {
	Items      []E
	Pagination *pagination.Meta
}

// Resource issues the generic CRUD calls for entity type E.
type Resource[E any] struct {
	client *Client
	spec   ResourceSpec
}

func NewResource[E any](client *Client, spec ResourceSpec) *Resource[E] {
	if spec.ListKey == "" {
		spec.ListKey = "data"
	}
	if spec.ItemKey == "" {
		spec.ItemKey = "data"
	}
	return &Resource[E]{client: client, spec: spec}
}

func (r *Resource[E]) Name() string { return r.spec.Name }

func (r *Resource[E]) List(ctx context.Context, q Query) (ListResult[E], error) {
	values := q.Values()
	path := r.spec.List
	if len(values) == 0 && r.spec.ListAll != "" {
		path = r.spec.ListAll
	}
	body, err := r.client.Do(ctx, Request{
		Resource:  r.spec.Name,
		Operation: "list",
		Method:    http.MethodGet,
		Path:      path,
		Query:     values,
	})
	if err != nil {
		return ListResult[E]{}, err
	}
	return decodeList[E](body, r.spec.ListKey)
}

// Create posts payload and returns the server-assigned entity. A created
// entity without an "id" is a decode error: nothing could address it later.
func (r *Resource[E]) Create(ctx context.Context, payload any) (E, error) {
	body, err := r.client.Do(ctx, Request{
		Resource:     r.spec.Name,
		Operation:    "create",
		Method:       http.MethodPost,
		Path:         r.spec.Create,
		Body:         payload,
		PayloadCheck: true,
		Idempotent:   true,
	})
	if err != nil {
		var zero E
		return zero, err
	}
	item, err := decodeItem[E](body, r.spec.ItemKey)
	if err != nil {
		return item, err
	}
	if err := requireID(body, r.spec.ItemKey); err != nil {
		var zero E
		return zero, err
	}
	return item, nil
}

func (r *Resource[E]) Update(ctx context.Context, id types.ID, payload any) (E, error) {
	var zero E
	path, err := r.itemPath(id)
	if err != nil {
		return zero, err
	}
	body, err := r.client.Do(ctx, Request{
		Resource:     r.spec.Name,
		Operation:    "update",
		Method:       http.MethodPut,
		Path:         path,
		Body:         payload,
		PayloadCheck: true,
	})
	if err != nil {
		return zero, err
	}
	return decodeItem[E](body, r.spec.ItemKey)
}

func (r *Resource[E]) Remove(ctx context.Context, id types.ID) error {
	path, err := r.itemPath(id)
	if err != nil {
		return err
	}
	_, err = r.client.Do(ctx, Request{
		Resource:  r.spec.Name,
		Operation: "delete",
		Method:    http.MethodDelete,
		Path:      path,
	})
	return err
}

// Action calls a dedicated transition endpoint (prefix/{id}) and decodes the
// resulting entity. Transitions are not generic updates: the server applies
// side effects beyond a field change.
func (r *Resource[E]) Action(ctx context.Context, operation, method, prefix string, id types.ID) (E, error) {
	var zero E
	if id.IsZero() {
		return zero, pkgerrors.New(pkgerrors.CodeValidation, "id is required")
	}
	body, err := r.client.Do(ctx, Request{
		Resource:   r.spec.Name,
		Operation:  operation,
		Method:     method,
		Path:       strings.TrimRight(prefix, "/") + "/" + url.PathEscape(id.String()),
		Idempotent: true,
	})
	if err != nil {
		return zero, err
	}
	return decodeItem[E](body, r.spec.ItemKey)
}

func (r *Resource[E]) itemPath(id types.ID) (string, error) {
	if id.IsZero() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "id is required")
	}
	return strings.TrimRight(r.spec.Item, "/") + "/" + url.PathEscape(id.String()), nil
}

func decodeEnvelope(body []byte) (map[string]json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDecode, err, "response is not a JSON object")
	}
	return envelope, nil
}

func field(envelope map[string]json.RawMessage, key string) (json.RawMessage, error) {
	raw, ok := envelope[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, pkgerrors.New(pkgerrors.CodeDecode, fmt.Sprintf("response is missing %q", key))
	}
	return raw, nil
}

func decodeList[E any](body []byte, key string) (ListResult[E], error) {
	envelope, err := decodeEnvelope(body)
	if err != nil {
		return ListResult[E]{}, err
	}
	raw, err := field(envelope, key)
	if err != nil {
		return ListResult[E]{}, err
	}
	var items []E
	if err := json.Unmarshal(raw, &items); err != nil {
		return ListResult[E]{}, pkgerrors.Wrap(pkgerrors.CodeDecode, err, fmt.Sprintf("%q is not a list of the expected shape", key))
	}
	if items == nil {
		items = []E{}
	}

	result := ListResult[E]{Items: items}
	if rawMeta, ok := envelope["pagination"]; ok && !bytes.Equal(bytes.TrimSpace(rawMeta), []byte("null")) {
		var meta pagination.Meta
		if err := json.Unmarshal(rawMeta, &meta); err != nil {
			return ListResult[E]{}, pkgerrors.Wrap(pkgerrors.CodeDecode, err, "invalid pagination object")
		}
		result.Pagination = &meta
	}
	return result, nil
}

// requireID checks that the entity under key carries a non-empty "id".
func requireID(body []byte, key string) error {
	envelope, err := decodeEnvelope(body)
	if err != nil {
		return err
	}
	raw, err := field(envelope, key)
	if err != nil {
		return err
	}
	var withID struct {
		ID types.ID `json:"id"`
	}
	if err := json.Unmarshal(raw, &withID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDecode, err, fmt.Sprintf("%q has an unexpected shape", key))
	}
	if withID.ID.IsZero() {
		return pkgerrors.New(pkgerrors.CodeDecode, fmt.Sprintf("created entity under %q has no id", key))
	}
	return nil
}

func decodeItem[E any](body []byte, key string) (E, error) {
	var item E
	envelope, err := decodeEnvelope(body)
	if err != nil {
		return item, err
	}
	raw, err := field(envelope, key)
	if err != nil {
		return item, err
	}
	if err := json.Unmarshal(raw, &item); err != nil {
		return item, pkgerrors.Wrap(pkgerrors.CodeDecode, err, fmt.Sprintf("%q has an unexpected shape", key))
	}
	return item, nil
}

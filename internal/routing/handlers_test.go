package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pelyams/inventory_items_service/internal/domain"
)

const (
	validId   = "65f1c0a2b3c4d5e6f7a8b9c0"
	invalidId = "not-an-id"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ListItems(ctx context.Context) ([]domain.Item, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Item), args.Error(1)
}

func (m *MockService) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*domain.Item), args.Error(1)
}

func (m *MockService) CreateItem(ctx context.Context, item domain.ItemInput) (*domain.Item, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(*domain.Item), args.Error(1)
}

func (m *MockService) UpdateItem(ctx context.Context, id string, item domain.ItemInput) (*domain.Item, error) {
	args := m.Called(ctx, id, item)
	return args.Get(0).(*domain.Item), args.Error(1)
}

func (m *MockService) DeleteItem(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func ptr[T any](v T) *T {
	return &v
}

type HandlerTestSuite struct {
	suite.Suite
	svc    *MockService
	logs   *observer.ObservedLogs
	server http.Handler
}

func (suite *HandlerTestSuite) SetupTest() {
	suite.svc = new(MockService)
	core, logs := observer.New(zapcore.InfoLevel)
	suite.logs = logs
	suite.server = NewRouter(NewItemHandler(suite.svc), "", zap.New(core)).SetupRoutes()
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

func (suite *HandlerTestSuite) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	suite.server.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func (suite *HandlerTestSuite) TestListItems() {
	t := suite.T()
	items := []domain.Item{
		{ID: validId, Name: "Widget", UnitPrice: 9.99, Quantity: 10},
	}
	suite.svc.On("ListItems", mock.Anything).Return(items, nil).Once()

	rec := suite.do(http.MethodGet, "/api/items", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, items, decodeBody[[]domain.Item](t, rec))

	suite.svc.On("ListItems", mock.Anything).Return([]domain.Item{}, nil).Once()
	rec = suite.do(http.MethodGet, "/api/items", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	suite.svc.On("ListItems", mock.Anything).
		Return([]domain.Item(nil), fmt.Errorf("%w: connection refused", domain.ErrDependency)).Once()
	rec = suite.do(http.MethodGet, "/api/items", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "dependency failure: connection refused", decodeBody[map[string]string](t, rec)["error"])
}

func (suite *HandlerTestSuite) TestGetItem() {
	testCases := []struct {
		name         string
		id           string
		item         *domain.Item
		err          error
		expectedCode int
		expectedBody string
	}{
		{
			name:         "found",
			id:           validId,
			item:         &domain.Item{ID: validId, Name: "Widget", UnitPrice: 9.99, Quantity: 10},
			expectedCode: http.StatusOK,
			expectedBody: `{"id":"` + validId + `","name":"Widget","unitPrice":9.99,"quantity":10}`,
		},
		{
			name:         "invalid id",
			id:           invalidId,
			err:          fmt.Errorf("%w: %q", domain.ErrInvalidIdentifier, invalidId),
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"error":"Invalid ID"}`,
		},
		{
			name:         "not found",
			id:           validId,
			err:          fmt.Errorf("%w: no item with id %s", domain.ErrNotFound, validId),
			expectedCode: http.StatusNotFound,
			expectedBody: `{"error":"Item not found"}`,
		},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			t := suite.T()
			suite.svc.On("GetItem", mock.Anything, tc.id).Return(tc.item, tc.err).Once()

			rec := suite.do(http.MethodGet, "/api/items/"+tc.id, "")
			assert.Equal(t, tc.expectedCode, rec.Code)
			assert.JSONEq(t, tc.expectedBody, rec.Body.String())
		})
	}
}

func (suite *HandlerTestSuite) TestCreateItem() {
	t := suite.T()
	in := domain.ItemInput{Name: "Widget", UnitPrice: ptr(9.99), Quantity: ptr(int64(10))}
	created := in.ToItem(validId)
	suite.svc.On("CreateItem", mock.Anything, in).Return(&created, nil).Once()

	rec := suite.do(http.MethodPost, "/api/items", `{"name":"Widget","unitPrice":9.99,"quantity":10}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, created, decodeBody[domain.Item](t, rec))

	empty := domain.ItemInput{Name: "", UnitPrice: ptr(5.0), Quantity: ptr(int64(1))}
	suite.svc.On("CreateItem", mock.Anything, empty).
		Return((*domain.Item)(nil), fmt.Errorf("%w: Name (required)", domain.ErrInvalidInput)).Once()

	rec = suite.do(http.MethodPost, "/api/items", `{"name":"","unitPrice":5,"quantity":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid data"}`, rec.Body.String())
	suite.svc.AssertExpectations(t)
}

func (suite *HandlerTestSuite) TestCreateItemUndecodableBody() {
	t := suite.T()
	suite.svc.On("CreateItem", mock.Anything, domain.ItemInput{}).
		Return((*domain.Item)(nil), fmt.Errorf("%w: Name (required)", domain.ErrInvalidInput)).Once()

	rec := suite.do(http.MethodPost, "/api/items", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid data"}`, rec.Body.String())

	entries := suite.logs.FilterMessage("request completed with errors").All()
	require.Len(t, entries, 1)
	assert.Contains(t, fmt.Sprint(entries[0].ContextMap()["errors"]), "failed to decode payload")
}

func (suite *HandlerTestSuite) TestCreateItemRejectedBodies() {
	testCases := []struct {
		name string
		body string
	}{
		{
			name: "trailing data after the object",
			body: `{"name":"Widget","unitPrice":9.99,"quantity":10} {"name":"Gadget"}`,
		},
		{
			name: "body over the size limit",
			body: `{"name":"` + strings.Repeat("w", maxBodyBytes) + `","unitPrice":1,"quantity":1}`,
		},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			t := suite.T()
			suite.svc.On("CreateItem", mock.Anything, domain.ItemInput{}).
				Return((*domain.Item)(nil), fmt.Errorf("%w: Name (required)", domain.ErrInvalidInput)).Once()

			rec := suite.do(http.MethodPost, "/api/items", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error":"Invalid data"}`, rec.Body.String())
			suite.svc.AssertExpectations(t)
		})
	}
}

func (suite *HandlerTestSuite) TestUpdateItem() {
	t := suite.T()
	in := domain.ItemInput{Name: "Gizmo", UnitPrice: ptr(1.5), Quantity: ptr(int64(3))}
	updated := in.ToItem(validId)
	suite.svc.On("UpdateItem", mock.Anything, validId, in).Return(&updated, nil).Once()

	rec := suite.do(http.MethodPut, "/api/items/"+validId, `{"name":"Gizmo","unitPrice":1.5,"quantity":3}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, updated, decodeBody[domain.Item](t, rec))

	suite.svc.On("UpdateItem", mock.Anything, validId, in).
		Return((*domain.Item)(nil), fmt.Errorf("%w: no item with id %s", domain.ErrNotFound, validId)).Once()
	rec = suite.do(http.MethodPut, "/api/items/"+validId, `{"name":"Gizmo","unitPrice":1.5,"quantity":3}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Item not found"}`, rec.Body.String())
}

func (suite *HandlerTestSuite) TestUpdateItemInvalidIdWins() {
	t := suite.T()
	suite.svc.On("UpdateItem", mock.Anything, invalidId, domain.ItemInput{}).
		Return((*domain.Item)(nil), fmt.Errorf("%w: %q", domain.ErrInvalidIdentifier, invalidId)).Once()

	rec := suite.do(http.MethodPut, "/api/items/"+invalidId, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid ID"}`, rec.Body.String())
	suite.svc.AssertExpectations(t)
}

func (suite *HandlerTestSuite) TestDeleteItem() {
	t := suite.T()
	suite.svc.On("DeleteItem", mock.Anything, validId).Return(nil).Once()

	rec := suite.do(http.MethodDelete, "/api/items/"+validId, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Item deleted"}`, rec.Body.String())

	suite.svc.On("DeleteItem", mock.Anything, validId).
		Return(fmt.Errorf("%w: no item with id %s", domain.ErrNotFound, validId)).Once()
	rec = suite.do(http.MethodDelete, "/api/items/"+validId, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	suite.svc.On("DeleteItem", mock.Anything, validId).
		Return(fmt.Errorf("%w: server selection timeout", domain.ErrDependency)).Once()
	rec = suite.do(http.MethodDelete, "/api/items/"+validId, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Len(t, suite.logs.FilterMessage("request failed").All(), 1)
}

func (suite *HandlerTestSuite) TestHealthz() {
	t := suite.T()
	suite.svc.On("Ping", mock.Anything).Return(nil).Once()
	rec := suite.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	suite.svc.On("Ping", mock.Anything).Return(fmt.Errorf("%w: ping failed", domain.ErrDependency)).Once()
	rec = suite.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func (suite *HandlerTestSuite) TestMethodNotAllowed() {
	rec := suite.do(http.MethodPatch, "/api/items/"+validId, `{}`)
	assert.Equal(suite.T(), http.StatusMethodNotAllowed, rec.Code)
}

func (suite *HandlerTestSuite) TestRequestIdHeader() {
	t := suite.T()
	suite.svc.On("ListItems", mock.Anything).Return([]domain.Item{}, nil)

	rec := suite.do(http.MethodGet, "/api/items", "")
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/api/items", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec = httptest.NewRecorder()
	suite.server.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))

	entries := suite.logs.FilterField(zap.String("request_id", "req-42")).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "request completed", entries[0].Message)
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>Inventory</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("loadItems()"), 0o644))

	svc := new(MockService)
	server := NewRouter(NewItemHandler(svc), dir, nil).SetupRoutes()

	testCases := []struct {
		path         string
		expectedCode int
		expectedBody string
	}{
		{path: "/", expectedCode: http.StatusOK, expectedBody: "Inventory"},
		{path: "/static/app.js", expectedCode: http.StatusOK, expectedBody: "loadItems()"},
		{path: "/static/missing.js", expectedCode: http.StatusNotFound},
		{path: "/app.js", expectedCode: http.StatusNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
			assert.Equal(t, tc.expectedCode, rec.Code)
			if tc.expectedBody != "" {
				assert.Contains(t, rec.Body.String(), tc.expectedBody)
			}
		})
	}
}

type failingWriter struct {
	header http.Header
	status int
}

func (w *failingWriter) Header() http.Header {
	return w.header
}

func (w *failingWriter) WriteHeader(status int) {
	w.status = status
}

func (w *failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset by peer")
}

func TestWriteJSONRecordsWriteFailure(t *testing.T) {
	ec := domain.NewErrorContainer()
	req := httptest.NewRequest(http.MethodGet, "/api/items", nil)
	req = req.WithContext(domain.WithErrorContainer(req.Context(), &ec))
	w := &failingWriter{header: http.Header{}}

	writeJSON(w, req, http.StatusOK, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusOK, w.status)
	require.Len(t, ec.Unwrap(), 1)
	assert.Contains(t, ec.Unwrap()[0].Error(), "failed to write response")
}

package handler_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"app/internal/cart"
	"app/internal/commerce"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/middleware"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockProductCatalog struct {
	mock.Mock
}

func (m *MockProductCatalog) ListProducts(ctx context.Context, q commerce.ProductQuery) ([]model.Product, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductCatalog) ProductByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Product), args.Error(1)
}

func (m *MockProductCatalog) ProductBySlug(ctx context.Context, slug string) (model.Product, error) {
	args := m.Called(ctx, slug)
	return args.Get(0).(model.Product), args.Error(1)
}

type stubSlot struct{}

func (stubSlot) Load(context.Context, string) (model.CartState, error) {
	return model.CartState{}, repo.ErrNotFound
}
func (stubSlot) Save(context.Context, string, model.CartState, string) error { return nil }
func (stubSlot) Watch(string) (<-chan repo.SlotEvent, func()) {
	return make(chan repo.SlotEvent), func() {}
}
func (stubSlot) Close() error { return nil }

func newCartServer(catalog *MockProductCatalog) *echo.Echo {
	e := echo.New()
	carts := cart.NewRegistry(context.Background(), stubSlot{}, nil, 0)
	uc := usecase.NewCartUsecase(carts, catalog)
	handler.NewCartHandler(uc).RegisterRoutes(e, middleware.ClientID())
	return e
}

func clientCookie() *http.Cookie {
	return &http.Cookie{Name: middleware.ClientCookieName, Value: "test-client"}
}

// =====================
// Test: /cart
// =====================

func TestCartHandler_AddThenGet(t *testing.T) {
	catalog := new(MockProductCatalog)
	e := newCartServer(catalog)

	catalog.On("ProductByID", mock.Anything, int64(1)).Return(model.Product{
		ID:          1,
		Name:        "Melhfa bleue",
		Status:      model.StatusPublish,
		Price:       "10000",
		StockStatus: model.StockInStock,
	}, nil)

	// 追加
	req := httptest.NewRequest(http.MethodPost, "/cart",
		strings.NewReader(`{"product_id":1,"quantity":2}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.AddCookie(clientCookie())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var st model.CartState
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, int64(2), st.ItemCount)
	assert.Equal(t, 20000.0, st.Total)

	// 同じクッキーで取得すると同じカートが見える
	req = httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(clientCookie())
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Len(t, st.Items, 1)
	assert.Equal(t, "Melhfa bleue", st.Items[0].Name)
}

func TestCartHandler_GetIssuesCookieForNewClient(t *testing.T) {
	e := newCartServer(new(MockProductCatalog))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	if assert.Len(t, cookies, 1) {
		assert.Equal(t, middleware.ClientCookieName, cookies[0].Name)
	}

	var st model.CartState
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Empty(t, st.Items)
}

func TestCartHandler_AddUnknownProduct(t *testing.T) {
	catalog := new(MockProductCatalog)
	e := newCartServer(catalog)

	catalog.On("ProductByID", mock.Anything, int64(99)).
		Return(model.Product{}, commerce.ErrNotFound)

	req := httptest.NewRequest(http.MethodPost, "/cart",
		strings.NewReader(`{"product_id":99,"quantity":1}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.AddCookie(clientCookie())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid product")
}

func TestCartHandler_PatchAndDeleteItem(t *testing.T) {
	catalog := new(MockProductCatalog)
	e := newCartServer(catalog)

	catalog.On("ProductByID", mock.Anything, int64(1)).Return(model.Product{
		ID:          1,
		Name:        "Melhfa bleue",
		Status:      model.StatusPublish,
		Price:       "10000",
		StockStatus: model.StockInStock,
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/cart",
		strings.NewReader(`{"product_id":1,"quantity":1}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.AddCookie(clientCookie())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// 数量変更
	req = httptest.NewRequest(http.MethodPatch, "/cart/items/1",
		strings.NewReader(`{"quantity":4}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.AddCookie(clientCookie())
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var st model.CartState
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, int64(4), st.ItemCount)

	// 削除
	req = httptest.NewRequest(http.MethodDelete, "/cart/items/1", nil)
	req.AddCookie(clientCookie())
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Empty(t, st.Items)
}

func TestCartHandler_PatchInvalidID(t *testing.T) {
	e := newCartServer(new(MockProductCatalog))

	req := httptest.NewRequest(http.MethodPatch, "/cart/items/abc",
		strings.NewReader(`{"quantity":4}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.AddCookie(clientCookie())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid id")
}

func TestCartHandler_Clear(t *testing.T) {
	catalog := new(MockProductCatalog)
	e := newCartServer(catalog)

	catalog.On("ProductByID", mock.Anything, int64(1)).Return(model.Product{
		ID:          1,
		Status:      model.StatusPublish,
		Price:       "10000",
		StockStatus: model.StockInStock,
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/cart",
		strings.NewReader(`{"product_id":1,"quantity":3}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.AddCookie(clientCookie())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/cart", nil)
	req.AddCookie(clientCookie())
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var st model.CartState
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Empty(t, st.Items)
	assert.Equal(t, int64(0), st.ItemCount)
}

// =====================
// Test: SSE
// =====================

func TestCartHandler_EventsEmitsAfterMutation(t *testing.T) {
	catalog := new(MockProductCatalog)
	e := newCartServer(catalog)

	catalog.On("ProductByID", mock.Anything, int64(1)).Return(model.Product{
		ID:          1,
		Name:        "Melhfa bleue",
		Status:      model.StatusPublish,
		Price:       "10000",
		StockStatus: model.StockInStock,
	}, nil)

	srv := httptest.NewServer(e)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/cart/events", nil)
	assert.NoError(t, err)
	req.AddCookie(clientCookie())

	resp, err := http.DefaultClient.Do(req)
	assert.NoError(t, err)
	defer resp.Body.Close()

	events := make(chan string, 4)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			if name, ok := strings.CutPrefix(sc.Text(), "event: "); ok {
				events <- name
			}
		}
	}()

	waitEvent := func(why string) {
		select {
		case name := <-events:
			assert.Equal(t, "cartUpdated", name)
		case <-time.After(2 * time.Second):
			t.Fatal(why)
		}
	}

	// 接続直後の1回
	waitEvent("初回イベントが届かない")

	// カートを変更するともう1回流れる
	post, err := http.NewRequest(http.MethodPost, srv.URL+"/cart",
		strings.NewReader(`{"product_id":1,"quantity":1}`))
	assert.NoError(t, err)
	post.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	post.AddCookie(clientCookie())

	postResp, err := http.DefaultClient.Do(post)
	assert.NoError(t, err)
	postResp.Body.Close()
	assert.Equal(t, http.StatusOK, postResp.StatusCode)

	waitEvent("変更後のイベントが届かない")
}

func TestCartHandler_EventsSendsInitialEvent(t *testing.T) {
	e := newCartServer(new(MockProductCatalog))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/cart/events", nil).WithContext(ctx)
	req.AddCookie(clientCookie())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Body.String(), "event: cartUpdated")
}

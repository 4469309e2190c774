package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fjod/go_shop/internal/domain"
)

const testSessionID = "test-session"

func sessionRequest(method, target, body string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := context.WithValue(r.Context(), sessionIDKey{}, testSessionID)
	return r.WithContext(ctx)
}

func testCartHandler(store *fakeStore, coupons *fakeCoupons) *CartHandler {
	catalog := &fakeCatalog{products: map[int64]*domain.Product{
		1: {ID: 1, Name: "Keyboard", Price: decimal.RequireFromString("50.00")},
		2: {ID: 2, Name: "Mouse", Price: decimal.RequireFromString("30.00")},
	}}
	if coupons == nil {
		coupons = &fakeCoupons{}
	}
	return NewCartHandler(store, catalog, coupons, 5*time.Second, zap.NewNop())
}

func decodeCartView(t *testing.T, rec *httptest.ResponseRecorder) CartViewDTO {
	t.Helper()
	var view CartViewDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	return view
}

func TestAddItemCreatesCart(t *testing.T) {
	h := testCartHandler(newFakeStore(), nil)

	rec := httptest.NewRecorder()
	h.AddItem(rec, sessionRequest(http.MethodPost, "/api/v1/cart/items", `{"product_id":1,"quantity":2}`))

	require.Equal(t, http.StatusCreated, rec.Code)
	view := decodeCartView(t, rec)
	assert.Equal(t, 2, view.ItemCount)
	assert.Equal(t, "100.00", view.Subtotal)
	assert.Equal(t, "100.00", view.Total)
}

func TestAddItemUnknownProduct(t *testing.T) {
	h := testCartHandler(newFakeStore(), nil)

	rec := httptest.NewRecorder()
	h.AddItem(rec, sessionRequest(http.MethodPost, "/api/v1/cart/items", `{"product_id":99,"quantity":1}`))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddItemInvalidQuantity(t *testing.T) {
	h := testCartHandler(newFakeStore(), nil)

	rec := httptest.NewRecorder()
	h.AddItem(rec, sessionRequest(http.MethodPost, "/api/v1/cart/items", `{"product_id":1,"quantity":0}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.AddItem(rec, sessionRequest(http.MethodPost, "/api/v1/cart/items", `{"product_id":1,"quantity":21}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddItemMalformedBody(t *testing.T) {
	h := testCartHandler(newFakeStore(), nil)

	rec := httptest.NewRecorder()
	h.AddItem(rec, sessionRequest(http.MethodPost, "/api/v1/cart/items", `{not json`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoveItem(t *testing.T) {
	store := newFakeStore()
	h := testCartHandler(store, nil)

	rec := httptest.NewRecorder()
	h.AddItem(rec, sessionRequest(http.MethodPost, "/api/v1/cart/items", `{"product_id":1,"quantity":2}`))
	require.Equal(t, http.StatusCreated, rec.Code)

	r := sessionRequest(http.MethodDelete, "/api/v1/cart/items/1", "")
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("productID", "1")
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

	rec = httptest.NewRecorder()
	h.RemoveItem(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeCartView(t, rec)
	assert.Equal(t, 0, view.ItemCount)
	assert.Equal(t, "0.00", view.Subtotal)
}

func TestGetCartEmptySession(t *testing.T) {
	h := testCartHandler(newFakeStore(), nil)

	rec := httptest.NewRecorder()
	h.GetCart(rec, sessionRequest(http.MethodGet, "/api/v1/cart", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeCartView(t, rec)
	assert.Equal(t, 0, view.ItemCount)
}

func TestApplyCouponDiscountsTotal(t *testing.T) {
	store := newFakeStore()
	coupons := &fakeCoupons{coupon: &domain.Coupon{ID: 7, Code: "TEN", Discount: 10}}
	h := testCartHandler(store, coupons)

	rec := httptest.NewRecorder()
	h.AddItem(rec, sessionRequest(http.MethodPost, "/api/v1/cart/items", `{"product_id":1,"quantity":4}`))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.ApplyCoupon(rec, sessionRequest(http.MethodPost, "/api/v1/cart/coupon", `{"code":"TEN"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeCartView(t, rec)
	assert.Equal(t, "200.00", view.Subtotal)
	assert.Equal(t, "20.00", view.Discount)
	assert.Equal(t, "180.00", view.Total)
}

func TestApplyCouponUnknownCodeStillOK(t *testing.T) {
	store := newFakeStore()
	coupons := &fakeCoupons{coupon: &domain.Coupon{ID: 7, Code: "TEN", Discount: 10}}
	h := testCartHandler(store, coupons)

	rec := httptest.NewRecorder()
	h.AddItem(rec, sessionRequest(http.MethodPost, "/api/v1/cart/items", `{"product_id":1,"quantity":1}`))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.ApplyCoupon(rec, sessionRequest(http.MethodPost, "/api/v1/cart/coupon", `{"code":"NOPE"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeCartView(t, rec)
	assert.Equal(t, "0.00", view.Discount)
	assert.Equal(t, view.Subtotal, view.Total)
}

func TestMissingSession(t *testing.T) {
	h := testCartHandler(newFakeStore(), nil)

	rec := httptest.NewRecorder()
	h.GetCart(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionMiddlewareSetsCookie(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = sessionIDFromContext(r.Context())
	})

	rec := httptest.NewRecorder()
	SessionMiddleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, seen)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookieName, cookies[0].Name)
	assert.Equal(t, seen, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestSessionMiddlewareReusesCookie(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = sessionIDFromContext(r.Context())
	})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "existing-session"})

	rec := httptest.NewRecorder()
	SessionMiddleware(next).ServeHTTP(rec, r)

	assert.Equal(t, "existing-session", seen)
	assert.Empty(t, rec.Result().Cookies(), "existing session must not be reissued")
}

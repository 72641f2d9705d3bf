package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ponchomart/storefront/internal/credential"
)

func authedCreds(sid string) *credential.Store {
	s := credential.NewStore("http://unused", "dW51c2Vk")
	s.Hydrate(sid, credential.Credential{
		AccessToken: "test-token",
		IssuedAt:    time.Now(),
		ExpiresAt:   time.Now().Add(time.Hour),
	})
	return s
}

func newTestClient(srvURL, sid string) *Client {
	return New(Config{
		CartBase:     srvURL,
		ProductBase:  srvURL,
		ResourceBase: "https://static.example.com",
	}, authedCreds(sid))
}

func TestCart_DecodesOrderItems(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/u/cart", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":{
			"order_items":[
				{"id":101,"product_id":"p1","name":"Tee","price":"1280","quantity":2,
				 "dimension1":"Red","dimension2":"M","images":[{"url":"img/tee.jpg"}]},
				{"order_item_id":"oi-2","product_id":7,"name":"Mug","price":900,"quantity":0}
			],
			"total_price":"3460"
		}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "sid")
	cart, err := c.Cart(context.Background(), "sid")
	require.NoError(t, err)

	require.Len(t, cart.Lines, 2)
	assert.Equal(t, 3460.0, cart.Total)

	first := cart.Lines[0]
	assert.Equal(t, "101", first.OrderItemID)
	assert.Equal(t, "p1", first.ProductID)
	assert.Equal(t, 1280.0, first.Price)
	assert.Equal(t, 2, first.Quantity)
	assert.Equal(t, "Red / M", first.VariantLabel)
	assert.Equal(t, "https://static.example.com/resource/img/tee.jpg", first.Image)

	second := cart.Lines[1]
	assert.Equal(t, "oi-2", second.OrderItemID)
	assert.Equal(t, "7", second.ProductID)
	assert.Equal(t, 1, second.Quantity)
}

func TestCart_Unauthenticated(t *testing.T) {
	t.Parallel()

	creds := credential.NewStore("http://unused", "dW51c2Vk")
	c := New(Config{CartBase: "http://unused"}, creds)

	_, err := c.Cart(context.Background(), "sid")
	assert.True(t, IsUnauthenticated(err))
}

func TestDo_StatusErrorCarriesUpstreamMessage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"product out of stock"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "sid")
	err := c.AddItem(context.Background(), "sid", "p1")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusConflict, statusErr.Code)
	assert.Equal(t, "product out of stock", statusErr.Message)
}

func TestAddresses_FiltersByKind(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/u/address", r.URL.Path)
		w.Write([]byte(`{"data":[
			{"address_id":1,"type":"delivery","last_name":"Yamada","first_name":"Taro",
			 "kana_last_name":"ヤマダ","post_code":"1500001","prefecture":"東京都",
			 "city_town_village":"渋谷区神宮前1-2-3","date_of_birth":"1990-01-02T00:00:00Z"},
			{"address_id":2,"type":"bill","last_name":"Yamada","first_name":"Taro"},
			{"address_id":"","type":"delivery","last_name":"Ghost"}
		]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "sid")
	list, err := c.Addresses(context.Background(), "sid", KindDelivery)
	require.NoError(t, err)

	require.Len(t, list, 1)
	addr := list[0]
	assert.Equal(t, "1", addr.ID)
	assert.Equal(t, "ヤマダ", addr.LastNameKana)
	assert.Equal(t, "1990-01-02", addr.DateOfBirth)
	assert.Equal(t, "渋谷区神宮前1-2-3", addr.City)
	assert.Equal(t, "渋谷区神宮前1-2-3", addr.Locality())
}

func TestConfirm_ReturnsTopLevelFields(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/u/cart/confirm", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`{"order_id":"ABC123","data":{}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "sid")
	body, err := c.Confirm(context.Background(), "sid")
	require.NoError(t, err)
	assert.Equal(t, "ABC123", body["order_id"])
}

func TestProductByID_Normalizes(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"Products":[
			{"product_id":"p1","group_id":"g1","name":"Tee","price":"1280","stock":3,
			 "dimension1":"Red","dimension2":"M","images":[{"url":"a.jpg"},{"url":"https://cdn/b.jpg"}]},
			{"productId":"p2","name":"Tee Blue","price":1280},
			{"product_id":"p1","name":"duplicate"}
		]}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "sid")
	p, err := c.ProductByID(context.Background(), "sid", "p1")
	require.NoError(t, err)

	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "p1", p.Slug)
	assert.Equal(t, "g1", p.GroupID)
	assert.Equal(t, 1280.0, p.Price)
	assert.Equal(t, "Red / M", p.VariantLabel)
	require.Len(t, p.Images, 2)
	assert.Equal(t, "https://static.example.com/resource/a.jpg", p.Images[0])
	assert.Equal(t, "https://cdn/b.jpg", p.Images[1])
	assert.Equal(t, p.Images[0], p.Image)
}

func TestProductByID_NotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"Products":[]}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "sid")
	_, err := c.ProductByID(context.Background(), "sid", "missing")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
}

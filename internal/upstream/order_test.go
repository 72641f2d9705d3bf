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

func TestStatusLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "カート", StatusLabel("cart"))
	assert.Equal(t, "未決済", StatusLabel("confirm"))
	assert.Equal(t, "結果待ち", StatusLabel("pending_result"))
	assert.Equal(t, "失敗", StatusLabel("failure"))
	assert.Equal(t, "支払い完了", StatusLabel("PAID"))
	assert.Equal(t, "配送中", StatusLabel("delivery"))
	assert.Equal(t, "未決済", StatusLabel("something_new"))
}

func TestOrderDate_SkipsPlaceholders(t *testing.T) {
	t.Parallel()

	fixed := func() time.Time {
		return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	}

	r := rawOrder{ConfirmAt: "2026-01-15T10:00:00Z"}
	assert.Equal(t, "2026-01-15T10:00:00Z", orderDate(r, fixed))

	r = rawOrder{ConfirmAt: "1900-01-01T00:00:00Z", PaidAt: "2026-02-01T09:30:00Z"}
	assert.Equal(t, "2026-02-01T09:30:00Z", orderDate(r, fixed))

	r = rawOrder{ConfirmAt: "", PaidAt: "0001-01-01T00:00:00Z", DeliveryAt: "2026-02-03T12:00:00Z"}
	assert.Equal(t, "2026-02-03T12:00:00Z", orderDate(r, fixed))

	r = rawOrder{ConfirmAt: "1900-01-01", PaidAt: ""}
	assert.Equal(t, "2026-03-04T05:06:07Z", orderDate(r, fixed))
}

func TestOrderHistory_Normalizes(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/u/order/history", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":[
			{"order_id":5001,"status":"paid","total_price":"3460","total_grant_point":34,
			 "confirm_at":"1900-01-01T00:00:00Z","paid_at":"2026-02-01T09:30:00Z",
			 "tracking_number":"TRK-9",
			 "order_items":[
				{"id":101,"product_id":"p1","name":"Tee","price":"1280","quantity":2,
				 "dimension1":"Red","dimension2":"M","images":[{"url":"img/tee.jpg"}]}
			 ],
			 "delivery_address_id":{"last_name":"山田","first_name":"太郎",
			   "kana_last_name":"ヤマダ","kana_first_name":"タロウ",
			   "post_code":"1500001","prefecture":"東京都",
			   "city_town_village":"渋谷区神宮前1-2-3","address_details":"メゾン301",
			   "phone":"0312345678","email":"taro@example.com"},
			 "bill_address_id":{"last_name":"山田","first_name":"太郎"}},
			{"order_id":"5002","status":"confirm","total_price":900}
		]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "sid")
	orders, err := c.OrderHistory(context.Background(), "sid")
	require.NoError(t, err)
	require.Len(t, orders, 2)

	first := orders[0]
	assert.Equal(t, "5001", first.ID)
	assert.Equal(t, "paid", first.Status)
	assert.Equal(t, "支払い完了", first.StatusLabel)
	assert.Equal(t, 3460.0, first.Total)
	assert.Equal(t, 34, first.Points)
	assert.Equal(t, "2026-02-01T09:30:00Z", first.CreatedAt)
	assert.Equal(t, "TRK-9", first.TrackingNumber)

	require.Len(t, first.Items, 1)
	item := first.Items[0]
	assert.Equal(t, "101", item.OrderItemID)
	assert.Equal(t, "p1", item.ProductID)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, "Red / M", item.VariantLabel)
	assert.Equal(t, "https://static.example.com/resource/img/tee.jpg", item.Image)

	assert.Equal(t, "山田太郎", first.Shipping.Name)
	assert.Equal(t, "ヤマダタロウ", first.Shipping.NameKana)
	assert.Equal(t, "1500001", first.Shipping.PostalCode)
	assert.Equal(t, "渋谷区神宮前1-2-3", first.Shipping.City)
	assert.Equal(t, "メゾン301", first.Shipping.Building)
	assert.Equal(t, "山田太郎", first.Billing.Name)

	second := orders[1]
	assert.Equal(t, "5002", second.ID)
	assert.Equal(t, "未決済", second.StatusLabel)
	// No real timestamp anywhere; the order still gets a sortable date.
	assert.NotEmpty(t, second.CreatedAt)
	assert.Empty(t, second.Items)
}

func TestOrderHistory_Unauthenticated(t *testing.T) {
	t.Parallel()

	creds := credential.NewStore("http://unused", "dW51c2Vk")
	c := New(Config{CartBase: "http://unused"}, creds)

	_, err := c.OrderHistory(context.Background(), "sid")
	assert.True(t, IsUnauthenticated(err))
}

func TestBanners_SortsAndRewrites(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/banner/app", r.URL.Path)
		require.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":[
			{"sequence":3,"url":"img/three.jpg"},
			{"sequence":1,"url":"img/one.jpg"},
			{"sequence":2,"url":""}
		]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "sid")
	banners, err := c.Banners(context.Background())
	require.NoError(t, err)

	require.Len(t, banners, 2)
	assert.Equal(t, "1", banners[0].ID)
	assert.Equal(t, "https://static.example.com/resource/img/one.jpg", banners[0].Image)
	assert.Equal(t, "Banner 1", banners[0].Alt)
	assert.Equal(t, "3", banners[1].ID)
	assert.Equal(t, "Banner 3", banners[1].Alt)
}

package shopapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	domain "github.com/iexcalibur/lenny-storefront/internal/entity"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, 2*time.Second, opts...)
}

func TestFetchCartRequestAndMapping(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/cart", r.URL.Path)
		require.Equal(t, "user123", r.URL.Query().Get("userId"))
		_, _ = w.Write([]byte(`{"items":[
			{"product_id":1,"name":"Desk Lamp","price":12.5,"quantity":2,"image_url":"/img/lamp.png"},
			{"product_id":"p2","name":"Mug","price":5,"quantity":1,"image_url":""}
		]}`))
	})

	snap, err := c.FetchCart(context.Background(), "user123")
	require.NoError(t, err)
	require.Equal(t, "user123", snap.OwnerID)
	require.Len(t, snap.Lines, 2)

	// product ids come through both as numbers and strings
	require.Equal(t, "1", snap.Lines[0].ProductID)
	require.Equal(t, "p2", snap.Lines[1].ProductID)
	require.True(t, snap.Lines[0].UnitPrice.Equal(decimal.NewFromFloat(12.5)))
	require.Equal(t, 2, snap.Lines[0].Quantity)
}

func TestAddLineSendsPayload(t *testing.T) {
	var got addLineReq
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/cart/add", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	err := c.AddLine(context.Background(), "user123", domain.CartLine{
		ProductID: "p1",
		Name:      "Desk Lamp",
		UnitPrice: decimal.NewFromFloat(12.5),
		Quantity:  1,
		ImageRef:  "/img/lamp.png",
	})
	require.NoError(t, err)
	require.Equal(t, addLineReq{
		UserID: "user123", ProductID: "p1", Quantity: 1,
		Price: 12.5, Name: "Desk Lamp", ImageURL: "/img/lamp.png",
	}, got)
}

func TestAddLineRejectsInvalidQuantityLocally(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	err := c.AddLine(context.Background(), "user123", domain.CartLine{ProductID: "p1", Quantity: 0})
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
	require.False(t, called)
}

func TestSetLineQuantity(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/cart/p1", r.URL.Path)
		var body setQuantityReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, setQuantityReq{UserID: "user123", Quantity: 3}, body)
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, c.SetLineQuantity(context.Background(), "user123", "p1", 3))

	err := c.SetLineQuantity(context.Background(), "user123", "p1", 0)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestRemoveLine(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/cart/p1", r.URL.Path)
		require.Equal(t, "user123", r.URL.Query().Get("userId"))
		w.WriteHeader(http.StatusOK)
	})
	require.NoError(t, c.RemoveLine(context.Background(), "user123", "p1"))
}

func TestNon2xxIsStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.FetchCart(context.Background(), "user123")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusInternalServerError, se.StatusCode)
	require.Equal(t, "fetch_cart", se.Op)
}

func TestTransportErrorIsNotStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := New(srv.URL, time.Second)
	srv.Close()

	_, err := c.FetchCart(context.Background(), "user123")
	require.Error(t, err)
	var se *StatusError
	require.False(t, errors.As(err, &se))
}

func TestServiceTokenAttached(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer svc-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[]`))
	}, WithServiceToken("svc-token"))

	_, err := c.ListProducts(context.Background())
	require.NoError(t, err)
}

func TestCheckout(t *testing.T) {
	t.Run("parses order id and status", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/cart/checkout", r.URL.Path)
			var body checkoutReq
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, checkoutReq{UserID: "user123", DiscountCode: "SAVE20"}, body)
			_, _ = w.Write([]byte(`{"orderId":"ord-1","status":"CONFIRMED"}`))
		})

		conf, err := c.Checkout(context.Background(), "user123", "SAVE20")
		require.NoError(t, err)
		require.Equal(t, domain.OrderConfirmation{OrderID: "ord-1", Status: domain.StatusConfirmed}, conf)
	})

	t.Run("falls back to alternate id field", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id":"ord-2"}`))
		})
		conf, err := c.Checkout(context.Background(), "user123", "")
		require.NoError(t, err)
		require.Equal(t, "ord-2", conf.OrderID)
		require.Equal(t, domain.StatusConfirmed, conf.Status)
	})

	t.Run("2xx with undecodable body still confirms", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`order placed, thanks!`))
		})
		conf, err := c.Checkout(context.Background(), "user123", "")
		require.NoError(t, err)
		require.Equal(t, domain.StatusConfirmed, conf.Status)
	})

	t.Run("rejection propagates", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "cart empty", http.StatusBadRequest)
		})
		_, err := c.Checkout(context.Background(), "user123", "")
		var se *StatusError
		require.ErrorAs(t, err, &se)
		require.Equal(t, http.StatusBadRequest, se.StatusCode)
	})
}

func TestFetchActivePromo(t *testing.T) {
	t.Run("active promo", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/admin/discount/active", r.URL.Path)
			_, _ = w.Write([]byte(`{"code":"SAVE20","discount_rate":0.2}`))
		})
		p, err := c.FetchActivePromo(context.Background())
		require.NoError(t, err)
		require.NotNil(t, p)
		require.Equal(t, "SAVE20", p.Code)
		require.True(t, p.DiscountRate.Equal(decimal.NewFromFloat(0.2)))
	})

	t.Run("404 means no active promo", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "not found", http.StatusNotFound)
		})
		p, err := c.FetchActivePromo(context.Background())
		require.NoError(t, err)
		require.Nil(t, p)
	})

	t.Run("empty code means no active promo", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		})
		p, err := c.FetchActivePromo(context.Background())
		require.NoError(t, err)
		require.Nil(t, p)
	})
}

func TestCreatePromoValidatesRate(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	_, err := c.CreatePromo(context.Background(), "BAD", decimal.NewFromFloat(1.5))
	require.ErrorIs(t, err, domain.ErrInvalidDiscountRate)
	require.False(t, called)
}

func TestFetchOrders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orders", r.URL.Path)
		require.Equal(t, "user123", r.URL.Query().Get("userId"))
		_, _ = w.Write([]byte(`[{
			"id":"ord-1","userId":"user123",
			"items":[{"product_id":"p1","name":"Mug","price":5,"quantity":2}],
			"totalAmount":10,"discountCode":"","discountAmount":0,
			"createdAt":"2026-08-30T10:00:00Z"
		}]`))
	})

	orders, err := c.FetchOrders(context.Background(), "user123")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, "ord-1", orders[0].ID)
	require.Len(t, orders[0].Lines, 1)
	require.True(t, orders[0].TotalAmount.Equal(decimal.NewFromInt(10)))
}

package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/circuitbreaker"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/httpx"
)

func TestCartClient_GetCart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/cart", r.URL.Path)
		assert.Equal(t, "user-7", r.Header.Get(httpx.UserIDHeader))
		assert.Equal(t, "no-cache", r.Header.Get("Cache-Control"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"lines": [{"id": "l1", "product": {"id": "p1", "name": "Mango"},
			           "variant": {"id": "v1", "size": "1 kg", "price": "100", "available": true},
			           "quantity": 2}],
			"subtotal": "200", "delivery_charge": "50", "total": "250", "item_count": 2}`))
	}))
	defer srv.Close()

	client := NewCartClient(srv.URL+"/", time.Second, zap.NewNop())
	c, err := client.GetCart(context.Background(), "user-7")
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, "p1", c.Lines[0].Product.ID)
	assert.Equal(t, 2, c.Lines[0].Quantity)
	assert.Equal(t, "100", c.Lines[0].Variant.Price.String())
}

func TestCartClient_OpensBreakerAfterFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewCartClient(srv.URL, time.Second, zap.NewNop())
	for i := 0; i < 5; i++ {
		_, err := client.GetCart(context.Background(), "user-7")
		require.Error(t, err)
		assert.False(t, circuitbreaker.IsOpen(err))
	}

	_, err := client.GetCart(context.Background(), "user-7")
	assert.True(t, circuitbreaker.IsOpen(err))
	assert.Equal(t, int32(5), calls.Load())
}

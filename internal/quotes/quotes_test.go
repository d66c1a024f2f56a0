package quotes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/finsim/papertrade/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, hits *int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt64(hits, 1)
		}
		assert.Equal(t, "test-key", r.URL.Query().Get("token"))
		switch r.URL.Path {
		case "/stock/AAPL/quote":
			fmt.Fprint(w, `{"symbol":"AAPL","companyName":"Apple Inc","latestPrice":145.30}`)
		case "/stock/FREE/quote":
			fmt.Fprint(w, `{"symbol":"FREE","companyName":"Freebie Corp","latestPrice":0}`)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestClient_Lookup(t *testing.T) {
	srv := newTestServer(t, nil)
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")

	tests := []struct {
		name      string
		symbol    string
		expectErr error
		expect    models.Quote
	}{
		{
			name:   "Success",
			symbol: "AAPL",
			expect: models.Quote{Symbol: "AAPL", Company: "Apple Inc", Price: decimal.RequireFromString("145.30")},
		},
		{
			name:   "LowercaseNormalized",
			symbol: "  aapl ",
			expect: models.Quote{Symbol: "AAPL", Company: "Apple Inc", Price: decimal.RequireFromString("145.30")},
		},
		{
			name:      "UnknownSymbol",
			symbol:    "ZZZZ",
			expectErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := c.Lookup(context.Background(), tt.symbol)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expect.Symbol, q.Symbol)
			assert.Equal(t, tt.expect.Company, q.Company)
			assert.True(t, tt.expect.Price.Equal(q.Price), "price %s != %s", tt.expect.Price, q.Price)
		})
	}
}

func TestClient_Lookup_BadInput(t *testing.T) {
	c := NewClient("http://example.invalid", "test-key")

	_, err := c.Lookup(context.Background(), "")
	assert.Error(t, err)

	_, err = c.Lookup(context.Background(), "WAYTOOLONGSYMBOL")
	assert.Error(t, err)
}

func TestClient_Lookup_NonPositivePrice(t *testing.T) {
	srv := newTestServer(t, nil)
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	_, err := c.Lookup(context.Background(), "FREE")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestCache_Lookup(t *testing.T) {
	var hits int64
	srv := newTestServer(t, &hits)
	defer srv.Close()

	cached, err := NewCache(NewClient(srv.URL, "test-key"), time.Minute)
	require.NoError(t, err)

	q, err := cached.Lookup(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", q.Symbol)
	cached.Wait()

	// Second lookup within the TTL must be served from cache
	q, err = cached.Lookup(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc", q.Company)
	assert.Equal(t, int64(1), atomic.LoadInt64(&hits))

	// Failures are not cached
	_, err = cached.Lookup(context.Background(), "ZZZZ")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = cached.Lookup(context.Background(), "ZZZZ")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int64(3), atomic.LoadInt64(&hits))
}

// stubProvider allows cache tests without HTTP
type stubProvider struct {
	err   error
	quote models.Quote
}

func (s stubProvider) Lookup(ctx context.Context, symbol string) (models.Quote, error) {
	if s.err != nil {
		return models.Quote{}, s.err
	}
	return s.quote, nil
}

func TestCache_PropagatesProviderError(t *testing.T) {
	cached, err := NewCache(stubProvider{err: errors.New("provider down")}, time.Minute)
	require.NoError(t, err)

	_, err = cached.Lookup(context.Background(), "AAPL")
	assert.Error(t, err)
}

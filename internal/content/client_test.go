package content

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"ringside/internal/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := config.ContentConfig{BaseURL: srv.URL + "/", Dataset: "production", APIVersion: "2024-01-01", Token: "secret"}
	return New(cfg, 2*time.Second, zaptest.NewLogger(t))
}

func TestProducts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2024-01-01/data/query/production", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Contains(t, r.URL.Query().Get("query"), `_type == "product"`)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":[
			{"id":"p1","name":"Gloves","slug":"gloves","category":"Gloves","price":99.5,"originalPrice":120,"colors":["Red"],"customizable":true,"inStock":true},
			{"id":"p2","name":"Wraps","slug":"wraps","category":"Accessories","price":10,"originalPrice":null}
		]}`))
	})

	products, err := c.Products(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.True(t, products[0].OnSale())
	assert.Equal(t, 120.0, *products[0].OriginalPrice)
	assert.False(t, products[1].OnSale())
}

func TestQuery_Params(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `"gloves"`, r.URL.Query().Get("$slug"))
		_, _ = w.Write([]byte(`{"result":{"id":"c1","title":"Gloves","slug":"gloves"}}`))
	})
	var out struct{ Title string }
	require.NoError(t, c.Query(context.Background(), `*[slug.current == $slug][0]`, map[string]any{"slug": "gloves"}, &out))
	assert.Equal(t, "Gloves", out.Title)
}

func TestCategories_NullResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":null}`))
	})
	cats, err := c.Categories(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cats)
}

func TestQuery_Failures(t *testing.T) {
	for name, h := range map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{}`))
		},
		"api error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"description":"unexpected token"}}`))
		},
		"garbage": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := newTestClient(t, h).Products(context.Background())
			assert.True(t, errors.Is(err, ErrUnavailable), "got %v", err)
		})
	}
}

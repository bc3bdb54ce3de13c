package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPBaseQueryDecodesSuccessfulJSONResponse(t *testing.T) {
	// Arrange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","name":"widget"}`))
	}))
	defer srv.Close()
	bq := NewHTTPBaseQuery[int](HTTPConfig{BaseURL: srv.URL})

	// Act
	result, err := bq(context.Background(), Args{Method: http.MethodGet, Path: "/widgets/1"}, Extra[int]{})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 200, result.StatusCode)
	assert.Equal(t, "widget", result.Data.(map[string]any)["name"])
}

func TestHTTPBaseQueryWrapsNonOKStatusAsQueryError(t *testing.T) {
	// Arrange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"not found"}`))
	}))
	defer srv.Close()
	bq := NewHTTPBaseQuery[int](HTTPConfig{BaseURL: srv.URL})

	// Act
	_, err := bq(context.Background(), Args{Path: "/missing"}, Extra[int]{})

	// Assert
	require.Error(t, err)
	qerr, ok := err.(*QueryError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, qerr.StatusCode)
	assert.Equal(t, "not found", qerr.Data.(map[string]any)["message"])
}

func TestHTTPBaseQueryAppliesPrepareHeaders(t *testing.T) {
	// Arrange
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	bq := NewHTTPBaseQuery[int](HTTPConfig{
		BaseURL: srv.URL,
		PrepareHeaders: func(h http.Header) http.Header {
			h.Set("Authorization", "Bearer token")
			return h
		},
	})

	// Act
	_, err := bq(context.Background(), Args{Path: "/x"}, Extra[int]{GetState: func() int { return 0 }})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Bearer token", gotAuth)
}

func TestHTTPBaseQuerySendsJSONBodyOnMutation(t *testing.T) {
	// Arrange
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 1024)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	bq := NewHTTPBaseQuery[int](HTTPConfig{BaseURL: srv.URL})

	// Act
	_, err := bq(context.Background(), Args{
		Method: http.MethodPost,
		Path:   "/widgets",
		Body:   map[string]string{"name": "widget"},
	}, Extra[int]{})

	// Assert
	require.NoError(t, err)
	assert.Contains(t, gotBody, `"name":"widget"`)
}

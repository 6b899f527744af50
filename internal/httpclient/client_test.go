package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCall_JSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"make":"FORD"}`)
	}))
	defer srv.Close()

	res := New(0).Call(context.Background(), http.MethodGet, srv.URL, nil, nil)

	assert.True(t, res.OK)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "FORD", res.JSON["make"])
	assert.Equal(t, `{"make":"FORD"}`, res.Text)
}

func TestCall_NonJSONBodyPreserved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<soap:Envelope>legacy error</soap:Envelope>`)
	}))
	defer srv.Close()

	res := New(0).Call(context.Background(), http.MethodGet, srv.URL, nil, nil)

	assert.True(t, res.OK)
	assert.Nil(t, res.JSON)
	assert.Contains(t, res.Text, "legacy error")
}

func TestCall_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, `{"error":"upstream"}`)
	}))
	defer srv.Close()

	res := New(0).Call(context.Background(), http.MethodGet, srv.URL, nil, nil)

	assert.False(t, res.OK)
	assert.Equal(t, http.StatusBadGateway, res.Status)
	assert.Equal(t, "upstream", res.JSON["error"])
}

func TestCall_TimeoutFoldedIntoResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	res := New(50 * time.Millisecond).Call(context.Background(), http.MethodGet, srv.URL, nil, nil)

	assert.False(t, res.OK)
	assert.Zero(t, res.Status)
	assert.NotEmpty(t, res.Text)
}

func TestCall_HeadersApplied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	res := New(0).Call(context.Background(), http.MethodGet, srv.URL, map[string]string{"x-api-key": "secret"}, nil)
	assert.True(t, res.OK)
}

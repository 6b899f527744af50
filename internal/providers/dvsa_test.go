package providers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Bogdan-dragos/vrm-api/internal/config"
	"github.com/Bogdan-dragos/vrm-api/internal/httpclient"
)

func TestDVSA_LegacySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "AB12CDE", r.URL.Query().Get("registration"))
		assert.Equal(t, "dvsa-key", r.Header.Get("x-api-key"))
		io.WriteString(w, `[{"registration":"AB12CDE","make":"FORD","model":"FIESTA","fuelType":"PETROL","colour":"BLUE","derivative":"ZETEC"}]`)
	}))
	defer srv.Close()

	cfg := config.DVSAConfig{APIKey: "dvsa-key", LegacyURL: srv.URL}
	dvsa := NewDVSA(cfg, httpclient.New(0), zap.NewNop())

	trace := &Trace{}
	rec := dvsa.Lookup(context.Background(), "AB12CDE", trace)

	assert.Equal(t, "FIESTA", rec.Model)
	assert.Equal(t, "FORD", rec.Make)
	assert.Equal(t, "ZETEC", rec.Variant, "derivative doubles as a variant fallback")
	require.Len(t, trace.Attempts(), 1)
	assert.Equal(t, "legacy", trace.Attempts()[0].Shape)
}

// Plates are routinely written with an internal space ("AB12 CDE"),
// which survives trim+uppercase and must reach the upstream intact.
func TestDVSA_SpacedVRMEscapedInRequests(t *testing.T) {
	legacy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "AB12 CDE", r.URL.Query().Get("registration"))
		w.WriteHeader(http.StatusForbidden)
	}))
	defer legacy.Close()

	token := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access_token":"tok-123","token_type":"Bearer"}`)
	}))
	defer token.Close()

	vehicle := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/AB12%20CDE", r.URL.EscapedPath())
		io.WriteString(w, `{"make":"FORD","model":"FIESTA"}`)
	}))
	defer vehicle.Close()

	cfg := config.DVSAConfig{
		APIKey:       "dvsa-key",
		LegacyURL:    legacy.URL,
		TokenURL:     token.URL,
		VehicleURL:   vehicle.URL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	}
	dvsa := NewDVSA(cfg, httpclient.New(0), zap.NewNop())

	rec := dvsa.Lookup(context.Background(), "AB12 CDE", &Trace{})

	assert.Equal(t, "FIESTA", rec.Model)
}

func TestDVSA_LegacyAuthRejectionFallsThroughToOAuth(t *testing.T) {
	legacy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer legacy.Close()

	token := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access_token":"tok-123","token_type":"Bearer","expires_in":3600}`)
	}))
	defer token.Close()

	vehicle := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "dvsa-key", r.Header.Get("x-api-key"))
		io.WriteString(w, `{"vehicle":{"make":"FORD","model":"FIESTA","trim":"ST-LINE"}}`)
	}))
	defer vehicle.Close()

	cfg := config.DVSAConfig{
		APIKey:       "dvsa-key",
		LegacyURL:    legacy.URL,
		TokenURL:     token.URL,
		VehicleURL:   vehicle.URL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Scope:        "https://tapi.dvsa.gov.uk/.default",
	}
	dvsa := NewDVSA(cfg, httpclient.New(0), zap.NewNop())

	trace := &Trace{}
	rec := dvsa.Lookup(context.Background(), "AB12CDE", trace)

	assert.Equal(t, "FIESTA", rec.Model)
	assert.Equal(t, "ST-LINE", rec.Variant)

	require.Len(t, trace.Attempts(), 3, "legacy + token + vehicle")
	assert.Equal(t, "legacy", trace.Attempts()[0].Shape)
	assert.Equal(t, http.StatusForbidden, trace.Attempts()[0].Status)
	assert.Equal(t, "token", trace.Attempts()[1].Shape)
	assert.Equal(t, http.StatusOK, trace.Attempts()[1].Status)
	assert.Equal(t, "oauth", trace.Attempts()[2].Shape)
}

func TestDVSA_LegacyNonAuthFailureStops(t *testing.T) {
	legacyCalls, tokenCalls := 0, 0
	legacy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		legacyCalls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer legacy.Close()
	token := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
	}))
	defer token.Close()

	cfg := config.DVSAConfig{
		APIKey:       "dvsa-key",
		LegacyURL:    legacy.URL,
		TokenURL:     token.URL,
		VehicleURL:   "http://unused",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	}
	dvsa := NewDVSA(cfg, httpclient.New(0), zap.NewNop())

	rec := dvsa.Lookup(context.Background(), "AB12CDE", &Trace{})

	assert.True(t, rec.Empty())
	assert.Equal(t, 1, legacyCalls)
	assert.Zero(t, tokenCalls, "a definitive non-auth failure must not trigger OAuth")
}

func TestDVSA_TokenFailureContributesNothing(t *testing.T) {
	token := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"server_error"}`)
	}))
	defer token.Close()

	cfg := config.DVSAConfig{
		APIKey:       "dvsa-key",
		TokenURL:     token.URL,
		VehicleURL:   "http://unused",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	}
	dvsa := NewDVSA(cfg, httpclient.New(0), zap.NewNop())

	trace := &Trace{}
	rec := dvsa.Lookup(context.Background(), "AB12CDE", trace)

	assert.True(t, rec.Empty())
	require.Len(t, trace.Attempts(), 1, "only the token exchange was attempted")
	assert.Equal(t, "token", trace.Attempts()[0].Shape)
	assert.Equal(t, http.StatusInternalServerError, trace.Attempts()[0].Status)
}

func Test_parseDVSABody(t *testing.T) {
	type want struct {
		model   string
		variant string
		ok      bool
	}
	tests := []struct {
		name string
		body string
		want want
	}{
		{"Test bare object", `{"model":"FIESTA","derivative":"ZETEC"}`, want{"FIESTA", "ZETEC", true}},
		{"Test vehicle wrapper", `{"vehicle":{"model":"FIESTA"}}`, want{"FIESTA", "", true}},
		{"Test data wrapper", `{"data":{"model":"FIESTA","trim":"GTI"}}`, want{"FIESTA", "GTI", true}},
		{"Test array of records", `[{"model":"FIESTA"},{"model":"FOCUS"}]`, want{"FIESTA", "", true}},
		{"Test empty array", `[]`, want{"", "", false}},
		{"Test empty object", `{}`, want{"", "", false}},
		{"Test garbage", `not json`, want{"", "", false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := parseDVSABody(tt.body)
			if ok != tt.want.ok {
				t.Fatalf("parseDVSABody() ok = %v, want %v", ok, tt.want.ok)
			}
			if !ok {
				return
			}
			rec := v.toPartial()
			if rec.Model != tt.want.model {
				t.Errorf("Model = %v, want %v", rec.Model, tt.want.model)
			}
			if rec.Variant != tt.want.variant {
				t.Errorf("Variant = %v, want %v", rec.Variant, tt.want.variant)
			}
		})
	}
}

package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/Bogdan-dragos/vrm-api/internal/config"
	"github.com/Bogdan-dragos/vrm-api/internal/httpclient"
	"github.com/Bogdan-dragos/vrm-api/internal/models"
)

// DVSA queries the MOT history API, the main source of the vehicle
// model. Two authentication strategies exist: a legacy API-key GET and
// an OAuth client-credentials flow. The legacy call is tried first when
// configured; an auth rejection (401/403) falls through to OAuth.
type DVSA struct {
	cfg    config.DVSAConfig
	client *httpclient.Client
	logger *zap.Logger
}

func NewDVSA(cfg config.DVSAConfig, client *httpclient.Client, logger *zap.Logger) *DVSA {
	return &DVSA{cfg: cfg, client: client, logger: logger}
}

func (d *DVSA) Name() string {
	return models.ProviderDVSA
}

// dvsaVehicle covers the response shapes seen across endpoint
// revisions: a bare object, an object wrapped under "vehicle" or
// "data", or (legacy) an array of such records.
type dvsaVehicle struct {
	Make              string       `json:"make"`
	Model             string       `json:"model"`
	FuelType          string       `json:"fuelType"`
	Colour            string       `json:"colour"`
	Derivative        string       `json:"derivative"`
	Trim              string       `json:"trim"`
	YearOfManufacture flexString   `json:"yearOfManufacture"`
	Vehicle           *dvsaVehicle `json:"vehicle"`
	Data              *dvsaVehicle `json:"data"`
}

func (v dvsaVehicle) toPartial() models.PartialVehicleRecord {
	variant := v.Derivative
	if variant == "" {
		variant = v.Trim
	}
	return models.PartialVehicleRecord{
		Year:     v.YearOfManufacture.String(),
		Make:     v.Make,
		Model:    v.Model,
		FuelType: v.FuelType,
		Colour:   v.Colour,
		Variant:  variant,
	}
}

func (v dvsaVehicle) empty() bool {
	return v.Make == "" && v.Model == "" && v.FuelType == "" && v.Colour == "" &&
		v.Derivative == "" && v.Trim == "" && v.YearOfManufacture == ""
}

// parseDVSABody accepts either an array of records or a single object,
// unwrapping one level of "vehicle" or "data" nesting.
func parseDVSABody(text string) (dvsaVehicle, bool) {
	trimmed := strings.TrimSpace(text)
	var v dvsaVehicle
	if strings.HasPrefix(trimmed, "[") {
		var list []dvsaVehicle
		if err := json.Unmarshal([]byte(trimmed), &list); err != nil || len(list) == 0 {
			return dvsaVehicle{}, false
		}
		v = list[0]
	} else if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return dvsaVehicle{}, false
	}
	if v.empty() && v.Vehicle != nil {
		v = *v.Vehicle
	}
	if v.empty() && v.Data != nil {
		v = *v.Data
	}
	if v.empty() {
		return dvsaVehicle{}, false
	}
	return v, true
}

func (d *DVSA) Lookup(ctx context.Context, vrm string, trace *Trace) models.PartialVehicleRecord {
	if !d.cfg.Enabled() {
		return models.PartialVehicleRecord{}
	}

	if d.cfg.LegacyEnabled() {
		rec, status, ok := d.legacyLookup(ctx, vrm, trace)
		if ok {
			return rec
		}
		authRejected := status == http.StatusUnauthorized || status == http.StatusForbidden
		if !authRejected || !d.cfg.OAuthEnabled() {
			return models.PartialVehicleRecord{}
		}
		d.logger.Debug("dvsa legacy auth rejected, trying oauth", zap.Int("status", status))
	}

	if !d.cfg.OAuthEnabled() {
		return models.PartialVehicleRecord{}
	}
	return d.oauthLookup(ctx, vrm, trace)
}

// legacyLookup performs the key-based GET. The returned status lets the
// caller distinguish an auth rejection from any other failure.
func (d *DVSA) legacyLookup(ctx context.Context, vrm string, trace *Trace) (models.PartialVehicleRecord, int, bool) {
	q := url.Values{"registration": {vrm}}
	target := d.cfg.LegacyURL + "?" + q.Encode()
	res := d.client.Call(ctx, http.MethodGet, target, map[string]string{
		"x-api-key": d.cfg.APIKey,
	}, nil)
	trace.Add(models.Attempt{
		Provider:   d.Name(),
		Method:     http.MethodGet,
		Shape:      "legacy",
		URL:        target,
		Status:     res.Status,
		BodySample: res.Text,
	})
	if !res.OK {
		return models.PartialVehicleRecord{}, res.Status, false
	}
	v, ok := parseDVSABody(res.Text)
	if !ok {
		return models.PartialVehicleRecord{}, res.Status, false
	}
	return v.toPartial(), res.Status, true
}

// oauthLookup exchanges client credentials for a bearer token, then
// fetches the vehicle. The token is used once and discarded.
func (d *DVSA) oauthLookup(ctx context.Context, vrm string, trace *Trace) models.PartialVehicleRecord {
	cc := clientcredentials.Config{
		ClientID:     d.cfg.ClientID,
		ClientSecret: d.cfg.ClientSecret,
		TokenURL:     d.cfg.TokenURL,
		// The token endpoint wants the credentials form-encoded in the
		// body, not basic-auth.
		AuthStyle: oauth2.AuthStyleInParams,
	}
	if d.cfg.Scope != "" {
		cc.Scopes = []string{d.cfg.Scope}
	}

	tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, d.client.Underlying())
	token, err := cc.Token(tokenCtx)
	trace.Add(models.Attempt{
		Provider:   d.Name(),
		Method:     http.MethodPost,
		Shape:      "token",
		URL:        d.cfg.TokenURL,
		Status:     tokenStatus(err),
		BodySample: tokenBody(err),
	})
	if err != nil || token.AccessToken == "" {
		d.logger.Debug("dvsa token exchange failed", zap.Error(err))
		return models.PartialVehicleRecord{}
	}

	target := d.cfg.VehicleURL + "/" + url.PathEscape(vrm)
	res := d.client.Call(ctx, http.MethodGet, target, map[string]string{
		"Authorization": "Bearer " + token.AccessToken,
		"x-api-key":     d.cfg.APIKey,
	}, nil)
	trace.Add(models.Attempt{
		Provider:   d.Name(),
		Method:     http.MethodGet,
		Shape:      "oauth",
		URL:        target,
		Status:     res.Status,
		BodySample: res.Text,
	})
	if !res.OK {
		return models.PartialVehicleRecord{}
	}
	v, ok := parseDVSABody(res.Text)
	if !ok {
		return models.PartialVehicleRecord{}
	}
	return v.toPartial()
}

func tokenStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return re.Response.StatusCode
	}
	return 0
}

func tokenBody(err error) string {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		return string(re.Body)
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

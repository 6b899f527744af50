package providers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/Bogdan-dragos/vrm-api/internal/config"
	"github.com/Bogdan-dragos/vrm-api/internal/httpclient"
	"github.com/Bogdan-dragos/vrm-api/internal/models"
)

// DVLA queries the vehicle enquiry service for registration-level data:
// year of manufacture, make, fuel type and colour. It never supplies a
// model or variant.
type DVLA struct {
	cfg    config.DVLAConfig
	client *httpclient.Client
	logger *zap.Logger
}

func NewDVLA(cfg config.DVLAConfig, client *httpclient.Client, logger *zap.Logger) *DVLA {
	return &DVLA{cfg: cfg, client: client, logger: logger}
}

func (d *DVLA) Name() string {
	return models.ProviderDVLA
}

type dvlaVehicle struct {
	YearOfManufacture flexString `json:"yearOfManufacture"`
	Make              string     `json:"make"`
	FuelType          string     `json:"fuelType"`
	Colour            string     `json:"colour"`
}

// Lookup posts the registration number and maps the response fields.
// Any failure yields an all-empty record.
func (d *DVLA) Lookup(ctx context.Context, vrm string, trace *Trace) models.PartialVehicleRecord {
	if !d.cfg.Enabled() {
		return models.PartialVehicleRecord{}
	}

	body, _ := json.Marshal(map[string]string{"registrationNumber": vrm})
	res := d.client.Call(ctx, http.MethodPost, d.cfg.Endpoint, map[string]string{
		"x-api-key":    d.cfg.APIKey,
		"Content-Type": "application/json",
	}, body)
	trace.Add(models.Attempt{
		Provider:   d.Name(),
		Method:     http.MethodPost,
		URL:        d.cfg.Endpoint,
		Status:     res.Status,
		BodySample: res.Text,
	})

	if !res.OK || res.JSON == nil {
		d.logger.Debug("dvla lookup failed", zap.String("vrm", vrm), zap.Int("status", res.Status))
		return models.PartialVehicleRecord{}
	}

	var v dvlaVehicle
	if err := remarshal(res.JSON, &v); err != nil {
		return models.PartialVehicleRecord{}
	}
	return models.PartialVehicleRecord{
		Year:     v.YearOfManufacture.String(),
		Make:     v.Make,
		FuelType: v.FuelType,
		Colour:   v.Colour,
	}
}

// remarshal maps a parsed JSON object onto a typed struct.
func remarshal(src map[string]any, dst any) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

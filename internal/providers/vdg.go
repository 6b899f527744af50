package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/Bogdan-dragos/vrm-api/internal/config"
	"github.com/Bogdan-dragos/vrm-api/internal/httpclient"
	"github.com/Bogdan-dragos/vrm-api/internal/models"
)

// VDG queries the Vehicle Data Global r2/lookup API, the only reliable
// source of a trim/variant string. The upstream's accepted request shape
// has drifted across revisions, so the adapter probes a fixed, ordered
// list of candidate shapes per package name and stops at the first
// response that is marked successful, carries results, and yields a
// variant.
type VDG struct {
	cfg    config.VDGConfig
	client *httpclient.Client
	logger *zap.Logger
}

func NewVDG(cfg config.VDGConfig, client *httpclient.Client, logger *zap.Logger) *VDG {
	return &VDG{cfg: cfg, client: client, logger: logger}
}

func (v *VDG) Name() string {
	return models.ProviderVDG
}

// vdgRequest is one concrete HTTP request a shape builder produced.
type vdgRequest struct {
	method string
	url    string
	body   []byte
}

// vdgShape names one known request shape and builds its request. The
// order of vdgShapes is the probe order and must not be reshuffled
// casually: earlier entries are the shapes current deployments accept.
type vdgShape struct {
	name  string
	build func(base, apiKey, pkg, vrm string) vdgRequest
}

var vdgShapes = []vdgShape{
	{"path-registration", func(base, apiKey, pkg, vrm string) vdgRequest {
		q := url.Values{"apiKey": {apiKey}, "packageName": {pkg}}
		return vdgRequest{http.MethodGet, base + "/r2/lookup/Registration/" + url.PathEscape(vrm) + "?" + q.Encode(), nil}
	}},
	{"path-registrationnumber", func(base, apiKey, pkg, vrm string) vdgRequest {
		q := url.Values{"apiKey": {apiKey}, "packageName": {pkg}}
		return vdgRequest{http.MethodGet, base + "/r2/lookup/RegistrationNumber/" + url.PathEscape(vrm) + "?" + q.Encode(), nil}
	}},
	{"query-registration", func(base, apiKey, pkg, vrm string) vdgRequest {
		q := url.Values{"apiKey": {apiKey}, "packageName": {pkg}, "SearchType": {"Registration"}, "SearchTerm": {vrm}}
		return vdgRequest{http.MethodGet, base + "/r2/lookup?" + q.Encode(), nil}
	}},
	{"query-registrationnumber", func(base, apiKey, pkg, vrm string) vdgRequest {
		q := url.Values{"apiKey": {apiKey}, "packageName": {pkg}, "SearchType": {"RegistrationNumber"}, "SearchTerm": {vrm}}
		return vdgRequest{http.MethodGet, base + "/r2/lookup?" + q.Encode(), nil}
	}},
	{"post-pascal", func(base, apiKey, pkg, vrm string) vdgRequest {
		body, _ := json.Marshal(map[string]string{
			"apiKey": apiKey, "packageName": pkg, "SearchType": "Registration", "SearchTerm": vrm,
		})
		return vdgRequest{http.MethodPost, base + "/r2/lookup", body}
	}},
	{"post-lower", func(base, apiKey, pkg, vrm string) vdgRequest {
		body, _ := json.Marshal(map[string]string{
			"apiKey": apiKey, "packageName": pkg, "searchType": "Registration", "searchTerm": vrm,
		})
		return vdgRequest{http.MethodPost, base + "/r2/lookup", body}
	}},
}

// Envelope structs. encoding/json matches field names case-insensitively,
// which also covers the PascalCase variant of this envelope.

type vdgEnvelope struct {
	ResponseInformation struct {
		IsSuccessStatusCode bool `json:"isSuccessStatusCode"`
	} `json:"responseInformation"`
	Results *vdgResults `json:"results"`
}

type vdgResults struct {
	VehicleDetails *vdgVehicleDetails `json:"vehicleDetails"`
	// Older envelope revisions hang the history off the results root.
	VehicleHistory *vdgVehicleHistory `json:"vehicleHistory"`
	ModelDetails   *vdgModelDetails   `json:"modelDetails"`
}

type vdgVehicleDetails struct {
	VehicleIdentification vdgVehicleIdentification `json:"vehicleIdentification"`
	VehicleHistory        *vdgVehicleHistory       `json:"vehicleHistory"`
}

type vdgVehicleIdentification struct {
	DvlaMake          string     `json:"dvlaMake"`
	DvlaModel         string     `json:"dvlaModel"`
	DvlaFuelType      string     `json:"dvlaFuelType"`
	YearOfManufacture flexString `json:"yearOfManufacture"`
	DateOfManufacture string     `json:"dateOfManufacture"`
}

type vdgVehicleHistory struct {
	ColourDetails struct {
		CurrentColour string `json:"currentColour"`
	} `json:"colourDetails"`
}

type vdgModelDetails struct {
	ModelIdentification struct {
		Make         string `json:"make"`
		Model        string `json:"model"`
		Range        string `json:"range"`
		Series       string `json:"series"`
		ModelVariant string `json:"modelVariant"`
	} `json:"modelIdentification"`
}

func (r *vdgResults) empty() bool {
	return r == nil || (r.VehicleDetails == nil && r.ModelDetails == nil && r.VehicleHistory == nil)
}

// vdgFlat is the older flat response schema, either bare at the root or
// wrapped under "data". PascalCase keys are the common spelling; json's
// case-insensitive matching covers both.
type vdgFlat struct {
	Make              string     `json:"make"`
	Model             string     `json:"model"`
	Variant           string     `json:"variant"`
	Derivative        string     `json:"derivative"`
	Trim              string     `json:"trim"`
	YearOfManufacture flexString `json:"yearOfManufacture"`
	FuelType          string     `json:"fuelType"`
	Colour            string     `json:"colour"`
	Data              *vdgFlat   `json:"data"`
}

func (f vdgFlat) fields() models.PartialVehicleRecord {
	variant := f.Variant
	if variant == "" {
		variant = f.Derivative
	}
	if variant == "" {
		variant = f.Trim
	}
	return models.PartialVehicleRecord{
		Year:     f.YearOfManufacture.String(),
		Make:     f.Make,
		Model:    f.Model,
		Variant:  variant,
		FuelType: f.FuelType,
		Colour:   f.Colour,
	}
}

// parseVDGFlat maps the flat schema, unwrapping one "data" level.
func parseVDGFlat(raw []byte) (models.PartialVehicleRecord, bool) {
	var flat vdgFlat
	if err := json.Unmarshal(raw, &flat); err != nil {
		return models.PartialVehicleRecord{}, false
	}
	rec := flat.fields()
	if rec.Empty() && flat.Data != nil {
		rec = flat.Data.fields()
	}
	return rec, !rec.Empty()
}

var leadingYear = regexp.MustCompile(`^\d{4}`)

// Lookup probes every shape for every configured package name, in order,
// until one response yields a variant. A response that carries data but
// no variant is kept as an opportunistic fallback.
func (v *VDG) Lookup(ctx context.Context, vrm string, trace *Trace) models.PartialVehicleRecord {
	if !v.cfg.Enabled() {
		return models.PartialVehicleRecord{}
	}

	var fallback models.PartialVehicleRecord
	for _, pkg := range v.cfg.Packages {
		for _, shape := range vdgShapes {
			if ctx.Err() != nil {
				return fallback
			}
			req := shape.build(v.cfg.BaseURL, v.cfg.APIKey, pkg, vrm)
			headers := map[string]string{}
			if req.body != nil {
				headers["Content-Type"] = "application/json"
			}
			res := v.client.Call(ctx, req.method, req.url, headers, req.body)
			trace.Add(models.Attempt{
				Provider:   v.Name(),
				Method:     req.method,
				Shape:      shape.name + "/" + pkg,
				URL:        req.url,
				Status:     res.Status,
				BodySample: res.Text,
			})
			if !res.OK {
				continue
			}

			var env vdgEnvelope
			if err := json.Unmarshal([]byte(res.Text), &env); err != nil {
				continue
			}

			// Nested envelope first; a body without one may still be
			// the older flat schema.
			var rec models.PartialVehicleRecord
			if env.ResponseInformation.IsSuccessStatusCode && !env.Results.empty() {
				rec = parseVDGResults(env.Results)
			} else if flat, ok := parseVDGFlat([]byte(res.Text)); ok {
				rec = flat
			} else {
				continue
			}
			if rec.Variant != "" || rec.DerivedVariant != "" {
				v.logger.Debug("vdg probe succeeded",
					zap.String("vrm", vrm), zap.String("shape", shape.name), zap.String("package", pkg))
				return rec
			}
			if fallback.Empty() && !rec.Empty() {
				fallback = rec
			}
		}
	}
	return fallback
}

// parseVDGResults maps a successful envelope onto a partial record.
// Manufacturer-assigned identification is preferred over the
// DVLA-sourced fields, and the model range over compound model strings.
func parseVDGResults(results *vdgResults) models.PartialVehicleRecord {
	var rec models.PartialVehicleRecord

	var ident vdgVehicleIdentification
	if results.VehicleDetails != nil {
		ident = results.VehicleDetails.VehicleIdentification
		if results.VehicleDetails.VehicleHistory != nil {
			rec.Colour = results.VehicleDetails.VehicleHistory.ColourDetails.CurrentColour
		}
	}
	if rec.Colour == "" && results.VehicleHistory != nil {
		rec.Colour = results.VehicleHistory.ColourDetails.CurrentColour
	}

	rec.Make = ident.DvlaMake
	rec.Model = ident.DvlaModel
	rec.FuelType = ident.DvlaFuelType
	rec.Year = ident.YearOfManufacture.String()
	if rec.Year == "" {
		rec.Year = leadingYear.FindString(ident.DateOfManufacture)
	}

	if results.ModelDetails != nil {
		mi := results.ModelDetails.ModelIdentification
		if mi.Make != "" {
			rec.Make = mi.Make
		}
		if mi.Range != "" {
			rec.Model = mi.Range
		} else if mi.Model != "" {
			rec.Model = mi.Model
		}
		rec.Variant = mi.ModelVariant
		if rec.Variant == "" {
			rec.Variant = mi.Series
		}
		if rec.Variant == "" {
			rec.DerivedVariant = deriveVariant(ident.DvlaModel, mi.Range, mi.Model)
		}
	}
	return rec
}

// deriveVariant extracts the trailing portion of a compound DVLA model
// string once the canonical range (or model) prefix is stripped, e.g.
// "FIESTA ZETEC TDCI" with range "FIESTA" yields "ZETEC TDCI". Matching
// is case-insensitive with collapsed whitespace.
func deriveVariant(compound string, prefixes ...string) string {
	compound = strings.Join(strings.Fields(compound), " ")
	if compound == "" {
		return ""
	}
	for _, prefix := range prefixes {
		prefix = strings.Join(strings.Fields(prefix), " ")
		if prefix == "" {
			continue
		}
		if strings.HasPrefix(strings.ToUpper(compound), strings.ToUpper(prefix)) {
			tail := strings.TrimSpace(compound[len(prefix):])
			if tail != "" && tail != compound {
				return tail
			}
		}
	}
	return ""
}

package lookup

import (
	"strings"

	"github.com/Bogdan-dragos/vrm-api/internal/models"
)

// VariantSource points at one provider's variant contribution; Derived
// selects the prefix-stripped fallback instead of the sourced value.
type VariantSource struct {
	Provider string
	Derived  bool
}

// Policy fixes the per-field provider precedence used by Merge. First
// non-empty value wins along each slice.
type Policy struct {
	Year     []string
	Make     []string
	Model    []string
	FuelType []string
	Colour   []string
	Variant  []VariantSource
}

// DefaultPolicy encodes the adapters' strengths: DVLA/DVSA are
// authoritative for registration-level fields, DVSA for model, and VDG
// for variant with DVSA's derivative as the last resort. A variant is
// never composed from other fields.
func DefaultPolicy() Policy {
	registration := []string{models.ProviderDVLA, models.ProviderDVSA, models.ProviderVDG}
	return Policy{
		Year:     registration,
		Make:     registration,
		FuelType: registration,
		Colour:   registration,
		Model:    []string{models.ProviderDVSA, models.ProviderVDG, models.ProviderDVLA},
		Variant: []VariantSource{
			{Provider: models.ProviderVDG},
			{Provider: models.ProviderVDG, Derived: true},
			{Provider: models.ProviderDVSA},
		},
	}
}

// Merge folds the per-provider partial records into one VehicleRecord.
// It is pure: the outcome depends only on the policy and the completed
// partials, never on which provider answered first. The variant is
// cleaned against the merged make, and the description recomputed from
// the merged fields.
func Merge(policy Policy, vrm string, parts map[string]models.PartialVehicleRecord) models.VehicleRecord {
	pick := func(order []string, field func(models.PartialVehicleRecord) string) string {
		for _, name := range order {
			if v := strings.TrimSpace(field(parts[name])); v != "" {
				return v
			}
		}
		return ""
	}

	rec := models.VehicleRecord{
		VRM:      vrm,
		Year:     pick(policy.Year, func(p models.PartialVehicleRecord) string { return p.Year }),
		Make:     pick(policy.Make, func(p models.PartialVehicleRecord) string { return p.Make }),
		Model:    pick(policy.Model, func(p models.PartialVehicleRecord) string { return p.Model }),
		FuelType: pick(policy.FuelType, func(p models.PartialVehicleRecord) string { return p.FuelType }),
		Colour:   pick(policy.Colour, func(p models.PartialVehicleRecord) string { return p.Colour }),
	}

	for _, src := range policy.Variant {
		part := parts[src.Provider]
		raw := part.Variant
		if src.Derived {
			raw = part.DerivedVariant
		}
		if v := CleanVariant(standardizeSpaces(raw), rec.Make); v != "" {
			rec.Variant = v
			break
		}
	}

	rec.Description = describe(rec)
	return rec
}

// describe joins the non-empty display fields into a single line, e.g.
// "2017 FORD FIESTA ZETEC PETROL".
func describe(rec models.VehicleRecord) string {
	parts := make([]string, 0, 5)
	for _, v := range []string{rec.Year, rec.Make, rec.Model, rec.Variant, rec.FuelType} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

package models

// Provider names, used for merge precedence and attempt traces.
const (
	ProviderDVLA = "dvla"
	ProviderDVSA = "dvsa"
	ProviderVDG  = "vdg"
)

// VehicleRecord is the merged lookup result returned to the caller.
// Empty string means unknown; fields are never null or omitted.
type VehicleRecord struct {
	VRM         string `json:"vrm"`
	Year        string `json:"year"`
	Make        string `json:"make"`
	Model       string `json:"model"`
	Variant     string `json:"variant"`
	FuelType    string `json:"fuelType"`
	Colour      string `json:"colour"`
	Description string `json:"description"`
}

// PartialVehicleRecord is one provider's contribution before merging.
// DerivedVariant holds a variant synthesized by stripping a model-range
// prefix out of a compound model string, kept apart from a directly
// sourced Variant so the merge can prefer real data.
type PartialVehicleRecord struct {
	Year           string
	Make           string
	Model          string
	Variant        string
	DerivedVariant string
	FuelType       string
	Colour         string
}

// Empty reports whether the record carries no data at all.
func (p PartialVehicleRecord) Empty() bool {
	return p == PartialVehicleRecord{}
}

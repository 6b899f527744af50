package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DVLAConfig covers the DVLA vehicle enquiry service.
type DVLAConfig struct {
	APIKey   string
	Endpoint string
}

// Enabled reports whether the DVLA adapter has credentials to work with.
func (c DVLAConfig) Enabled() bool {
	return c.APIKey != "" && c.Endpoint != ""
}

// DVSAConfig covers the MOT history API. LegacyURL+APIKey drive the
// key-based strategy; ClientID/ClientSecret/TokenURL drive OAuth.
type DVSAConfig struct {
	APIKey       string
	LegacyURL    string
	VehicleURL   string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scope        string
}

func (c DVSAConfig) LegacyEnabled() bool {
	return c.LegacyURL != "" && c.APIKey != ""
}

func (c DVSAConfig) OAuthEnabled() bool {
	return c.TokenURL != "" && c.ClientID != "" && c.ClientSecret != "" && c.VehicleURL != ""
}

func (c DVSAConfig) Enabled() bool {
	return c.LegacyEnabled() || c.OAuthEnabled()
}

// VDGConfig covers the Vehicle Data Global r2/lookup API.
type VDGConfig struct {
	BaseURL  string
	APIKey   string
	Packages []string
}

func (c VDGConfig) Enabled() bool {
	return c.BaseURL != "" && c.APIKey != ""
}

// Config is the full application configuration, loaded once at startup
// and read-only afterwards.
type Config struct {
	ListenAddr string
	// HTTPTimeout bounds each upstream call; LookupBudget bounds one
	// whole lookup, including VDG's multi-shape probing.
	HTTPTimeout  time.Duration
	LookupBudget time.Duration
	Debug        bool
	DVLA         DVLAConfig
	DVSA         DVSAConfig
	VDG          VDGConfig
}

// Load reads configuration from the environment, with a local .env file
// merged in when one exists. Absent provider credentials disable that
// provider rather than failing startup.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env file.")
	}

	viper.AutomaticEnv()
	viper.SetDefault("LISTEN_ADDR", "127.0.0.1:8010")
	viper.SetDefault("HTTP_TIMEOUT_SECONDS", 10)
	viper.SetDefault("LOOKUP_BUDGET_SECONDS", 25)
	viper.SetDefault("DVLA_ENDPOINT", "https://driver-vehicle-licensing.api.gov.uk/vehicle-enquiry/v1/vehicles")
	viper.SetDefault("DVSA_VEHICLE_URL", "https://history.mot.api.gov.uk/v1/trade/vehicles/registration")
	viper.SetDefault("VDG_PACKAGE", "VehicleDetails")

	packages := []string{viper.GetString("VDG_PACKAGE")}
	for _, fallback := range viper.GetStringSlice("VDG_FALLBACK_PACKAGES") {
		if fallback != "" && fallback != packages[0] {
			packages = append(packages, fallback)
		}
	}

	return Config{
		ListenAddr:   viper.GetString("LISTEN_ADDR"),
		HTTPTimeout:  time.Duration(viper.GetInt("HTTP_TIMEOUT_SECONDS")) * time.Second,
		LookupBudget: time.Duration(viper.GetInt("LOOKUP_BUDGET_SECONDS")) * time.Second,
		Debug:        viper.GetBool("LOG_DEBUG"),
		DVLA: DVLAConfig{
			APIKey:   viper.GetString("DVLA_API_KEY"),
			Endpoint: viper.GetString("DVLA_ENDPOINT"),
		},
		DVSA: DVSAConfig{
			APIKey:       viper.GetString("DVSA_API_KEY"),
			LegacyURL:    viper.GetString("DVSA_LEGACY_URL"),
			VehicleURL:   viper.GetString("DVSA_VEHICLE_URL"),
			TokenURL:     viper.GetString("DVSA_TOKEN_URL"),
			ClientID:     viper.GetString("DVSA_CLIENT_ID"),
			ClientSecret: viper.GetString("DVSA_CLIENT_SECRET"),
			Scope:        viper.GetString("DVSA_SCOPE_URL"),
		},
		VDG: VDGConfig{
			BaseURL:  viper.GetString("VDG_BASE"),
			APIKey:   viper.GetString("VDG_API_KEY"),
			Packages: packages,
		},
	}
}

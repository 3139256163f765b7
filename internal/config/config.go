package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config holds the server settings.
type Config struct {
	Addr         string
	DataFile     string
	PublicDir    string
	JWTSecret    string
	JWTExpiry    time.Duration
	MaxUploadMB  int
	UsePdftotext bool
}

// New returns a viper instance with defaults applied and environment
// variables bound under the PORTAL_ prefix (e.g. PORTAL_ADDR).
func New() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("addr", ":4000")
	v.SetDefault("dataFile", "db.json")
	v.SetDefault("publicDir", "public")
	v.SetDefault("jwtSecret", "change-me-tutor-portal-secret")
	v.SetDefault("jwtExpiry", time.Hour)
	v.SetDefault("maxUploadMB", 32)
	v.SetDefault("pdftotext", true)
	v.SetEnvPrefix("PORTAL")
	v.AutomaticEnv()
	return v
}

// Load reads dotEnvPath (if it exists) into the environment and returns
// the resolved configuration.
func Load(dotEnvPath string) (*Config, error) {
	if dotEnvPath != "" {
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				return nil, errors.Wrapf(err, "config.godotenv(%s)", dotEnvPath)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "config.os.Stat(%s)", dotEnvPath)
		}
	}
	return FromViper(New())
}

// FromViper resolves a Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Addr:         v.GetString("addr"),
		DataFile:     v.GetString("dataFile"),
		PublicDir:    v.GetString("publicDir"),
		JWTSecret:    v.GetString("jwtSecret"),
		JWTExpiry:    v.GetDuration("jwtExpiry"),
		MaxUploadMB:  v.GetInt("maxUploadMB"),
		UsePdftotext: v.GetBool("pdftotext"),
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("config: jwtSecret must not be empty")
	}
	if cfg.JWTExpiry <= 0 {
		return nil, errors.Errorf("config: jwtExpiry must be positive, got %s", cfg.JWTExpiry)
	}
	if cfg.MaxUploadMB <= 0 {
		return nil, errors.Errorf("config: maxUploadMB must be positive, got %d", cfg.MaxUploadMB)
	}
	return cfg, nil
}

package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/portalos/pkg/domain/model"
	"github.com/secmon-lab/portalos/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// Default URLs of the embedded sub-applications
const (
	DefaultDashboardURL      = "https://script.google.com/macros/s/AKfycbyj4h8m5_44SBNDpsMGcO4AJTNkpqO7cHRy_vnEYYcIU_DZHHT5IS4u5exMX8lOac75/exec"
	DefaultAdministrationURL = "https://script.google.com/macros/s/AKfycbyH9b_E-knT2OsbSqKcEoS5fLU4U54arQ8XRWUxA5Z9MRVIEI30nQjcB-sk4mZx8xAg/exec"
	DefaultPreparationURL    = "https://script.google.com/macros/s/AKfycbwLCEICqyo_W7iyS-SWaX9QpmS4jk73ebfFRfEiUjzPvl8WnKIL9m_X8x5Wdz3icJeX/exec"
)

// PortalConfig is the TOML file describing the views and the landing page
type PortalConfig struct {
	Title  string       `toml:"title"`
	Notice string       `toml:"notice"`
	Views  []ViewConfig `toml:"view"`
}

// ViewConfig overrides the description of one view. Empty fields keep the default.
type ViewConfig struct {
	ID          string `toml:"id"`
	Label       string `toml:"label"`
	URL         string `toml:"url"`
	LoadingText string `toml:"loading_text"`
	ErrorText   string `toml:"error_text"`
}

// Validate checks if the ViewConfig is valid
func (v *ViewConfig) Validate() error {
	if _, err := types.ParseViewID(v.ID); err != nil {
		return goerr.Wrap(ErrInvalidConfig, "unknown view", goerr.V(ViewKey, v.ID))
	}
	return nil
}

// Validate checks if the PortalConfig is valid
func (p *PortalConfig) Validate() error {
	seen := make(map[types.ViewID]bool)
	for _, v := range p.Views {
		if err := v.Validate(); err != nil {
			return goerr.Wrap(err, "invalid view")
		}
		id, _ := types.ParseViewID(v.ID)
		if seen[id] {
			return goerr.Wrap(ErrInvalidConfig, "duplicate view", goerr.V(ViewKey, v.ID))
		}
		seen[id] = true
	}

	if _, err := p.ViewCatalog(); err != nil {
		return goerr.Wrap(err, "invalid view catalog")
	}
	return nil
}

// DefaultPortalConfig returns the configuration used without a file
func DefaultPortalConfig() *PortalConfig {
	return &PortalConfig{Title: "Portal OS"}
}

func defaultViewSpecs() []model.ViewSpec {
	return []model.ViewSpec{
		{
			ID:          types.ViewDashboard,
			Label:       "Dashboard",
			URL:         DefaultDashboardURL,
			LoadingText: "Cargando Dashboard...",
			ErrorText:   "No se pudo cargar el Dashboard. Puede ser un problema de conexión o permisos.",
		},
		{
			ID:          types.ViewAdministration,
			Label:       "Administración",
			URL:         DefaultAdministrationURL,
			LoadingText: "Cargando Administración...",
			ErrorText:   "No se pudo cargar Administración. Puede ser un problema de conexión o permisos.",
		},
		{
			ID:          types.ViewPreparation,
			Label:       "Preparación",
			URL:         DefaultPreparationURL,
			LoadingText: "Cargando Preparación...",
			ErrorText:   "No se pudo cargar Preparación. Puede ser un problema de conexión o permisos.",
		},
	}
}

// ViewCatalog merges the configured views over the defaults
func (p *PortalConfig) ViewCatalog() (*model.ViewCatalog, error) {
	specs := defaultViewSpecs()
	for _, v := range p.Views {
		id, err := types.ParseViewID(v.ID)
		if err != nil {
			return nil, goerr.Wrap(ErrInvalidConfig, "unknown view", goerr.V(ViewKey, v.ID))
		}
		for i := range specs {
			if specs[i].ID != id {
				continue
			}
			if v.Label != "" {
				specs[i].Label = v.Label
			}
			if v.URL != "" {
				specs[i].URL = v.URL
			}
			if v.LoadingText != "" {
				specs[i].LoadingText = v.LoadingText
			}
			if v.ErrorText != "" {
				specs[i].ErrorText = v.ErrorText
			}
		}
	}
	return model.NewViewCatalog(specs...)
}

// LoadPortalConfiguration loads the portal configuration from a TOML file
func LoadPortalConfiguration(path string) (*PortalConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "config file not found", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	config := DefaultPortalConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config",
			goerr.V(ConfigPathKey, path), goerr.V("error", err.Error()))
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return config, nil
}

// Portal holds the CLI flag pointing at the portal configuration file
type Portal struct {
	path string
}

// Flags returns CLI flags for portal configuration
func (x *Portal) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Portal configuration file (TOML). Built-in views are used when empty",
			Sources:     cli.EnvVars("PORTALOS_CONFIG"),
			Destination: &x.path,
		},
	}
}

// Configure loads the configuration file, or returns the defaults when no file is given
func (x *Portal) Configure() (*PortalConfig, error) {
	if x.path == "" {
		return DefaultPortalConfig(), nil
	}
	return LoadPortalConfiguration(x.path)
}

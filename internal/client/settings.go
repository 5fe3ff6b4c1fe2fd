package client

import (
	"os"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/mdouchement/lostfound/internal/client/tui"
	"github.com/mdouchement/lostfound/pkg/liblf"
	"github.com/pkg/errors"
)

// DefaultSettingsFile is the settings file read when none is given.
const DefaultSettingsFile = "lfc.yml"

// Settings are the client settings.
type Settings struct {
	Endpoint         string
	APIKey           string
	IdentityEndpoint string
	TokenEndpoint    string
	LogFile          string
	LogLevel         string
}

// LoadSettings reads the settings from the given YAML file.
// A missing default file is not an error, the defaults are used.
func LoadSettings(filename string) (Settings, error) {
	konf := koanf.New(".")

	err := konf.Load(confmap.Provider(map[string]any{
		"identity.endpoint":       liblf.IdentityEndpoint,
		"identity.token_endpoint": liblf.SecureTokenEndpoint,
		"log_file":                tui.DefaultLogFile,
		"log_level":               tui.DefaultLogLevel,
	}, "."), nil)
	if err != nil {
		return Settings{}, errors.Wrap(err, "could not load default settings")
	}

	explicit := filename != ""
	if !explicit {
		filename = DefaultSettingsFile
	}

	if _, err := os.Stat(filename); err == nil || explicit {
		if err := konf.Load(file.Provider(filename), yaml.Parser()); err != nil {
			return Settings{}, errors.Wrapf(err, "could not load settings %s", filename)
		}
	}

	settings := Settings{
		Endpoint:         konf.String("endpoint"),
		APIKey:           konf.String("identity.api_key"),
		IdentityEndpoint: konf.String("identity.endpoint"),
		TokenEndpoint:    konf.String("identity.token_endpoint"),
		LogFile:          konf.String("log_file"),
		LogLevel:         konf.String("log_level"),
	}
	if settings.Endpoint == "" {
		return settings, errors.Errorf("missing endpoint in settings %s", filename)
	}
	return settings, nil
}

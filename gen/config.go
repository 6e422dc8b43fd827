package gen

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/dartffi/bindgen/errors"
)

// Config carries generator options. The zero value generates with defaults.
type Config struct {
	// LibraryPath is the path the generated output opens with
	// DynamicLibrary.open. Empty selects the platform-conventional library
	// name derived from the FFI module.
	LibraryPath string `toml:"library_path"`

	// FFIModule overrides the model's symbol-name infix.
	FFIModule string `toml:"ffi_module"`

	// Renames maps declared type names to the names used for them in the
	// generated output. The rename happens before naming rules apply, so a
	// renamed error type still gets the Exception rewrite.
	Renames map[string]string `toml:"renames"`
}

// LoadConfig reads generator options from a TOML file. An empty path or a
// missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, path)
	}
	return cfg, nil
}

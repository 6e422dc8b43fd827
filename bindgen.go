package bindgen

import (
	"os"

	"go.uber.org/zap"

	"github.com/dartffi/bindgen/gen"
	"github.com/dartffi/bindgen/model"
)

// Generate renders the Dart binding source for an interface model. cfg and
// log may be nil for defaults.
func Generate(defs *model.Definitions, cfg *gen.Config, log *zap.Logger) (string, error) {
	return gen.NewGenerator(defs, cfg, log).Generate()
}

// OutputFile loads a JSON interface model, renders the binding source and
// writes it to outPath. configPath may be empty or point at a missing file,
// both select the default generator options.
func OutputFile(modelPath, configPath, outPath string) error {
	defs, err := model.LoadFile(modelPath)
	if err != nil {
		return err
	}
	cfg, err := gen.LoadConfig(configPath)
	if err != nil {
		return err
	}
	out, err := Generate(defs, cfg, nil)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, []byte(out), 0o644)
}

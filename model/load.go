package model

import (
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/dartffi/bindgen/errors"
)

// Load decodes a frontend-produced JSON model from r. The model is assumed
// validated upstream; only structural decode errors are reported.
func Load(r io.Reader) (*Definitions, error) {
	var d Definitions
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return nil, errors.Wrap(errors.PhaseModel, errors.KindInvalidData, err, "decode interface model")
	}
	if d.Namespace == "" {
		return nil, errors.InvalidData(errors.PhaseModel, nil, "model missing namespace")
	}
	d.Finalize()
	return &d, nil
}

// LoadFile reads and decodes a JSON model file.
func LoadFile(path string) (*Definitions, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseModel, errors.KindInvalidData, err, "open model file")
	}
	defer f.Close()
	return Load(f)
}

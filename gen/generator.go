package gen

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/dartffi/bindgen/errors"
	"github.com/dartffi/bindgen/model"
)

// Generator turns a loaded definitions model into one Dart source unit.
type Generator struct {
	defs *model.Definitions
	cfg  *Config
	log  *zap.Logger
}

// NewGenerator creates a generator over the given model. cfg and log may be
// nil for defaults.
func NewGenerator(defs *model.Definitions, cfg *Config, log *zap.Logger) *Generator {
	if cfg == nil {
		cfg = &Config{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{defs: defs, cfg: cfg, log: log}
}

// Generate renders the complete Dart binding source: runtime support, one
// codec unit per reachable type, wrappers for top-level functions, and the
// native symbol table. Declarations are independently compilable, so their
// relative order carries no meaning.
func (g *Generator) Generate() (string, error) {
	defs, err := g.prepare()
	if err != nil {
		return "", err
	}

	helper := NewTypeHelper(defs, g.log)
	// The call-status error path and enum tag plumbing always need these.
	if err := helper.Include(model.String()); err != nil {
		return "", err
	}

	for _, e := range defs.Enums {
		g.log.Debug("emitting declaration", zap.String("kind", "enum"), zap.String("name", e.Name))
		if err := helper.Include(model.EnumRef(e.Name)); err != nil {
			return "", err
		}
	}
	for _, r := range defs.Records {
		g.log.Debug("emitting declaration", zap.String("kind", "record"), zap.String("name", r.Name))
		if err := helper.Include(model.RecordRef(r.Name)); err != nil {
			return "", err
		}
	}
	for _, o := range defs.Objects {
		g.log.Debug("emitting declaration", zap.String("kind", "object"), zap.String("name", o.Name))
		if err := helper.Include(o.AsType()); err != nil {
			return "", err
		}
	}
	for _, cb := range defs.Callbacks {
		g.log.Debug("emitting declaration", zap.String("kind", "callback"), zap.String("name", cb.Name))
		if err := helper.Include(model.CallbackRef(cb.Name)); err != nil {
			return "", err
		}
	}

	functions, err := g.renderFunctions(helper, defs)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(fileHeader(defs.Namespace))
	b.WriteString(g.runtimePrelude(defs))
	b.WriteString(helper.Render())
	b.WriteString(functions)
	b.WriteString(g.libraryClass(defs))

	g.log.Info("generated binding unit",
		zap.String("namespace", defs.Namespace),
		zap.Int("enums", len(defs.Enums)),
		zap.Int("records", len(defs.Records)),
		zap.Int("objects", len(defs.Objects)),
		zap.Int("callbacks", len(defs.Callbacks)),
		zap.Int("functions", len(defs.Functions)))
	return b.String(), nil
}

// prepare deep-copies the model so config overrides and renames never leak
// back into the caller's definitions. The FFI module override applies before
// entry-point derivation; renames apply after, so native symbols always
// follow the frontend's declared names.
func (g *Generator) prepare() (*model.Definitions, error) {
	raw, err := json.Marshal(g.defs)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "clone model")
	}
	defs := &model.Definitions{}
	if err := json.Unmarshal(raw, defs); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "clone model")
	}
	if g.cfg.FFIModule != "" {
		defs.FFIModule = g.cfg.FFIModule
	}
	defs.Finalize()
	if len(g.cfg.Renames) > 0 {
		applyRenames(defs, g.cfg.Renames)
	}
	return defs, nil
}

func applyRenames(d *model.Definitions, renames map[string]string) {
	ren := func(name string) string {
		if to, ok := renames[name]; ok {
			return to
		}
		return name
	}
	var renType func(t *model.Type)
	renType = func(t *model.Type) {
		if t == nil {
			return
		}
		t.Name = ren(t.Name)
		renType(t.Inner)
		renType(t.Key)
		renType(t.Value)
	}
	renMethod := func(m *model.Method) {
		for _, a := range m.Args {
			renType(&a.Type)
		}
		renType(m.Return)
		m.Throws = ren(m.Throws)
	}

	for _, e := range d.Enums {
		e.Name = ren(e.Name)
		for _, v := range e.Variants {
			for _, f := range v.Fields {
				renType(&f.Type)
			}
		}
	}
	for _, r := range d.Records {
		r.Name = ren(r.Name)
		for _, f := range r.Fields {
			renType(&f.Type)
		}
	}
	for _, o := range d.Objects {
		o.Name = ren(o.Name)
		for _, c := range o.Constructors {
			for _, a := range c.Args {
				renType(&a.Type)
			}
			c.Throws = ren(c.Throws)
		}
		for _, m := range o.Methods {
			renMethod(m)
		}
		for _, tr := range o.Traits {
			if tr.Method != nil {
				renMethod(tr.Method)
			}
		}
	}
	for _, cb := range d.Callbacks {
		cb.Name = ren(cb.Name)
		for _, m := range cb.Methods {
			renMethod(m)
		}
	}
	for _, fn := range d.Functions {
		for _, a := range fn.Args {
			renType(&a.Type)
		}
		renType(fn.Return)
		fn.Throws = ren(fn.Throws)
	}
	for i, name := range d.ErrorNames {
		d.ErrorNames[i] = ren(name)
	}
}

// renderFunctions emits the top-level function wrappers: the same three call
// forms as object methods, minus the instance clone.
func (g *Generator) renderFunctions(helper *TypeHelper, defs *model.Definitions) (string, error) {
	var b strings.Builder
	for _, fn := range defs.Functions {
		g.log.Debug("emitting declaration", zap.String("kind", "function"), zap.String("name", fn.Name))
		m := functionAsMethod(fn)
		if err := helper.includeCallableTypes(m.Args, m.Return, m.Throws); err != nil {
			return "", err
		}
		helper.writeMethodWrapper(&b, m, false)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func functionAsMethod(fn *model.Function) *model.Method {
	return &model.Method{
		Name:          fn.Name,
		Args:          fn.Args,
		Return:        fn.Return,
		Throws:        fn.Throws,
		Async:         fn.Async,
		FFISymbol:     fn.FFISymbol,
		FFIPoll:       fn.FFIPoll,
		FFIComplete:   fn.FFIComplete,
		FFIFreeFuture: fn.FFIFreeFuture,
	}
}

func fileHeader(namespace string) string {
	return fmt.Sprintf("// AUTO GENERATED FILE, DO NOT EDIT.\n"+
		"//\n"+
		"// Bindings for the %q native library.\n\n"+
		"library %s;\n\n"+
		"import \"dart:async\";\n"+
		"import \"dart:convert\";\n"+
		"import \"dart:ffi\";\n"+
		"import \"dart:io\" show Platform;\n"+
		"import \"dart:typed_data\";\n\n"+
		"import \"package:ffi/ffi.dart\";\n\n", namespace, namespace)
}

package model

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
	cueyaml "cuelang.org/go/encoding/yaml"
	"github.com/pelletier/go-toml"

	_ "embed"
)

// Format of a service declaration file.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
	FormatJSON
)

var formatExtensions = map[string]Format{
	"":      FormatTOML,
	".toml": FormatTOML,
	".yaml": FormatYAML,
	".yml":  FormatYAML,
	".json": FormatJSON,
}

//go:embed service.cue
var cueSource []byte

var (
	cueCtx *cue.Context
	schema cue.Value
)

func init() {
	if len(cueSource) == 0 {
		panic("variable cueSource is empty")
	}
	cueCtx = cuecontext.New()
	compiled := cueCtx.CompileBytes(cueSource, cue.Filename("service.cue"))
	if compiled.Err() != nil {
		panic(compiled.Err())
	}
	if err := compiled.Validate(); err != nil {
		panic(err)
	}

	schema = compiled.LookupPath(cue.ParsePath("#Service"))
	if schema.Err() != nil {
		panic(schema.Err())
	}
}

// declaration is the on-disk shape of a service, keys are kebab-case.
type declaration struct {
	Type         string   `json:"type"`
	Up           *string  `json:"up,omitempty"`
	Run          *string  `json:"run,omitempty"`
	Finish       *string  `json:"finish,omitempty"`
	ConsumerFor  *string  `json:"consumer-for,omitempty"`
	ProducerFor  *string  `json:"producer-for,omitempty"`
	PipelineName *string  `json:"pipeline-name,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
	Extensions   *struct {
		Log *struct {
			Dir string `json:"dir"`
		} `json:"log,omitempty"`
		Restart *struct {
			OnFailure bool `json:"on-failure"`
		} `json:"restart,omitempty"`
	} `json:"extensions,omitempty"`
}

// ServiceName returns the service name for a declaration file, which is its
// base name without the extension, and the format of the file.
func ServiceName(filename string) (string, Format, error) {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	format, ok := formatExtensions[strings.ToLower(ext)]
	if !ok {
		return "", 0, fmt.Errorf("%s: %w %q", filename, ErrUnsupportedFormat, ext)
	}
	name := strings.TrimSuffix(base, ext)
	if name == "" {
		return "", 0, fmt.Errorf("%s: empty service name: %w", filename, ErrInvalidService)
	}
	return name, format, nil
}

// LoadService reads a declaration from r, validates it against the #Service
// CUE schema and converts it to Service. The format is derived from the
// filename extension, see ServiceName.
func LoadService(filename string, r io.Reader) (*Service, error) {
	_, format, err := ServiceName(filename)
	if err != nil {
		return nil, err
	}
	value, err := build(filename, format, r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	unified := schema.Unify(value)
	if err := unified.Validate(
		cue.All(),
		cue.Concrete(true),
	); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", filename, ErrInvalidService, err)
	}

	var decl declaration
	if err := unified.Decode(&decl); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", filename, ErrInvalidService, err)
	}
	return decl.service()
}

func build(filename string, format Format, r io.Reader) (cue.Value, error) {
	switch format {
	case FormatYAML:
		f, err := cueyaml.Extract(filename, r)
		if err != nil {
			return cue.Value{}, err
		}
		return cueCtx.BuildFile(f), nil
	case FormatJSON:
		b, err := io.ReadAll(r)
		if err != nil {
			return cue.Value{}, err
		}
		expr, err := cuejson.Extract(filename, b)
		if err != nil {
			return cue.Value{}, err
		}
		return cueCtx.BuildExpr(expr), nil
	default:
		b, err := io.ReadAll(r)
		if err != nil {
			return cue.Value{}, err
		}
		tree, err := toml.LoadBytes(b)
		if err != nil {
			return cue.Value{}, err
		}
		v := cueCtx.Encode(tree.ToMap())
		return v, v.Err()
	}
}

func (d declaration) service() (*Service, error) {
	typ, err := ParseServiceType(d.Type)
	if err != nil {
		return nil, err
	}
	svc := &Service{
		Type:         typ,
		Up:           d.Up,
		Run:          d.Run,
		Finish:       d.Finish,
		ConsumerFor:  d.ConsumerFor,
		ProducerFor:  d.ProducerFor,
		PipelineName: d.PipelineName,
		Dependencies: d.Dependencies,
	}
	if d.Extensions != nil {
		svc.Extensions = &Extensions{}
		if d.Extensions.Log != nil {
			svc.Extensions.Log = &Log{Dir: d.Extensions.Log.Dir}
		}
		if d.Extensions.Restart != nil {
			svc.Extensions.Restart = &Restart{OnFailure: d.Extensions.Restart.OnFailure}
		}
	}
	return svc, nil
}

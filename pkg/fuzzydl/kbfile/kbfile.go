// Package kbfile reads knowledge-base documents. A document is YAML whose
// axioms, concepts and queries are written as flow sequences in the style of
// s-expressions:
//
//	logic: zadeh
//	features:
//	  hasAge: {type: integer, range: [0, 150]}
//	datatypes:
//	  YoungAge: {shape: left-shoulder, range: [0, 150], params: [20, 30]}
//	axioms:
//	  - [define-concept, Young, [and, Person, [some, hasAge, YoungAge]]]
//	  - [instance, ann, Person, 1]
//	  - [instance, ann, ["=", hasAge, 27]]
//	queries:
//	  - [min-instance?, ann, Young]
//
// Names that YAML treats as indicators ("*top*", ">=", "<=") must be quoted.
package kbfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/concept"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/internalerr"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/kb"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/query"
)

// Document is a parsed but not yet interpreted knowledge-base file.
type Document struct {
	Name      string                  `yaml:"name"`
	Logic     string                  `yaml:"logic"`
	Features  map[string]FeatureSpec  `yaml:"features"`
	Datatypes map[string]DatatypeSpec `yaml:"datatypes"`
	Variables map[string]VariableSpec `yaml:"variables"`
	Axioms    []yaml.Node             `yaml:"axioms"`
	Queries   []yaml.Node             `yaml:"queries"`
}

// FeatureSpec declares a concrete feature.
type FeatureSpec struct {
	Type  string     `yaml:"type"`
	Range [2]float64 `yaml:"range"`
}

// DatatypeSpec declares a fuzzy datatype.
type DatatypeSpec struct {
	Shape  string     `yaml:"shape"`
	Range  [2]float64 `yaml:"range"`
	Params []float64  `yaml:"params"`
}

// VariableSpec declares a free solver variable.
type VariableSpec struct {
	Type  string     `yaml:"type"`
	Range [2]float64 `yaml:"range"`
}

// Parse decodes a document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("knowledge base document: %w: %v", internalerr.ErrInvalidInput, err)
	}
	return &doc, nil
}

// Load reads and decodes a document file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if doc.Name == "" {
		doc.Name = path
	}
	return doc, nil
}

// Build creates a knowledge base from the document and parses its queries.
// A logic set in the document overrides the one in opts.
func (d *Document) Build(opts ...kb.Option) (*kb.KnowledgeBase, []query.Query, error) {
	if d.Logic != "" {
		l, err := kb.ParseLogic(d.Logic)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, kb.WithLogic(l))
	}
	k := kb.New(opts...)
	for _, name := range sortedKeys(d.Features) {
		f := d.Features[name]
		kind := kb.RealFeature
		switch f.Type {
		case "integer", "int":
			kind = kb.IntegerFeature
		case "real", "":
		default:
			return nil, nil, fmt.Errorf("feature %s type %q: %w", name, f.Type, internalerr.ErrInvalidInput)
		}
		if err := k.AddConcreteFeature(kb.Feature{Name: name, Kind: kind, Lower: f.Range[0], Upper: f.Range[1]}); err != nil {
			return nil, nil, err
		}
	}
	for _, name := range sortedKeys(d.Datatypes) {
		spec := d.Datatypes[name]
		shape, err := concept.ParseDatatypeKind(spec.Shape)
		if err != nil {
			return nil, nil, fmt.Errorf("datatype %s: %w", name, err)
		}
		dt, err := concept.NewDatatype(name, shape, spec.Range[0], spec.Range[1], spec.Params...)
		if err != nil {
			return nil, nil, err
		}
		if err := k.AddDatatype(dt); err != nil {
			return nil, nil, err
		}
	}
	for _, name := range sortedKeys(d.Variables) {
		spec := d.Variables[name]
		kind, err := variableKind(spec.Type)
		if err != nil {
			return nil, nil, fmt.Errorf("variable %s: %w", name, err)
		}
		if _, err := k.DeclareVariable(name, kind, spec.Range[0], spec.Range[1]); err != nil {
			return nil, nil, err
		}
	}

	p := &parser{k: k}
	for i := range d.Axioms {
		if err := p.axiom(&d.Axioms[i]); err != nil {
			return nil, nil, err
		}
	}
	qs := make([]query.Query, 0, len(d.Queries))
	for i := range d.Queries {
		q, err := p.query(&d.Queries[i])
		if err != nil {
			return nil, nil, err
		}
		qs = append(qs, q)
	}
	return k, qs, nil
}

package kbfile

import (
	"fmt"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/internalerr"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/kb"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/milp"
)

type parser struct {
	k *kb.KnowledgeBase
}

func errorAt(n *yaml.Node, format string, args ...any) error {
	return fmt.Errorf("line %d: %s: %w", n.Line, fmt.Sprintf(format, args...), internalerr.ErrInvalidInput)
}

// form splits a sequence node into its keyword and arguments.
func form(n *yaml.Node) (string, []*yaml.Node, error) {
	if n.Kind != yaml.SequenceNode || len(n.Content) == 0 {
		return "", nil, errorAt(n, "expected a non-empty list")
	}
	head := n.Content[0]
	if head.Kind != yaml.ScalarNode {
		return "", nil, errorAt(head, "expected a keyword")
	}
	return head.Value, n.Content[1:], nil
}

func arity(n *yaml.Node, op string, args []*yaml.Node, lo, hi int) error {
	if len(args) < lo || (hi >= 0 && len(args) > hi) {
		return errorAt(n, "%s takes %s, got %d", op, arityText(lo, hi), len(args))
	}
	return nil
}

func arityText(lo, hi int) string {
	switch {
	case hi < 0:
		return fmt.Sprintf("at least %d arguments", lo)
	case lo == hi:
		return fmt.Sprintf("%d arguments", lo)
	}
	return fmt.Sprintf("%d to %d arguments", lo, hi)
}

func name(n *yaml.Node) (string, error) {
	if n.Kind != yaml.ScalarNode || n.Value == "" {
		return "", errorAt(n, "expected a name")
	}
	return n.Value, nil
}

func number(n *yaml.Node) (float64, error) {
	if n.Kind != yaml.ScalarNode {
		return 0, errorAt(n, "expected a number")
	}
	f, err := strconv.ParseFloat(n.Value, 64)
	if err != nil {
		return 0, errorAt(n, "expected a number, got %q", n.Value)
	}
	return f, nil
}

func integer(n *yaml.Node) (int, error) {
	if n.Kind != yaml.ScalarNode {
		return 0, errorAt(n, "expected an integer")
	}
	v, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0, errorAt(n, "expected an integer, got %q", n.Value)
	}
	return v, nil
}

// optionalNumber reads args[i] when present.
func optionalNumber(args []*yaml.Node, i int, def float64) (float64, error) {
	if i >= len(args) {
		return def, nil
	}
	return number(args[i])
}

func variableKind(s string) (milp.VariableKind, error) {
	switch s {
	case "", "real", "continuous":
		return milp.Continuous, nil
	case "integer", "int":
		return milp.Integer, nil
	case "binary", "bool":
		return milp.Binary, nil
	case "semi-continuous":
		return milp.SemiContinuous, nil
	}
	return 0, fmt.Errorf("variable type %q: %w", s, internalerr.ErrInvalidInput)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

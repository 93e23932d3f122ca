package kb

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/axiom"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/concept"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/degree"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/milp"
)

// inclusion is a lazily unfolded consequence of an atomic concept or a role.
type inclusion struct {
	c      *concept.Concept
	degree degree.Degree
	impl   concept.Implication
}

type superRole struct {
	role   string
	degree float64
}

// tboxIndex is the preprocessed TBox/RBox. It is immutable once built and
// shared between clones.
type tboxIndex struct {
	synonyms    map[string]string
	definitions map[string]*concept.Concept
	primitives  map[string][]inclusion
	internal    []*axiom.GCI
	superRoles  map[string][]superRole
	inverses    map[string][]string
	domains     map[string][]inclusion
	ranges      map[string][]inclusion
	reflexive   []string
}

// prepareTBox builds the TBox index if the TBox changed since the last
// expansion.
func (k *KnowledgeBase) prepareTBox() error {
	if k.tbox != nil {
		return nil
	}
	idx, err := k.buildTBox()
	if err != nil {
		return err
	}
	k.tbox = idx
	if k.trace {
		k.logger.Debug("tbox processed",
			zap.Int("definitions", len(idx.definitions)),
			zap.Int("primitives", len(idx.primitives)),
			zap.Int("internalised", len(idx.internal)))
	}
	for i, ind := range k.individuals {
		ind.prepared = false
		k.agenda.pushPrepare(i)
		if !k.agenda.started {
			continue
		}
		for _, name := range ind.order {
			c := ind.labels[name].concept
			if c.IsAtomic() || c.IsComplementedAtomic() {
				k.agenda.pushLabel(i, name)
			}
		}
	}
	return nil
}

func (k *KnowledgeBase) buildTBox() (*tboxIndex, error) {
	idx := &tboxIndex{
		synonyms:    make(map[string]string),
		definitions: make(map[string]*concept.Concept),
		primitives:  make(map[string][]inclusion),
		superRoles:  make(map[string][]superRole),
		inverses:    make(map[string][]string),
		domains:     make(map[string][]inclusion),
		ranges:      make(map[string][]inclusion),
	}

	// Atomic synonyms collapse onto one representative.
	parent := map[string]string{}
	var find func(string) string
	find = func(a string) string {
		p, ok := parent[a]
		if !ok || p == a {
			return a
		}
		r := find(p)
		parent[a] = r
		return r
	}
	for _, d := range k.defs {
		if d.Definition.IsAtomic() {
			a, b := find(d.Defined), find(d.Definition.AtomicName())
			if a != b {
				parent[a] = b
			}
		}
	}
	names := make([]string, 0, len(parent))
	for a := range parent {
		names = append(names, a)
	}
	sort.Strings(names)
	for _, a := range names {
		if r := find(a); r != a {
			idx.synonyms[a] = r
		}
	}
	rewrite := func(c *concept.Concept) (*concept.Concept, error) {
		for _, a := range names {
			r, ok := idx.synonyms[a]
			if !ok {
				continue
			}
			var err error
			if c, err = c.Replace(concept.Atomic(a), concept.Atomic(r)); err != nil {
				return nil, err
			}
		}
		return c.ReduceIdempotency(), nil
	}
	rep := func(a string) string {
		if r, ok := idx.synonyms[a]; ok {
			return r
		}
		return a
	}

	addPrimitive := func(a string, c *concept.Concept, d degree.Degree, impl concept.Implication) {
		idx.primitives[a] = append(idx.primitives[a], inclusion{c: c, degree: d, impl: impl})
	}
	for _, p := range k.pcds {
		c, err := rewrite(p.Definition)
		if err != nil {
			return nil, err
		}
		addPrimitive(rep(p.Defined), c, degree.Numeric(p.Degree), p.Implication)
	}
	for _, g := range k.gcis {
		sub, err := rewrite(g.Subsumed())
		if err != nil {
			return nil, err
		}
		sup, err := rewrite(g.Subsumer())
		if err != nil {
			return nil, err
		}
		if sub.Kind() == concept.KindBottom || sup.Kind() == concept.KindTop || g.Degree().IsZero() {
			continue
		}
		if sub.IsAtomic() {
			addPrimitive(sub.AtomicName(), sup, g.Degree(), g.Implication())
			continue
		}
		idx.internal = append(idx.internal, axiom.NewGCI(sub, sup, g.Degree(), g.Implication()))
	}
	disjointImpl := concept.KleeneDienesImplication
	if k.logic == Lukasiewicz {
		disjointImpl = concept.LukasiewiczImplication
	}
	for _, set := range k.disjoint {
		for i, a := range set {
			for j, b := range set {
				if i != j {
					addPrimitive(rep(a), concept.Not(concept.Atomic(rep(b))), degree.One(), disjointImpl)
				}
			}
		}
	}

	// Definitions are unfolded lazily while they stay acyclic and the defined
	// concept has no other inclusion; otherwise they become two inclusions.
	for _, d := range k.defs {
		if d.Definition.IsAtomic() {
			continue
		}
		a := rep(d.Defined)
		c, err := rewrite(d.Definition)
		if err != nil {
			return nil, err
		}
		_, defined := idx.definitions[a]
		_, constrained := idx.primitives[a]
		if defined || constrained || idx.reaches(c, a) {
			addPrimitive(a, c, degree.One(), concept.GoedelImplication)
			idx.internal = append(idx.internal, axiom.NewGCI(c, concept.Atomic(a), degree.One(), concept.GoedelImplication))
			continue
		}
		idx.definitions[a] = c
	}
	for a, r := range idx.synonyms {
		idx.definitions[a] = concept.Atomic(r)
	}

	// RBox.
	for _, s := range k.subRoles {
		idx.superRoles[s.Sub] = append(idx.superRoles[s.Sub], superRole{role: s.Super, degree: s.Degree})
	}
	idx.superRoles = closeRoleHierarchy(idx.superRoles)
	for _, inv := range k.inverses {
		idx.inverses[inv.Role] = appendUnique(idx.inverses[inv.Role], inv.InverseRole)
		idx.inverses[inv.InverseRole] = appendUnique(idx.inverses[inv.InverseRole], inv.Role)
	}
	impl := k.logic.DefaultImplication()
	for _, d := range k.domains {
		c, err := rewrite(d.Concept)
		if err != nil {
			return nil, err
		}
		idx.domains[d.Role] = append(idx.domains[d.Role], inclusion{c: c, degree: degree.Numeric(d.Degree), impl: impl})
	}
	for _, r := range k.ranges {
		c, err := rewrite(r.Concept)
		if err != nil {
			return nil, err
		}
		idx.ranges[r.Role] = append(idx.ranges[r.Role], inclusion{c: c, degree: degree.Numeric(r.Degree), impl: impl})
	}
	for role, props := range k.roleProps {
		if props[axiom.Reflexive] {
			idx.reflexive = append(idx.reflexive, role)
		}
	}
	sort.Strings(idx.reflexive)
	return idx, nil
}

// reaches reports whether unfolding c through the current definitions can
// mention the atomic concept a.
func (idx *tboxIndex) reaches(c *concept.Concept, a string) bool {
	seen := map[string]bool{}
	var walk func(*concept.Concept) bool
	walk = func(c *concept.Concept) bool {
		for _, at := range c.AtomicConcepts() {
			n := at.AtomicName()
			if n == a {
				return true
			}
			if seen[n] {
				continue
			}
			seen[n] = true
			if d, ok := idx.definitions[n]; ok && walk(d) {
				return true
			}
		}
		return false
	}
	return walk(c)
}

// closeRoleHierarchy computes the transitive super roles of every role. The
// degree of a chain is the smallest degree along it.
func closeRoleHierarchy(direct map[string][]superRole) map[string][]superRole {
	out := make(map[string][]superRole, len(direct))
	for role := range direct {
		best := map[string]float64{}
		type item struct {
			role   string
			degree float64
		}
		queue := []item{{role, 1}}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, s := range direct[cur.role] {
				d := min(cur.degree, s.degree)
				if s.role == role || best[s.role] >= d {
					continue
				}
				best[s.role] = d
				queue = append(queue, item{s.role, d})
			}
		}
		supers := make([]string, 0, len(best))
		for s := range best {
			supers = append(supers, s)
		}
		sort.Strings(supers)
		for _, s := range supers {
			out[role] = append(out[role], superRole{role: s, degree: best[s]})
		}
	}
	return out
}

func appendUnique(xs []string, x string) []string {
	for _, y := range xs {
		if y == x {
			return xs
		}
	}
	return append(xs, x)
}

// consequentBound returns a lower bound for the consequent of an implication
// whose antecedent has degree x and which holds with degree at least n.
func (k *KnowledgeBase) consequentBound(x milp.Expression, n degree.Degree, impl concept.Implication) (milp.Expression, error) {
	if n.IsZero() {
		return milp.Constant(0), nil
	}
	ne := n.Expression()
	one := n.IsNumeric() && n.NumericValue() == 1
	switch impl {
	case concept.LukasiewiczImplication:
		// 1 - x + d >= n
		return x.Add(ne).AddConstant(-1), nil
	case concept.GoedelImplication:
		if one {
			return x, nil
		}
		// d >= min(x, n)
		z, err := k.problem.Fresh("_z", milp.Continuous, 0, 1)
		if err != nil {
			return milp.Expression{}, err
		}
		y, err := k.binary()
		if err != nil {
			return milp.Expression{}, err
		}
		k.problem.AddConstraint(milp.GE(milp.Var(z), x.AddTerm(-1, y)))
		k.problem.AddConstraint(milp.GE(milp.Var(z), ne.AddTerm(1, y).AddConstant(-1)))
		return milp.Var(z), nil
	case concept.ZadehImplication:
		if n.IsNumeric() {
			return x, nil
		}
		y, err := k.binary()
		if err != nil {
			return milp.Expression{}, err
		}
		k.problem.AddConstraint(milp.GE(milp.Var(y), ne))
		return x.AddTerm(1, y).AddConstant(-1), nil
	default:
		// max(1 - x, d) >= n
		y, err := k.binary()
		if err != nil {
			return milp.Expression{}, err
		}
		k.problem.AddConstraint(milp.LE(x.Add(ne).AddTerm(-1, y), milp.Constant(1)))
		return ne.AddTerm(1, y).AddConstant(-1), nil
	}
}

// HasNominalsInTBox reports whether a TBox or RBox axiom mentions an
// individual.
func (k *KnowledgeBase) HasNominalsInTBox() bool {
	var cs []*concept.Concept
	for _, g := range k.gcis {
		cs = append(cs, g.Subsumed(), g.Subsumer())
	}
	for _, p := range k.pcds {
		cs = append(cs, p.Definition)
	}
	for _, d := range k.defs {
		cs = append(cs, d.Definition)
	}
	for _, d := range k.domains {
		cs = append(cs, d.Concept)
	}
	for _, r := range k.ranges {
		cs = append(cs, r.Concept)
	}
	for _, c := range cs {
		if len(c.Individuals()) > 0 {
			return true
		}
	}
	return false
}

// Fingerprint identifies the TBox, RBox and semantics of the knowledge base.
// Two knowledge bases with the same fingerprint classify identically.
func (k *KnowledgeBase) Fingerprint() string {
	var lines []string
	for _, g := range k.gcis {
		lines = append(lines, "gci "+g.String())
	}
	for _, p := range k.pcds {
		lines = append(lines, "pcd "+p.String())
	}
	for _, d := range k.defs {
		lines = append(lines, "def "+d.String())
	}
	for _, set := range k.disjoint {
		lines = append(lines, "disjoint "+strings.Join(set, " "))
	}
	for _, dt := range k.datatypes {
		lines = append(lines, "datatype "+dt.String())
	}
	for _, f := range k.features {
		lines = append(lines, fmt.Sprintf("feature %s %d %g %g", f.Name, f.Kind, f.Lower, f.Upper))
	}
	for role, props := range k.roleProps {
		for p, on := range props {
			if on {
				lines = append(lines, fmt.Sprintf("role %s %s", role, p))
			}
		}
	}
	for _, inv := range k.inverses {
		lines = append(lines, fmt.Sprintf("inverse %s %s", inv.Role, inv.InverseRole))
	}
	for _, s := range k.subRoles {
		lines = append(lines, fmt.Sprintf("sub-role %s %s %g", s.Sub, s.Super, s.Degree))
	}
	for _, d := range k.domains {
		lines = append(lines, fmt.Sprintf("domain %s %s %g", d.Role, d.Concept, d.Degree))
	}
	for _, r := range k.ranges {
		lines = append(lines, fmt.Sprintf("range %s %s %g", r.Role, r.Concept, r.Degree))
	}
	sort.Strings(lines)
	h := sha256.New()
	fmt.Fprintf(h, "logic %s epsilon %g\n", k.logic, k.epsilon)
	for _, l := range lines {
		h.Write([]byte(l))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Package kb is the knowledge base and tableau engine. Assertions are expanded
// rule by rule into a MILP problem; the optimum of that problem answers graded
// queries.
package kb

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/axiom"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/concept"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/degree"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/internalerr"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/milp"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/milp/simplex"
)

// Logic selects the fuzzy semantics of the generic connectives.
type Logic uint8

const (
	Classical Logic = iota
	Zadeh
	Lukasiewicz
)

func (l Logic) String() string {
	switch l {
	case Classical:
		return "classical"
	case Zadeh:
		return "zadeh"
	case Lukasiewicz:
		return "lukasiewicz"
	}
	return fmt.Sprintf("logic(%d)", uint8(l))
}

// ParseLogic maps a configuration keyword to a Logic.
func ParseLogic(s string) (Logic, error) {
	switch s {
	case "classical":
		return Classical, nil
	case "zadeh":
		return Zadeh, nil
	case "lukasiewicz", "łukasiewicz":
		return Lukasiewicz, nil
	}
	return 0, fmt.Errorf("logic %q: %w", s, internalerr.ErrInvalidConfig)
}

// DefaultImplication is the implication used by axioms that do not name one.
func (l Logic) DefaultImplication() concept.Implication {
	switch l {
	case Lukasiewicz:
		return concept.LukasiewiczImplication
	case Zadeh:
		return concept.ZadehImplication
	default:
		return concept.KleeneDienesImplication
	}
}

// Family returns the connectives of the logic.
func (l Logic) Family() concept.Family {
	switch l {
	case Lukasiewicz:
		return concept.LukasiewiczFamily
	case Zadeh:
		return concept.ZadehFamily
	default:
		return concept.ClassicalFamily
	}
}

// FeatureKind is the value type of a concrete feature.
type FeatureKind uint8

const (
	RealFeature FeatureKind = iota
	IntegerFeature
)

// Feature is a functional concrete feature with values in [Lower, Upper].
type Feature struct {
	Name         string
	Kind         FeatureKind
	Lower, Upper float64
}

type assertion struct {
	individual string
	concept    *concept.Concept
	degree     degree.Degree
}

type relation struct {
	from, role, to string
	degree         degree.Degree
}

// KnowledgeBase owns the TBox, RBox and ABox and the MILP problem built by
// expanding them. It is not safe for concurrent use; concurrent queries work
// on clones.
type KnowledgeBase struct {
	logger   *zap.Logger
	trace    bool
	logic    Logic
	epsilon  float64
	optLevel int
	maxInd   int
	blocking BlockingStrategy
	solver   milp.Solver
	digits   int

	// TBox
	gcis      []*axiom.GCI
	pcds      []*axiom.PrimitiveConceptDefinition
	defs      []*axiom.ConceptDefinition
	disjoint  [][]string
	datatypes map[string]*concept.Datatype
	features  map[string]Feature
	tbox      *tboxIndex

	// RBox
	roleProps map[string]map[axiom.RoleCharacteristic]bool
	inverses  []axiom.Inverse
	subRoles  []axiom.SubRole
	domains   []axiom.Domain
	ranges    []axiom.Range

	// ABox
	assertions  []assertion
	relations   []relation
	individuals []*Individual
	byName      map[string]int
	created     int
	userVars    []*milp.Variable
	problem     *milp.Problem
	agenda      agenda

	classification *Classification
	consistency    *consistencyMemo
}

type consistencyMemo struct {
	err error
}

// Option configures a KnowledgeBase.
type Option func(*KnowledgeBase)

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(k *KnowledgeBase) { k.logger = l }
}

// WithTrace enables debug tracing of rule firing, blocking and solver calls.
func WithTrace(on bool) Option {
	return func(k *KnowledgeBase) { k.trace = on }
}

// WithLogic selects the fuzzy logic.
func WithLogic(l Logic) Option {
	return func(k *KnowledgeBase) { k.logic = l }
}

// WithEpsilon sets the precision used for strict inequalities.
func WithEpsilon(eps float64) Option {
	return func(k *KnowledgeBase) { k.epsilon = eps }
}

// WithOptimizationLevel sets the optimisation level; 0 disables the
// classification cache and ABox-free subsumption.
func WithOptimizationLevel(n int) Option {
	return func(k *KnowledgeBase) { k.optLevel = n }
}

// WithMaxIndividuals caps the number of system individuals; negative means no
// limit.
func WithMaxIndividuals(n int) Option {
	return func(k *KnowledgeBase) { k.maxInd = n }
}

// WithBlocking selects the blocking strategy.
func WithBlocking(b BlockingStrategy) Option {
	return func(k *KnowledgeBase) { k.blocking = b }
}

// WithSolver replaces the built-in simplex solver.
func WithSolver(s milp.Solver) Option {
	return func(k *KnowledgeBase) { k.solver = s }
}

// WithDigits sets the number of decimals optimum values are rounded to.
func WithDigits(d int) Option {
	return func(k *KnowledgeBase) { k.digits = d }
}

// New creates an empty knowledge base.
func New(opts ...Option) *KnowledgeBase {
	k := &KnowledgeBase{
		logger:    zap.NewNop(),
		logic:     Zadeh,
		epsilon:   0.001,
		optLevel:  1,
		maxInd:    -1,
		blocking:  SubsetBlocking,
		digits:    6,
		datatypes: make(map[string]*concept.Datatype),
		features:  make(map[string]Feature),
		roleProps: make(map[string]map[axiom.RoleCharacteristic]bool),
		byName:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(k)
	}
	if k.solver == nil {
		k.solver = simplex.New(simplex.DefaultConfig())
	}
	k.problem = milp.NewProblem(k.solver, milp.WithDigits(k.digits))
	k.agenda = newAgenda()
	return k
}

func (k *KnowledgeBase) Logic() Logic { return k.logic }
func (k *KnowledgeBase) Epsilon() float64 { return k.epsilon }
func (k *KnowledgeBase) OptimizationLevel() int { return k.optLevel }
func (k *KnowledgeBase) MaxIndividuals() int { return k.maxInd }
func (k *KnowledgeBase) Blocking() BlockingStrategy { return k.blocking }
func (k *KnowledgeBase) Logger() *zap.Logger { return k.logger }
func (k *KnowledgeBase) Trace() bool { return k.trace }
func (k *KnowledgeBase) Digits() int { return k.digits }
func (k *KnowledgeBase) Problem() *milp.Problem { return k.problem }

// Datatype looks up a fuzzy datatype.
func (k *KnowledgeBase) Datatype(name string) (*concept.Datatype, bool) {
	dt, ok := k.datatypes[name]
	return dt, ok
}

// SetOptimizationLevel changes the optimisation level.
func (k *KnowledgeBase) SetOptimizationLevel(n int) { k.optLevel = n }

// Feature looks up a concrete feature.
func (k *KnowledgeBase) Feature(name string) (Feature, bool) {
	f, ok := k.features[name]
	return f, ok
}

func (k *KnowledgeBase) tboxChanged() {
	k.tbox = nil
	k.classification = nil
	k.consistency = nil
}

func (k *KnowledgeBase) aboxChanged() {
	k.consistency = nil
}

// AddGCI adds the inclusion sub ⊑ sup ≥ d under impl.
func (k *KnowledgeBase) AddGCI(sub, sup *concept.Concept, d degree.Degree, impl concept.Implication) error {
	if sub.IsConcrete() || sup.IsConcrete() {
		return fmt.Errorf("gci %s ⊑ %s: %w", sub, sup, internalerr.ErrConcreteConcept)
	}
	k.gcis = append(k.gcis, axiom.NewGCI(sub, sup, d, impl))
	k.tboxChanged()
	return nil
}

// AddPrimitiveConceptDefinition adds name ⊑ c ≥ n under impl.
func (k *KnowledgeBase) AddPrimitiveConceptDefinition(name string, c *concept.Concept, n float64, impl concept.Implication) error {
	if c.IsConcrete() {
		return fmt.Errorf("define-primitive-concept %s: %w", name, internalerr.ErrConcreteConcept)
	}
	if n < 0 || n > 1 {
		return fmt.Errorf("define-primitive-concept %s degree %g: %w", name, n, internalerr.ErrInvalidInput)
	}
	k.pcds = append(k.pcds, &axiom.PrimitiveConceptDefinition{Defined: name, Definition: c, Degree: n, Implication: impl})
	k.tboxChanged()
	return nil
}

// AddConceptDefinition adds name ≡ c.
func (k *KnowledgeBase) AddConceptDefinition(name string, c *concept.Concept) error {
	if c.IsConcrete() {
		return fmt.Errorf("define-concept %s: %w", name, internalerr.ErrConcreteConcept)
	}
	k.defs = append(k.defs, &axiom.ConceptDefinition{Defined: name, Definition: c})
	k.tboxChanged()
	return nil
}

// AddDisjoint declares the atomic concepts pairwise disjoint.
func (k *KnowledgeBase) AddDisjoint(names ...string) error {
	if len(names) < 2 {
		return fmt.Errorf("disjoint needs two concepts: %w", internalerr.ErrInvalidInput)
	}
	k.disjoint = append(k.disjoint, append([]string(nil), names...))
	k.tboxChanged()
	return nil
}

// AddDatatype registers a fuzzy datatype.
func (k *KnowledgeBase) AddDatatype(dt *concept.Datatype) error {
	if _, dup := k.datatypes[dt.Name]; dup {
		return fmt.Errorf("datatype %s: %w", dt.Name, internalerr.ErrDuplicate)
	}
	k.datatypes[dt.Name] = dt
	k.tboxChanged()
	return nil
}

// AddConcreteFeature declares a functional concrete feature.
func (k *KnowledgeBase) AddConcreteFeature(f Feature) error {
	if _, dup := k.features[f.Name]; dup {
		return fmt.Errorf("feature %s: %w", f.Name, internalerr.ErrDuplicate)
	}
	if !(f.Lower <= f.Upper) {
		return fmt.Errorf("feature %s range [%g,%g]: %w", f.Name, f.Lower, f.Upper, internalerr.ErrInvalidInput)
	}
	k.features[f.Name] = f
	k.tboxChanged()
	return nil
}

// AddRoleCharacteristic marks role as functional, transitive, reflexive or
// symmetric.
func (k *KnowledgeBase) AddRoleCharacteristic(role string, c axiom.RoleCharacteristic) error {
	if _, concrete := k.features[role]; concrete {
		return fmt.Errorf("%s %s: %w", c, role, internalerr.ErrConcreteConcept)
	}
	if k.roleProps[role] == nil {
		k.roleProps[role] = make(map[axiom.RoleCharacteristic]bool)
	}
	k.roleProps[role][c] = true
	k.tboxChanged()
	return nil
}

func (k *KnowledgeBase) hasCharacteristic(role string, c axiom.RoleCharacteristic) bool {
	return k.roleProps[role][c]
}

// AddInverse declares inv as the inverse of role.
func (k *KnowledgeBase) AddInverse(role, inv string) {
	k.inverses = append(k.inverses, axiom.Inverse{Role: role, InverseRole: inv})
	k.tboxChanged()
}

// AddSubRole declares sub ⊑ sup ≥ n.
func (k *KnowledgeBase) AddSubRole(sub, sup string, n float64) error {
	if n <= 0 || n > 1 {
		return fmt.Errorf("implies-role %s %s degree %g: %w", sub, sup, n, internalerr.ErrInvalidInput)
	}
	k.subRoles = append(k.subRoles, axiom.SubRole{Sub: sub, Super: sup, Degree: n})
	k.tboxChanged()
	return nil
}

// AddDomain declares that the subjects of role are instances of c.
func (k *KnowledgeBase) AddDomain(role string, c *concept.Concept, n float64) {
	k.domains = append(k.domains, axiom.Domain{Role: role, Concept: c, Degree: n})
	k.tboxChanged()
}

// AddRange declares that the objects of role are instances of c.
func (k *KnowledgeBase) AddRange(role string, c *concept.Concept, n float64) {
	k.ranges = append(k.ranges, axiom.Range{Role: role, Concept: c, Degree: n})
	k.tboxChanged()
}

// DeclareVariable creates a free solver variable that assertions may use as
// their degree and MaxVar/MinVar queries may optimise.
func (k *KnowledgeBase) DeclareVariable(name string, kind milp.VariableKind, lower, upper float64) (*milp.Variable, error) {
	if strings.HasPrefix(name, aboxVarPrefix) {
		return nil, fmt.Errorf("variable %s: names starting with %q are reserved: %w", name, aboxVarPrefix, internalerr.ErrInvalidInput)
	}
	if _, ok := k.problem.Lookup(name); ok {
		return nil, fmt.Errorf("variable %s: %w", name, internalerr.ErrDuplicate)
	}
	v, err := k.problem.Variable(name, kind, lower, upper)
	if err != nil {
		return nil, err
	}
	k.userVars = append(k.userVars, v)
	return v, nil
}

// Variable looks up a declared free variable.
func (k *KnowledgeBase) Variable(name string) (*milp.Variable, bool) {
	for _, v := range k.userVars {
		if v.Name() == name {
			return v, true
		}
	}
	return nil, false
}

// AddIndividual declares a named individual.
func (k *KnowledgeBase) AddIndividual(name string) {
	k.named(name)
}

// AddAssertion records individual : c ≥ d and schedules it for expansion.
func (k *KnowledgeBase) AddAssertion(individual string, c *concept.Concept, d degree.Degree) error {
	if c.IsConcrete() {
		return fmt.Errorf("instance %s %s: %w", individual, c, internalerr.ErrConcreteConcept)
	}
	if d.IsNumeric() && (d.NumericValue() < 0 || d.NumericValue() > 1) {
		return fmt.Errorf("instance %s %s degree %s: %w", individual, c, d, internalerr.ErrInvalidInput)
	}
	i := k.named(individual)
	if err := k.assert(i, c, d.Expression()); err != nil {
		return err
	}
	k.assertions = append(k.assertions, assertion{individual: individual, concept: c, degree: d})
	k.aboxChanged()
	return nil
}

// AddRelation records (from, to) : role ≥ d.
func (k *KnowledgeBase) AddRelation(from, role, to string, d degree.Degree) error {
	if _, concrete := k.features[role]; concrete {
		return fmt.Errorf("related %s %s %s: %w", from, role, to, internalerr.ErrConcreteConcept)
	}
	i, j := k.named(from), k.named(to)
	x, err := k.edgeVar(i, role, j)
	if err != nil {
		return err
	}
	if !d.IsZero() {
		k.problem.AddConstraint(milp.GE(milp.Var(x), d.Expression()))
	}
	k.relations = append(k.relations, relation{from: from, role: role, to: to, degree: d})
	k.aboxChanged()
	return nil
}

// RelationVariable returns the degree variable of (from, to) : role, adding
// the edge when it does not exist yet.
func (k *KnowledgeBase) RelationVariable(from, role, to string) (*milp.Variable, error) {
	if _, concrete := k.features[role]; concrete {
		return nil, fmt.Errorf("related %s %s %s: %w", from, role, to, internalerr.ErrConcreteConcept)
	}
	return k.edgeVar(k.named(from), role, k.named(to))
}

// Individuals returns the named individuals in declaration order.
func (k *KnowledgeBase) Individuals() []string {
	var out []string
	for _, ind := range k.individuals {
		if !ind.created {
			out = append(out, ind.name)
		}
	}
	return out
}

// Individual returns an individual by name.
func (k *KnowledgeBase) Individual(name string) (*Individual, bool) {
	i, ok := k.byName[name]
	if !ok {
		return nil, false
	}
	return k.individuals[i], true
}

// NumCreatedIndividuals returns how many system individuals exist.
func (k *KnowledgeBase) NumCreatedIndividuals() int { return k.created }

// AtomicConcepts returns the atomic concepts mentioned in the TBox, sorted.
func (k *KnowledgeBase) AtomicConcepts() []*concept.Concept {
	seen := map[string]*concept.Concept{}
	add := func(c *concept.Concept) {
		for _, a := range c.AtomicConcepts() {
			seen[a.Name()] = a
		}
	}
	for _, g := range k.gcis {
		add(g.Subsumed())
		add(g.Subsumer())
	}
	for _, p := range k.pcds {
		add(concept.Atomic(p.Defined))
		add(p.Definition)
	}
	for _, d := range k.defs {
		add(concept.Atomic(d.Defined))
		add(d.Definition)
	}
	for _, names := range k.disjoint {
		for _, n := range names {
			add(concept.Atomic(n))
		}
	}
	for _, d := range k.domains {
		add(d.Concept)
	}
	for _, r := range k.ranges {
		add(r.Concept)
	}
	out := make([]*concept.Concept, 0, len(seen))
	for _, c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Clone returns an independent copy of the whole knowledge base, including
// any expansion already performed.
func (k *KnowledgeBase) Clone() *KnowledgeBase {
	c := k.cloneTBox()
	c.assertions = append([]assertion(nil), k.assertions...)
	c.relations = append([]relation(nil), k.relations...)
	c.individuals = make([]*Individual, len(k.individuals))
	for i, ind := range k.individuals {
		c.individuals[i] = ind.clone()
	}
	for name, i := range k.byName {
		c.byName[name] = i
	}
	c.created = k.created
	c.userVars = append([]*milp.Variable(nil), k.userVars...)
	c.problem = k.problem.Clone()
	c.agenda = k.agenda.clone()
	c.consistency = k.consistency
	return c
}

// CloneWithoutABox copies the TBox and RBox into a knowledge base with an
// empty ABox. It is only equivalent to Clone for reasoning about concepts when
// the TBox mentions no individual.
func (k *KnowledgeBase) CloneWithoutABox() *KnowledgeBase {
	c := k.cloneTBox()
	c.problem = milp.NewProblem(k.solver, milp.WithDigits(k.digits))
	for _, v := range k.userVars {
		nv, _ := c.problem.Variable(v.Name(), v.Kind(), v.Lower(), v.Upper())
		c.userVars = append(c.userVars, nv)
	}
	c.agenda = newAgenda()
	return c
}

func (k *KnowledgeBase) cloneTBox() *KnowledgeBase {
	c := &KnowledgeBase{
		logger:         k.logger,
		trace:          k.trace,
		logic:          k.logic,
		epsilon:        k.epsilon,
		optLevel:       k.optLevel,
		maxInd:         k.maxInd,
		blocking:       k.blocking,
		solver:         k.solver,
		digits:         k.digits,
		pcds:           append([]*axiom.PrimitiveConceptDefinition(nil), k.pcds...),
		defs:           append([]*axiom.ConceptDefinition(nil), k.defs...),
		disjoint:       append([][]string(nil), k.disjoint...),
		datatypes:      make(map[string]*concept.Datatype, len(k.datatypes)),
		features:       make(map[string]Feature, len(k.features)),
		tbox:           k.tbox,
		roleProps:      make(map[string]map[axiom.RoleCharacteristic]bool, len(k.roleProps)),
		inverses:       append([]axiom.Inverse(nil), k.inverses...),
		subRoles:       append([]axiom.SubRole(nil), k.subRoles...),
		domains:        append([]axiom.Domain(nil), k.domains...),
		ranges:         append([]axiom.Range(nil), k.ranges...),
		byName:         make(map[string]int),
		classification: k.classification,
	}
	for _, g := range k.gcis {
		c.gcis = append(c.gcis, g.Clone())
	}
	for n, dt := range k.datatypes {
		c.datatypes[n] = dt
	}
	for n, f := range k.features {
		c.features[n] = f
	}
	for r, props := range k.roleProps {
		cp := make(map[axiom.RoleCharacteristic]bool, len(props))
		for p, v := range props {
			cp[p] = v
		}
		c.roleProps[r] = cp
	}
	return c
}

package domain

// Op identifies the kind of a Predicate node.
type Op string

const (
	OpTrue     Op = "true"
	OpEquals   Op = "eq"
	OpRange    Op = "range"
	OpContains Op = "contains"
	OpAnd      Op = "and"
	OpOr       Op = "or"
	OpNot      Op = "not"
)

// Predicate is a storage-neutral description of a Specification.
// Storage adapters interpret it to push filtering down to their query language.
//
// Equals and Contains compare Field with Value. Range bounds Field by Min and
// Max inclusively; a nil bound is open. Contains is a case-insensitive
// substring match. And, Or and Not combine Operands.
type Predicate struct {
	Op       Op
	Field    string
	Value    any
	Min      any
	Max      any
	Operands []Predicate
}

// Specification is a composable predicate over T. It is evaluated in memory
// through IsSatisfiedBy and translated by storage adapters through Predicate.
// The zero value is satisfied by everything.
type Specification[T any] struct {
	pred    Predicate
	match   func(T) bool
	negates *Specification[T]
}

// NewSpecification pairs a predicate tree with its in-memory evaluation.
// Both must describe the same condition.
func NewSpecification[T any](pred Predicate, match func(T) bool) Specification[T] {
	return Specification[T]{pred: pred, match: match}
}

// All returns a specification satisfied by every entity.
func All[T any]() Specification[T] {
	return NewSpecification(Predicate{Op: OpTrue}, func(T) bool { return true })
}

// ToExpression returns the compiled in-memory predicate.
func (s Specification[T]) ToExpression() func(T) bool {
	if s.match == nil {
		return func(T) bool { return true }
	}
	return s.match
}

// IsSatisfiedBy evaluates the compiled predicate.
func (s Specification[T]) IsSatisfiedBy(entity T) bool {
	return s.ToExpression()(entity)
}

// Predicate returns the predicate tree for query translation.
func (s Specification[T]) Predicate() Predicate {
	if s.pred.Op == "" {
		return Predicate{Op: OpTrue}
	}
	return s.pred
}

// And matches entities satisfying both s and other.
func (s Specification[T]) And(other Specification[T]) Specification[T] {
	left, right := s.ToExpression(), other.ToExpression()
	return NewSpecification(
		Predicate{Op: OpAnd, Operands: []Predicate{s.Predicate(), other.Predicate()}},
		func(e T) bool { return left(e) && right(e) },
	)
}

// Or matches entities satisfying s or other.
func (s Specification[T]) Or(other Specification[T]) Specification[T] {
	left, right := s.ToExpression(), other.ToExpression()
	return NewSpecification(
		Predicate{Op: OpOr, Operands: []Predicate{s.Predicate(), other.Predicate()}},
		func(e T) bool { return left(e) || right(e) },
	)
}

// Not negates s. Negating a negation yields the original specification.
func (s Specification[T]) Not() Specification[T] {
	if s.negates != nil {
		return *s.negates
	}
	inner := s
	match := s.ToExpression()
	return Specification[T]{
		pred:    Predicate{Op: OpNot, Operands: []Predicate{s.Predicate()}},
		match:   func(e T) bool { return !match(e) },
		negates: &inner,
	}
}

// Filter returns the items that satisfy spec, preserving order.
func Filter[T any](items []T, spec Specification[T]) []T {
	match := spec.ToExpression()
	out := make([]T, 0, len(items))
	for _, item := range items {
		if match(item) {
			out = append(out, item)
		}
	}
	return out
}

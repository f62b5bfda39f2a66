package queryir

import "fmt"

// Problem is one structural defect of a descriptor.
type Problem struct {
	// Node describes the offending step or expression node.
	Node string

	// Message explains the defect.
	Message string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s", p.Node, p.Message)
}

// ValidationResult lists the structural defects of a descriptor.
//
// Validation covers shape only: step order, counts and expression arity.
// Whether members exist is decided by the translator against a TableMap.
type ValidationResult struct {
	Valid    bool
	Problems []Problem
}

// Validate checks a descriptor's shape. It is a pure function.
func Validate(d Descriptor) ValidationResult {
	v := &validator{}
	paged := false
	for _, s := range d.Steps() {
		switch s.Kind {
		case StepWhere:
			if paged {
				v.add("Where", "filter after Skip/Take is not supported")
			}
			v.validateExpr(s.Predicate)
		case StepOrderBy:
			if paged {
				v.add("OrderBy("+s.Member+")", "ordering after Skip/Take is not supported")
			}
			if s.Member == "" {
				v.add("OrderBy", "empty member name")
			}
		case StepSkip, StepTake:
			paged = true
			if s.N < 0 {
				v.add(fmt.Sprintf("%s(%d)", s.Kind, s.N), "count must not be negative")
			}
		case StepBind:
			if s.Name == "" {
				v.add("Bind", "empty variable name")
			}
		}
	}
	return ValidationResult{Valid: len(v.problems) == 0, Problems: v.problems}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []Problem
}

func (v *validator) add(node, format string, args ...any) {
	v.problems = append(v.problems, Problem{Node: node, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) validateExpr(e Expr) {
	switch n := Normalize(e).(type) {
	case nil:
		v.add("<nil>", "missing expression")
	case Member:
		if n.Name == "" {
			v.add("Member", "empty member name")
		}
	case Const:
	case Bound:
		if n.Name == "" {
			v.add("Bound", "empty variable name")
		}
	case Compare:
		if n.Op < OpEq || n.Op > OpGe {
			v.add(Describe(n), "unknown comparison operator")
		}
		v.validateExpr(n.Left)
		v.validateExpr(n.Right)
	case Like:
		if n.Kind < StartsWithKind || n.Kind > EndsWithKind {
			v.add(Describe(n), "unknown match kind")
		}
		if n.Member == "" {
			v.add(Describe(n), "empty member name")
		}
		v.validateExpr(n.Value)
	case IsNull:
		v.validateExpr(n.Operand)
	case And:
		v.validateTerms(n, n.Terms)
	case Or:
		v.validateTerms(n, n.Terms)
	case Not:
		v.validateExpr(n.Term)
	case Call:
		v.validateExpr(n.Target)
		for _, a := range n.Args {
			v.validateExpr(a)
		}
	default:
		v.add(fmt.Sprintf("%T", e), "unknown expression node")
	}
}

func (v *validator) validateTerms(group Expr, terms []Expr) {
	if len(terms) == 0 {
		v.add(Describe(group), "empty group")
	}
	for _, t := range terms {
		v.validateExpr(t)
	}
}

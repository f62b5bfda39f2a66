package queryir

// StepKind identifies a descriptor step.
type StepKind int

const (
	StepWhere StepKind = iota + 1
	StepOrderBy
	StepSkip
	StepTake
	StepBind
)

func (k StepKind) String() string {
	switch k {
	case StepWhere:
		return "Where"
	case StepOrderBy:
		return "OrderBy"
	case StepSkip:
		return "Skip"
	case StepTake:
		return "Take"
	case StepBind:
		return "Bind"
	default:
		return "Step"
	}
}

// Step is one element of a descriptor chain. Only the fields relevant to
// Kind are set.
type Step struct {
	Kind StepKind

	// Where
	Predicate Expr

	// OrderBy
	Member     string
	Descending bool

	// Skip, Take
	N int

	// Bind
	Name  string
	Value any
}

type node struct {
	step   Step
	parent *node
	depth  int
}

// Descriptor is an immutable query description. The zero value is the
// empty query over the whole table.
type Descriptor struct {
	last *node
}

func (d Descriptor) push(s Step) Descriptor {
	depth := 1
	if d.last != nil {
		depth = d.last.depth + 1
	}
	return Descriptor{last: &node{step: s, parent: d.last, depth: depth}}
}

// Where adds a filter. Successive filters are AND-ed.
func (d Descriptor) Where(p Expr) Descriptor {
	return d.push(Step{Kind: StepWhere, Predicate: p})
}

// OrderBy adds an ascending ordering on member.
func (d Descriptor) OrderBy(member string) Descriptor {
	return d.push(Step{Kind: StepOrderBy, Member: member})
}

// OrderByDesc adds a descending ordering on member.
func (d Descriptor) OrderByDesc(member string) Descriptor {
	return d.push(Step{Kind: StepOrderBy, Member: member, Descending: true})
}

// Skip skips n rows of the current result.
func (d Descriptor) Skip(n int) Descriptor {
	return d.push(Step{Kind: StepSkip, N: n})
}

// Take limits the current result to n rows.
func (d Descriptor) Take(n int) Descriptor {
	return d.push(Step{Kind: StepTake, N: n})
}

// Bind supplies the value of a Bound variable. A later Bind of the same
// name wins.
func (d Descriptor) Bind(name string, value any) Descriptor {
	return d.push(Step{Kind: StepBind, Name: name, Value: value})
}

// Len returns the number of steps.
func (d Descriptor) Len() int {
	if d.last == nil {
		return 0
	}
	return d.last.depth
}

// IsEmpty reports whether the descriptor has no steps.
func (d Descriptor) IsEmpty() bool { return d.last == nil }

// Steps returns the steps root first.
func (d Descriptor) Steps() []Step {
	out := make([]Step, d.Len())
	for n := d.last; n != nil; n = n.parent {
		out[n.depth-1] = n.step
	}
	return out
}

// Bindings collects Bind steps into a name -> value map.
func (d Descriptor) Bindings() map[string]any {
	out := make(map[string]any)
	for _, s := range d.Steps() {
		if s.Kind == StepBind {
			out[s.Name] = s.Value
		}
	}
	return out
}

package queryir

import (
	"fmt"
	"strings"
)

// Expr is a node of a filter expression.
//
// This is a sealed interface; both value and pointer forms of the node
// types implement it. Normalize folds pointer forms into values.
type Expr interface {
	exprNode()
}

// Member references a mapped entity member by name.
type Member struct {
	Name string
}

func (Member) exprNode() {}

// Const is a literal value. It is always bound as a parameter.
type Const struct {
	Value any
}

func (Const) exprNode() {}

// Bound is a captured variable resolved at translation time from the
// descriptor's bindings.
type Bound struct {
	Name string
}

func (Bound) exprNode() {}

// CompareOp is a binary comparison operator.
type CompareOp int

const (
	OpEq CompareOp = iota + 1
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

// SQL returns the operator token.
func (op CompareOp) SQL() string {
	switch op {
	case OpEq:
		return "="
	case OpNe:
		return "<>"
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	default:
		return fmt.Sprintf("op(%d)", int(op))
	}
}

// Swap returns the operator with operands exchanged (a < b == b > a).
func (op CompareOp) Swap() CompareOp {
	switch op {
	case OpLt:
		return OpGt
	case OpLe:
		return OpGe
	case OpGt:
		return OpLt
	case OpGe:
		return OpLe
	default:
		return op
	}
}

// Compare is a binary comparison. One side must be a Member and the other
// a Const or Bound for the translator to accept it.
type Compare struct {
	Op    CompareOp
	Left  Expr
	Right Expr
}

func (Compare) exprNode() {}

// LikeKind selects the wildcard placement of a Like match.
type LikeKind int

const (
	StartsWithKind LikeKind = iota + 1
	ContainsKind
	EndsWithKind
)

// Method returns the call name the kind corresponds to.
func (k LikeKind) Method() string {
	switch k {
	case StartsWithKind:
		return "StartsWith"
	case ContainsKind:
		return "Contains"
	case EndsWithKind:
		return "EndsWith"
	default:
		return fmt.Sprintf("like(%d)", int(k))
	}
}

// Like is a text pattern match on a member. Value is matched literally;
// wildcards are added according to Kind.
type Like struct {
	Kind   LikeKind
	Member string
	Value  Expr
}

func (Like) exprNode() {}

// IsNull tests a member for NULL, or for NOT NULL when Negate is set.
type IsNull struct {
	Operand Expr
	Negate  bool
}

func (IsNull) exprNode() {}

// And holds when every term holds.
type And struct {
	Terms []Expr
}

func (And) exprNode() {}

// Or holds when any term holds.
type Or struct {
	Terms []Expr
}

func (Or) exprNode() {}

// Not negates its term.
type Not struct {
	Term Expr
}

func (Not) exprNode() {}

// Call is a method call on a member (Symbol.StartsWith("A")). Only the
// StartsWith, Contains and EndsWith methods with one argument translate.
type Call struct {
	Method string
	Target Expr
	Args   []Expr
}

func (Call) exprNode() {}

// Normalize returns the value form of a pointer node. A nil pointer
// becomes a nil Expr.
func Normalize(e Expr) Expr {
	switch n := e.(type) {
	case *Member:
		return deref(n)
	case *Const:
		return deref(n)
	case *Bound:
		return deref(n)
	case *Compare:
		return deref(n)
	case *Like:
		return deref(n)
	case *IsNull:
		return deref(n)
	case *And:
		return deref(n)
	case *Or:
		return deref(n)
	case *Not:
		return deref(n)
	case *Call:
		return deref(n)
	default:
		return e
	}
}

func deref[N Expr](p *N) Expr {
	if p == nil {
		return nil
	}
	return *p
}

// Describe renders a node for error messages. Const values are shown by
// type only so bound data does not leak into errors.
func Describe(e Expr) string {
	switch n := Normalize(e).(type) {
	case nil:
		return "<nil>"
	case Member:
		return n.Name
	case Const:
		if n.Value == nil {
			return "nil"
		}
		return fmt.Sprintf("const(%T)", n.Value)
	case Bound:
		return "@" + n.Name
	case Compare:
		return fmt.Sprintf("%s %s %s", Describe(n.Left), n.Op.SQL(), Describe(n.Right))
	case Like:
		return fmt.Sprintf("%s.%s(%s)", n.Member, n.Kind.Method(), Describe(n.Value))
	case IsNull:
		if n.Negate {
			return Describe(n.Operand) + " != nil"
		}
		return Describe(n.Operand) + " == nil"
	case And:
		return "(" + joinDescribed(n.Terms, " && ") + ")"
	case Or:
		return "(" + joinDescribed(n.Terms, " || ") + ")"
	case Not:
		return "!" + Describe(n.Term)
	case Call:
		return fmt.Sprintf("%s.%s(%s)", Describe(n.Target), n.Method, joinDescribed(n.Args, ", "))
	default:
		return fmt.Sprintf("%T", e)
	}
}

func joinDescribed(terms []Expr, sep string) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = Describe(t)
	}
	return strings.Join(parts, sep)
}

// Field references a member.
func Field(name string) Member { return Member{Name: name} }

// Value wraps a literal.
func Value(v any) Const { return Const{Value: v} }

// Param references a captured variable supplied through Descriptor.Bind.
func Param(name string) Bound { return Bound{Name: name} }

// operand turns a constructor argument into an Expr. Exprs pass through;
// anything else becomes a Const.
func operand(v any) Expr {
	if e, ok := v.(Expr); ok {
		return e
	}
	return Const{Value: v}
}

func compare(op CompareOp, member string, value any) Compare {
	return Compare{Op: op, Left: Member{Name: member}, Right: operand(value)}
}

// Eq is member == value. A nil value translates to IS NULL.
func Eq(member string, value any) Compare { return compare(OpEq, member, value) }

// Ne is member != value. A nil value translates to IS NOT NULL.
func Ne(member string, value any) Compare { return compare(OpNe, member, value) }

// Lt is member < value.
func Lt(member string, value any) Compare { return compare(OpLt, member, value) }

// Le is member <= value.
func Le(member string, value any) Compare { return compare(OpLe, member, value) }

// Gt is member > value.
func Gt(member string, value any) Compare { return compare(OpGt, member, value) }

// Ge is member >= value.
func Ge(member string, value any) Compare { return compare(OpGe, member, value) }

// StartsWith matches members beginning with value.
func StartsWith(member string, value any) Like {
	return Like{Kind: StartsWithKind, Member: member, Value: operand(value)}
}

// Contains matches members containing value.
func Contains(member string, value any) Like {
	return Like{Kind: ContainsKind, Member: member, Value: operand(value)}
}

// EndsWith matches members ending with value.
func EndsWith(member string, value any) Like {
	return Like{Kind: EndsWithKind, Member: member, Value: operand(value)}
}

// Null matches members holding NULL.
func Null(member string) IsNull { return IsNull{Operand: Member{Name: member}} }

// NotNull matches members not holding NULL.
func NotNull(member string) IsNull { return IsNull{Operand: Member{Name: member}, Negate: true} }

// AndOf conjoins terms.
func AndOf(terms ...Expr) And { return And{Terms: terms} }

// OrOf disjoins terms.
func OrOf(terms ...Expr) Or { return Or{Terms: terms} }

// NotOf negates term.
func NotOf(term Expr) Not { return Not{Term: term} }

// Invoke builds a method call on target.
func Invoke(target Expr, method string, args ...any) Call {
	exprs := make([]Expr, len(args))
	for i, a := range args {
		exprs[i] = operand(a)
	}
	return Call{Method: method, Target: target, Args: exprs}
}

// Package querysql translates query descriptors into parameterized SQL for
// SQLite.
//
// Every value is bound through a ? placeholder; nothing from a predicate is
// interpolated except quoted identifiers and integer LIMIT/OFFSET counts.
// Translation is deterministic: the same TableMap and descriptor always
// produce the same SQL text and parameter list, which keeps the statement
// cache effective.
package querysql

import (
	"strconv"
	"strings"

	"github.com/roach88/litemap/internal/crudsql"
	"github.com/roach88/litemap/internal/dberr"
	"github.com/roach88/litemap/internal/queryir"
	"github.com/roach88/litemap/internal/schema"
)

// Translate produces the SELECT for d over tm.
//
//	SELECT <all mapped columns> FROM "t" [WHERE ...] [ORDER BY ...] [LIMIT n [OFFSET m]]
func Translate(tm *schema.TableMap, d queryir.Descriptor) (string, []any, error) {
	p, err := plan(tm, d)
	if err != nil {
		return "", nil, err
	}
	return p.selectSQL(), p.params, nil
}

// TranslateCount produces a SELECT COUNT(*) over the rows d would return.
func TranslateCount(tm *schema.TableMap, d queryir.Descriptor) (string, []any, error) {
	p, err := plan(tm, d)
	if err != nil {
		return "", nil, err
	}
	if p.paged() {
		return "SELECT COUNT(*) FROM (" + p.selectSQL() + ")", p.params, nil
	}
	return "SELECT COUNT(*) FROM " + schema.QuoteIdent(tm.Name()) + p.whereSQL(), p.params, nil
}

// TranslateDelete produces a DELETE of the rows matching d's filters.
// A descriptor without filters is rejected; deleting every row goes
// through the explicit DeleteAll statement instead.
func TranslateDelete(tm *schema.TableMap, d queryir.Descriptor) (string, []any, error) {
	p, err := plan(tm, d)
	if err != nil {
		return "", nil, err
	}
	if p.where == "" {
		return "", nil, dberr.NewTranslationError("DeleteWhere", "empty predicate; use DeleteAll to remove every row")
	}
	if len(p.orders) > 0 || p.paged() {
		return "", nil, dberr.NewTranslationError("DeleteWhere", "ordering and paging are not supported in deletes")
	}
	return "DELETE FROM " + schema.QuoteIdent(tm.Name()) + p.whereSQL(), p.params, nil
}

// query is a translated descriptor.
type query struct {
	tm     *schema.TableMap
	where  string
	orders []string
	limit  int
	offset int
	params []any
}

func (q *query) paged() bool { return q.limit >= 0 || q.offset > 0 }

func (q *query) whereSQL() string {
	if q.where == "" {
		return ""
	}
	return " WHERE " + q.where
}

func (q *query) selectSQL() string {
	var b strings.Builder
	b.WriteString(crudsql.SelectPrefix(q.tm))
	b.WriteString(q.whereSQL())
	if len(q.orders) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(q.orders, ", "))
	}
	switch {
	case q.limit >= 0:
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(q.limit))
		if q.offset > 0 {
			b.WriteString(" OFFSET ")
			b.WriteString(strconv.Itoa(q.offset))
		}
	case q.offset > 0:
		b.WriteString(" LIMIT -1 OFFSET ")
		b.WriteString(strconv.Itoa(q.offset))
	}
	return b.String()
}

// plan walks the descriptor root first. Skip and Take compose the way
// sequence operators do: Skip shrinks an existing limit, Take keeps the
// smaller limit.
func plan(tm *schema.TableMap, d queryir.Descriptor) (*query, error) {
	if res := queryir.Validate(d); !res.Valid {
		p := res.Problems[0]
		return nil, dberr.NewTranslationError(p.Node, "%s", p.Message)
	}

	t := &translator{tm: tm, bindings: d.Bindings()}
	q := &query{tm: tm, limit: -1}
	var filters []queryir.Expr

	for _, s := range d.Steps() {
		switch s.Kind {
		case queryir.StepWhere:
			filters = append(filters, s.Predicate)
		case queryir.StepOrderBy:
			col, err := t.column(queryir.Member{Name: s.Member})
			if err != nil {
				return nil, err
			}
			term := schema.QuoteIdent(col.Name)
			if s.Descending {
				term += " DESC"
			}
			q.orders = append(q.orders, term)
		case queryir.StepSkip:
			q.offset += s.N
			if q.limit >= 0 {
				q.limit = max(q.limit-s.N, 0)
			}
		case queryir.StepTake:
			if q.limit < 0 || s.N < q.limit {
				q.limit = s.N
			}
		}
	}

	switch len(filters) {
	case 0:
	case 1:
		where, err := t.expr(filters[0], false)
		if err != nil {
			return nil, err
		}
		q.where = where
	default:
		where, err := t.terms(filters, " AND ")
		if err != nil {
			return nil, err
		}
		q.where = where
	}
	q.params = t.params
	return q, nil
}

// translator renders expressions and accumulates parameters in
// placeholder order.
type translator struct {
	tm       *schema.TableMap
	bindings map[string]any
	params   []any
}

// expr renders e. nested groups are parenthesized so AND/OR precedence
// never depends on the engine.
func (t *translator) expr(e queryir.Expr, nested bool) (string, error) {
	switch n := queryir.Normalize(e).(type) {
	case queryir.Compare:
		return t.compare(n)
	case queryir.Like:
		return t.like(n, queryir.Member{Name: n.Member}, n.Value)
	case queryir.IsNull:
		m, ok := queryir.Normalize(n.Operand).(queryir.Member)
		if !ok {
			return "", dberr.NewTranslationError(queryir.Describe(n), "null test requires a member operand")
		}
		col, err := t.column(m)
		if err != nil {
			return "", err
		}
		if n.Negate {
			return schema.QuoteIdent(col.Name) + " IS NOT NULL", nil
		}
		return schema.QuoteIdent(col.Name) + " IS NULL", nil
	case queryir.And:
		return t.group(n.Terms, " AND ", nested)
	case queryir.Or:
		return t.group(n.Terms, " OR ", nested)
	case queryir.Not:
		inner, err := t.expr(n.Term, false)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	case queryir.Call:
		return t.call(n)
	default:
		return "", dberr.NewTranslationError(queryir.Describe(e), "expression is not a predicate")
	}
}

func (t *translator) group(terms []queryir.Expr, sep string, nested bool) (string, error) {
	s, err := t.terms(terms, sep)
	if err != nil {
		return "", err
	}
	if nested {
		return "(" + s + ")", nil
	}
	return s, nil
}

func (t *translator) terms(terms []queryir.Expr, sep string) (string, error) {
	parts := make([]string, len(terms))
	for i, term := range terms {
		s, err := t.expr(term, true)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, sep), nil
}

func (t *translator) compare(c queryir.Compare) (string, error) {
	left := queryir.Normalize(c.Left)
	right := queryir.Normalize(c.Right)
	op := c.Op

	lm, leftIsMember := left.(queryir.Member)
	rm, rightIsMember := right.(queryir.Member)
	switch {
	case leftIsMember && rightIsMember:
		return "", dberr.NewTranslationError(queryir.Describe(c), "comparison between two members is not supported")
	case rightIsMember:
		lm, right = rm, left
		op = op.Swap()
	case !leftIsMember:
		return "", dberr.NewTranslationError(queryir.Describe(c), "comparison requires a member operand")
	}

	col, err := t.column(lm)
	if err != nil {
		return "", err
	}
	raw, err := t.value(right)
	if err != nil {
		return "", err
	}
	ident := schema.QuoteIdent(col.Name)
	// Pointers are dereferenced here, so a typed nil pointer compares as nil.
	v, err := schema.ToStorage(raw, col.Affinity)
	if err != nil {
		return "", dberr.NewTranslationError(queryir.Describe(c), "%v", err)
	}
	if v == nil {
		switch op {
		case queryir.OpEq:
			return ident + " IS NULL", nil
		case queryir.OpNe:
			return ident + " IS NOT NULL", nil
		default:
			return "", dberr.NewTranslationError(queryir.Describe(c), "nil is only comparable with == or !=")
		}
	}
	t.params = append(t.params, v)
	return ident + " " + op.SQL() + " ?", nil
}

func (t *translator) like(n queryir.Expr, target queryir.Expr, value queryir.Expr) (string, error) {
	var kind queryir.LikeKind
	switch x := queryir.Normalize(n).(type) {
	case queryir.Like:
		kind = x.Kind
	case queryir.Call:
		kind = likeKinds[x.Method]
	}

	m, ok := queryir.Normalize(target).(queryir.Member)
	if !ok {
		return "", dberr.NewTranslationError(queryir.Describe(n), "pattern match requires a member target")
	}
	col, err := t.column(m)
	if err != nil {
		return "", err
	}
	raw, err := t.value(value)
	if err != nil {
		return "", err
	}
	s, ok := raw.(string)
	if !ok {
		return "", dberr.NewTranslationError(queryir.Describe(n), "pattern must be a string, got %T", raw)
	}

	pattern := escapeLike(s)
	switch kind {
	case queryir.StartsWithKind:
		pattern += "%"
	case queryir.ContainsKind:
		pattern = "%" + pattern + "%"
	case queryir.EndsWithKind:
		pattern = "%" + pattern
	}
	t.params = append(t.params, pattern)
	return schema.QuoteIdent(col.Name) + ` LIKE ? ESCAPE '\'`, nil
}

var likeKinds = map[string]queryir.LikeKind{
	"StartsWith": queryir.StartsWithKind,
	"Contains":   queryir.ContainsKind,
	"EndsWith":   queryir.EndsWithKind,
}

func (t *translator) call(c queryir.Call) (string, error) {
	if _, ok := likeKinds[c.Method]; !ok || len(c.Args) != 1 {
		return "", dberr.NewTranslationError(queryir.Describe(c), "unsupported method call")
	}
	return t.like(c, c.Target, c.Args[0])
}

// column resolves a member to its mapped column.
func (t *translator) column(m queryir.Member) (schema.ColumnMap, error) {
	i, ok := t.tm.Column(m.Name)
	if ok {
		return t.tm.ColumnAt(i), nil
	}
	if t.tm.IsIgnored(m.Name) {
		return schema.ColumnMap{}, dberr.NewTranslationError(m.Name, "member %s of %s is not mapped", m.Name, t.tm.Name())
	}
	return schema.ColumnMap{}, dberr.NewTranslationError(m.Name, "unknown member %s of %s", m.Name, t.tm.Name())
}

// value resolves a Const or Bound operand to its Go value.
func (t *translator) value(e queryir.Expr) (any, error) {
	switch n := queryir.Normalize(e).(type) {
	case queryir.Const:
		return n.Value, nil
	case queryir.Bound:
		v, ok := t.bindings[n.Name]
		if !ok {
			return nil, dberr.NewTranslationError(queryir.Describe(n), "unbound variable %s", n.Name)
		}
		return v, nil
	default:
		return nil, dberr.NewTranslationError(queryir.Describe(e), "operand must be a constant or captured variable")
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE wildcards so s matches literally under ESCAPE '\'.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

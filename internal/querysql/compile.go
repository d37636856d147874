package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/stateview/internal/ir"
	"github.com/roach88/stateview/internal/queryir"
)

// ProjectionColumns are the documents columns every compiled query selects,
// in scan order.
const ProjectionColumns = "d.type, d.id, d.user_id, d.data, d.deleted, " +
	"d.block_hash, d.block_height, d.st_hash, d.st_packet_hash"

// PathMatchFunc is the SQL function that decides whether a json_tree node
// is addressed by a dotted field path. The store registers it on every
// connection.
const PathMatchFunc = "sv_path_match"

// KeyMatchFunc is the SQL function that decides whether a json_tree node is
// the single value a sort key addresses (ir.Lookup, no fan-out). The store
// registers it on every connection.
const KeyMatchFunc = "sv_key_match"

// rankExpr orders json_tree node types the same way ir.Rank orders values.
// A missing field yields no row and ranks with null through COALESCE.
const rankExpr = "COALESCE((SELECT CASE s.type " +
	"WHEN 'null' THEN 0 WHEN 'true' THEN 1 WHEN 'false' THEN 1 " +
	"WHEN 'integer' THEN 2 WHEN 'real' THEN 2 WHEN 'text' THEN 3 " +
	"WHEN 'array' THEN 4 ELSE 5 END " +
	"FROM json_tree(d.data) s WHERE " + KeyMatchFunc + "(s.fullkey, ?)), 0)"

// sortValueExpr selects the addressed node's value: the SQL value of a
// scalar, or the JSON text of an array or object.
const sortValueExpr = "(SELECT s.value FROM json_tree(d.data) s WHERE " + KeyMatchFunc + "(s.fullkey, ?))"

// Compiler compiles queryir Plans to parameterized SQL for SQLite.
//
// CRITICAL: Every query ends with ORDER BY d.id COLLATE BINARY ASC so that
// results are totally ordered and skip/take windows are stable.
// CRITICAL: All values are parameterized (never interpolated).
type Compiler struct{}

// NewCompiler creates a new Compiler.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile converts a plan to SQL over the documents table.
// Returns (sql, params, error).
func (c *Compiler) Compile(plan queryir.Plan) (string, []any, error) {
	if plan.DocumentType == "" {
		return "", nil, fmt.Errorf("cannot compile plan without document type")
	}

	st := &compilation{}
	where, err := st.predicate(plan.Filter, "d.data")
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}

	orderBy := st.orderBy(plan.Sort)
	st.params = append(st.params, int64(plan.Take), int64(plan.Skip))

	sql := fmt.Sprintf("SELECT %s FROM documents d WHERE %s ORDER BY %s LIMIT ? OFFSET ?",
		ProjectionColumns,
		where,
		orderBy)

	return sql, st.params, nil
}

// compilation carries the parameters and alias counter of one Compile call.
type compilation struct {
	params  []any
	aliases int
}

func (st *compilation) alias(prefix string) string {
	st.aliases++
	return fmt.Sprintf("%s%d", prefix, st.aliases)
}

func (st *compilation) bind(v ...any) {
	st.params = append(st.params, v...)
}

// predicate compiles p. src is the SQL expression of the JSON document that
// data paths resolve against: d.data at the top, an element below
// elementMatch.
func (st *compilation) predicate(p queryir.Predicate, src string) (string, error) {
	switch pred := p.(type) {
	case queryir.And:
		if len(pred.Predicates) == 0 {
			return "1", nil
		}
		parts := make([]string, 0, len(pred.Predicates))
		for _, sub := range pred.Predicates {
			sql, err := st.predicate(sub, src)
			if err != nil {
				return "", err
			}
			parts = append(parts, sql)
		}
		return strings.Join(parts, " AND "), nil

	case queryir.TypeIs:
		st.bind(pred.Type)
		return "d.type = ?", nil

	case queryir.NotDeleted:
		return "d.deleted = 0", nil

	case queryir.Compare:
		if col, ok := column(pred.Field); ok {
			return st.columnCompare(col, pred.Op, pred.Value), nil
		}
		return st.node(pred.Field, src, func(n string) (string, error) {
			if pred.Op == queryir.OpEq {
				return st.equals(n, pred.Value)
			}
			return st.ordered(n, pred.Op, pred.Value), nil
		})

	case queryir.In:
		if col, ok := column(pred.Field); ok {
			return st.columnIn(col, pred.Values), nil
		}
		return st.node(pred.Field, src, func(n string) (string, error) {
			return st.anyEquals(n, pred.Values)
		})

	case queryir.Length:
		if _, ok := column(pred.Field); ok {
			return "0", nil
		}
		return st.node(pred.Field, src, func(n string) (string, error) {
			st.bind(pred.N)
			return fmt.Sprintf("%s.type = 'array' AND json_array_length(%s.value) = ?", n, n), nil
		})

	case queryir.StartsWith:
		if col, ok := column(pred.Field); ok {
			st.bind(pred.Prefix, pred.Prefix)
			return fmt.Sprintf("substr(%s, 1, length(?)) = ?", col), nil
		}
		return st.node(pred.Field, src, func(n string) (string, error) {
			st.bind(pred.Prefix, pred.Prefix)
			return fmt.Sprintf("%s.type = 'text' AND substr(%s.atom, 1, length(?)) = ?", n, n), nil
		})

	case queryir.Contains:
		if _, ok := column(pred.Field); ok {
			return "0", nil
		}
		return st.node(pred.Field, src, func(n string) (string, error) {
			parts := []string{n + ".type = 'array'"}
			for _, v := range pred.Values {
				e := st.alias("e")
				cond, err := st.equals(e, v)
				if err != nil {
					return "", err
				}
				parts = append(parts, fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(%s.value) %s WHERE %s)", n, e, cond))
			}
			return strings.Join(parts, " AND "), nil
		})

	case queryir.ElementMatch:
		if _, ok := column(pred.Field); ok {
			return "0", nil
		}
		return st.node(pred.Field, src, func(n string) (string, error) {
			e := st.alias("e")
			nested, err := st.predicate(pred.Filter, e+".value")
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s.type = 'array' AND EXISTS (SELECT 1 FROM json_each(%s.value) %s WHERE %s.type = 'object' AND %s)",
				n, n, e, e, nested), nil
		})

	case nil:
		return "", fmt.Errorf("nil predicate")

	default:
		return "", fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// node wraps a condition on json_tree nodes addressed by a data field:
// the predicate holds when any addressed node satisfies cond.
func (st *compilation) node(f queryir.Field, src string, cond func(n string) (string, error)) (string, error) {
	if len(f.Path) == 0 {
		return "", fmt.Errorf("data field with empty path")
	}
	n := st.alias("t")
	st.bind(f.Path.String())
	inner, err := cond(n)
	if err != nil {
		return "", fmt.Errorf("field %s: %w", f, err)
	}
	return fmt.Sprintf("EXISTS (SELECT 1 FROM json_tree(%s) %s WHERE %s(%s.fullkey, ?) AND %s)",
		src, n, PathMatchFunc, n, inner), nil
}

// equals matches node n strictly equal to v. Numbers match by value across
// integer and real; no other types coerce: 1 does not equal true or "1".
func (st *compilation) equals(n string, v ir.IRValue) (string, error) {
	switch val := v.(type) {
	case ir.IRString:
		st.bind(string(val))
		return fmt.Sprintf("%s.type = 'text' AND %s.atom = ?", n, n), nil
	case ir.IRInt:
		st.bind(int64(val))
		return fmt.Sprintf("%s.type IN ('integer', 'real') AND %s.atom = ?", n, n), nil
	case ir.IRFloat:
		st.bind(float64(val))
		return fmt.Sprintf("%s.type IN ('integer', 'real') AND %s.atom = ?", n, n), nil
	case ir.IRBool:
		if val {
			return fmt.Sprintf("%s.type = 'true'", n), nil
		}
		return fmt.Sprintf("%s.type = 'false'", n), nil
	case ir.IRNull:
		return fmt.Sprintf("%s.type = 'null'", n), nil
	case ir.IRArray, ir.IRObject:
		canonical, err := ir.MarshalCanonical(val)
		if err != nil {
			return "", err
		}
		st.bind(string(canonical))
		kind := "array"
		if _, isObj := val.(ir.IRObject); isObj {
			kind = "object"
		}
		return fmt.Sprintf("%s.type = '%s' AND json(%s.value) = json(?)", n, kind, n), nil
	default:
		return "", fmt.Errorf("unsupported value type: %T", v)
	}
}

func (st *compilation) anyEquals(n string, values []ir.IRValue) (string, error) {
	if len(values) == 0 {
		return "0", nil
	}
	parts := make([]string, 0, len(values))
	for _, v := range values {
		cond, err := st.equals(n, v)
		if err != nil {
			return "", err
		}
		parts = append(parts, "("+cond+")")
	}
	return "(" + strings.Join(parts, " OR ") + ")", nil
}

// ordered compares node n against a number or string. Other values never
// order, so the condition is false. SQLite compares integer and real atoms
// numerically.
func (st *compilation) ordered(n string, op queryir.CompareOp, v ir.IRValue) string {
	switch val := v.(type) {
	case ir.IRInt:
		st.bind(int64(val))
		return fmt.Sprintf("%s.type IN ('integer', 'real') AND %s.atom %s ?", n, n, op)
	case ir.IRFloat:
		st.bind(float64(val))
		return fmt.Sprintf("%s.type IN ('integer', 'real') AND %s.atom %s ?", n, n, op)
	case ir.IRString:
		st.bind(string(val))
		return fmt.Sprintf("%s.type = 'text' AND %s.atom %s ?", n, n, op)
	default:
		return "0"
	}
}

func (st *compilation) columnCompare(col string, op queryir.CompareOp, v ir.IRValue) string {
	s, ok := v.(ir.IRString)
	if !ok {
		return "0"
	}
	st.bind(string(s))
	return fmt.Sprintf("%s %s ?", col, op)
}

func (st *compilation) columnIn(col string, values []ir.IRValue) string {
	var marks []string
	for _, v := range values {
		if s, ok := v.(ir.IRString); ok {
			st.bind(string(s))
			marks = append(marks, "?")
		}
	}
	if len(marks) == 0 {
		return "0"
	}
	return fmt.Sprintf("%s IN (%s)", col, strings.Join(marks, ", "))
}

// orderBy renders the sort keys followed by the mandatory id tiebreak.
func (st *compilation) orderBy(keys []queryir.SortKey) string {
	parts := make([]string, 0, len(keys)+1)
	for _, key := range keys {
		dir := "ASC"
		if key.Desc {
			dir = "DESC"
		}
		if col, ok := column(key.Field); ok {
			parts = append(parts, fmt.Sprintf("%s COLLATE BINARY %s", col, dir))
			continue
		}
		path := key.Field.Path.String()
		st.bind(path, path)
		parts = append(parts,
			fmt.Sprintf("%s %s", rankExpr, dir),
			fmt.Sprintf("%s %s", sortValueExpr, dir))
	}
	parts = append(parts, "d.id COLLATE BINARY ASC")
	return strings.Join(parts, ", ")
}

// column returns the documents column of a synthetic field.
func column(f queryir.Field) (string, bool) {
	switch f.Kind {
	case queryir.FieldID:
		return "d.id", true
	case queryir.FieldUserID:
		return "d.user_id", true
	default:
		return "", false
	}
}

package plsolver

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Query is the plain-text external representation described in spec.md
// §6: a variable/equation count header, bound lines, equation lines, and
// constraint lines.
type Query struct {
	NumVariables int
	Bounds       []Tightening // one entry per bound line, in file order
	Equations    []Equation
	Constraints  []PLConstraint
}

// WriteQuery renders q in the query file format.
func WriteQuery(w io.Writer, q *Query) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%d %d\n", q.NumVariables, len(q.Equations)); err != nil {
		return err
	}
	for _, t := range q.Bounds {
		kind := "l"
		if t.Kind == Upper {
			kind = "u"
		}
		if _, err := fmt.Fprintf(bw, "%d,%s,%s\n", t.Variable, kind, strconv.FormatFloat(t.Value, 'g', -1, 64)); err != nil {
			return err
		}
	}
	for _, e := range q.Equations {
		rel := map[Relation]string{RelEQ: "e", RelLE: "l", RelGE: "g"}[e.Relation]
		parts := []string{rel, strconv.Itoa(len(e.Addends))}
		for _, a := range e.Addends {
			parts = append(parts, strconv.FormatFloat(a.Coefficient, 'g', -1, 64), strconv.Itoa(a.Variable))
		}
		parts = append(parts, strconv.FormatFloat(e.Scalar, 'g', -1, 64))
		if _, err := fmt.Fprintln(bw, strings.Join(parts, ",")); err != nil {
			return err
		}
	}
	for _, c := range q.Constraints {
		if _, err := fmt.Fprintln(bw, c.Serialize()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ParseQuery reads the query file format back, registering every
// constraint's reversible state on trail.
func ParseQuery(r io.Reader, trail *Trail) (*Query, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return nil, errors.New("plsolver: empty query file")
	}
	header := strings.Fields(scanner.Text())
	if len(header) != 2 {
		return nil, errors.Errorf("plsolver: malformed query header %q", scanner.Text())
	}
	numVars, err := strconv.Atoi(header[0])
	if err != nil {
		return nil, errors.Wrap(err, "plsolver: parsing variable count")
	}
	numEqs, err := strconv.Atoi(header[1])
	if err != nil {
		return nil, errors.Wrap(err, "plsolver: parsing equation count")
	}

	q := &Query{NumVariables: numVars}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		switch {
		case looksLikeBound(fields):
			t, perr := parseBoundLine(fields)
			if perr != nil {
				return nil, perr
			}
			q.Bounds = append(q.Bounds, t)
		case len(q.Equations) < numEqs:
			eq, perr := parseEquationLine(fields)
			if perr != nil {
				return nil, perr
			}
			q.Equations = append(q.Equations, eq)
		default:
			c, perr := ParseConstraintLine(trail, fields)
			if perr != nil {
				return nil, perr
			}
			q.Constraints = append(q.Constraints, c)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "plsolver: reading query file")
	}
	return q, nil
}

// looksLikeBound distinguishes "var,l|u,value" bound lines from equation
// and constraint lines, which both start with a non-numeric token.
func looksLikeBound(fields []string) bool {
	if len(fields) != 3 {
		return false
	}
	if _, err := strconv.Atoi(fields[0]); err != nil {
		return false
	}
	return fields[1] == "l" || fields[1] == "u"
}

func parseBoundLine(fields []string) (Tightening, error) {
	v, err := strconv.Atoi(fields[0])
	if err != nil {
		return Tightening{}, errors.Wrap(err, "plsolver: parsing bound variable")
	}
	x, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return Tightening{}, errors.Wrap(err, "plsolver: parsing bound value")
	}
	kind := Lower
	if fields[1] == "u" {
		kind = Upper
	}
	return Tightening{Variable: v, Value: x, Kind: kind}, nil
}

var relationTokens = map[string]Relation{"e": RelEQ, "l": RelLE, "g": RelGE}

func parseEquationLine(fields []string) (Equation, error) {
	if len(fields) < 2 {
		return Equation{}, errors.Errorf("plsolver: malformed equation line %q", strings.Join(fields, ","))
	}
	rel, ok := relationTokens[fields[0]]
	if !ok {
		return Equation{}, errors.Errorf("plsolver: unknown relation token %q", fields[0])
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return Equation{}, errors.Wrap(err, "plsolver: parsing addend count")
	}
	addends := make([]Addend, 0, n)
	idx := 2
	for i := 0; i < n; i++ {
		coef, err := strconv.ParseFloat(fields[idx], 64)
		if err != nil {
			return Equation{}, errors.Wrap(err, "plsolver: parsing addend coefficient")
		}
		v, err := strconv.Atoi(fields[idx+1])
		if err != nil {
			return Equation{}, errors.Wrap(err, "plsolver: parsing addend variable")
		}
		addends = append(addends, Addend{Coefficient: coef, Variable: v})
		idx += 2
	}
	scalar, err := strconv.ParseFloat(fields[idx], 64)
	if err != nil {
		return Equation{}, errors.Wrap(err, "plsolver: parsing equation scalar")
	}
	return NewEquation(rel, scalar, addends...), nil
}

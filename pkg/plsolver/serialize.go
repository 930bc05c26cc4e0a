package plsolver

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParseConstraintLine parses one "kind,..." line (per each variant's
// Serialize method) into a live PLConstraint registered on trail. This is
// the query-load / subquery-deserialization counterpart to
// PLConstraint.Serialize, dispatching on the kind token per spec.md §6.
func ParseConstraintLine(trail *Trail, fields []string) (PLConstraint, error) {
	if len(fields) == 0 {
		return nil, errors.New("plsolver: empty constraint line")
	}
	switch fields[0] {
	case "relu":
		return parseRelu(trail, fields)
	case "absoluteValue":
		return parseAbs(trail, fields)
	case "sign":
		return parseSign(trail, fields)
	case "clip":
		return parseClip(trail, fields)
	case "max":
		return parseMax(trail, fields)
	case "cosine":
		return parseCosine(trail, fields)
	case "disj":
		return parseDisjunction(trail, fields)
	default:
		return nil, errors.Wrapf(ErrUnsupported, "constraint kind %q", fields[0])
	}
}

func atoi(s string) (int, error) { return strconv.Atoi(s) }
func atof(s string) (float64, error) { return strconv.ParseFloat(s, 64) }

func parseRelu(trail *Trail, f []string) (PLConstraint, error) {
	if len(f) != 3 && len(f) != 4 {
		return nil, errors.Errorf("plsolver: malformed relu line %q", strings.Join(f, ","))
	}
	fv, err := atoi(f[1])
	if err != nil {
		return nil, err
	}
	b, err := atoi(f[2])
	if err != nil {
		return nil, err
	}
	if len(f) == 4 {
		aux, err := atoi(f[3])
		if err != nil {
			return nil, err
		}
		return NewReluWithAux(trail, b, fv, aux), nil
	}
	return NewRelu(trail, b, fv), nil
}

func parseAbs(trail *Trail, f []string) (PLConstraint, error) {
	if len(f) != 3 {
		return nil, errors.Errorf("plsolver: malformed absoluteValue line %q", strings.Join(f, ","))
	}
	ints, err := atoiAll(f[1:])
	if err != nil {
		return nil, err
	}
	return NewAbs(trail, ints[1], ints[0]), nil
}

func parseSign(trail *Trail, f []string) (PLConstraint, error) {
	if len(f) != 3 {
		return nil, errors.Errorf("plsolver: malformed sign line %q", strings.Join(f, ","))
	}
	ints, err := atoiAll(f[1:])
	if err != nil {
		return nil, err
	}
	return NewSign(trail, ints[1], ints[0]), nil
}

func parseClip(trail *Trail, f []string) (PLConstraint, error) {
	if len(f) != 5 {
		return nil, errors.Errorf("plsolver: malformed clip line %q", strings.Join(f, ","))
	}
	fv, err := atoi(f[1])
	if err != nil {
		return nil, err
	}
	b, err := atoi(f[2])
	if err != nil {
		return nil, err
	}
	floor, err := atof(f[3])
	if err != nil {
		return nil, err
	}
	ceiling, err := atof(f[4])
	if err != nil {
		return nil, err
	}
	return NewClip(trail, b, fv, floor, ceiling), nil
}

func parseMax(trail *Trail, f []string) (PLConstraint, error) {
	if len(f) < 3 {
		return nil, errors.Errorf("plsolver: malformed max line %q", strings.Join(f, ","))
	}
	fv, err := atoi(f[1])
	if err != nil {
		return nil, err
	}
	n, err := atoi(f[2])
	if err != nil {
		return nil, err
	}
	if len(f) < 3+n {
		return nil, errors.Errorf("plsolver: max line declares %d inputs but has too few fields", n)
	}
	inputs := make([]int, n)
	for i := 0; i < n; i++ {
		v, err := atoi(f[3+i])
		if err != nil {
			return nil, err
		}
		inputs[i] = v
	}
	m := NewMax(trail, fv, inputs)
	for _, tok := range f[3+n:] {
		parts := strings.SplitN(tok, ":", 2)
		if len(parts) != 2 {
			continue
		}
		idx, err := atoi(parts[0])
		if err != nil {
			return nil, err
		}
		val, err := atof(parts[1])
		if err != nil {
			return nil, err
		}
		m.Eliminate(idx, val)
	}
	return m, nil
}

func parseCosine(trail *Trail, f []string) (PLConstraint, error) {
	if len(f) != 3 {
		return nil, errors.Errorf("plsolver: malformed cosine line %q", strings.Join(f, ","))
	}
	ints, err := atoiAll(f[1:])
	if err != nil {
		return nil, err
	}
	return NewCosine(trail, ints[1], ints[0]), nil
}

// parseDisjunction reads back the token sequence produced by
// Disjunction.Serialize: "disj,k,[nbounds,(l|u,v,val)*,neqs,(e|l|g,naddends,(coef,var)*,scalar)*]*".
func parseDisjunction(trail *Trail, f []string) (PLConstraint, error) {
	if len(f) < 2 {
		return nil, errors.Errorf("plsolver: malformed disj line %q", strings.Join(f, ","))
	}
	k, err := atoi(f[1])
	if err != nil {
		return nil, err
	}
	idx := 2
	disjuncts := make([]CaseSplit, 0, k)
	for i := 0; i < k; i++ {
		nb, err := atoi(f[idx])
		if err != nil {
			return nil, err
		}
		idx++
		var tightenings []Tightening
		for j := 0; j < nb; j++ {
			kind := Lower
			if f[idx] == "u" {
				kind = Upper
			}
			v, err := atoi(f[idx+1])
			if err != nil {
				return nil, err
			}
			val, err := atof(f[idx+2])
			if err != nil {
				return nil, err
			}
			tightenings = append(tightenings, Tightening{Variable: v, Value: val, Kind: kind})
			idx += 3
		}
		ne, err := atoi(f[idx])
		if err != nil {
			return nil, err
		}
		idx++
		var equations []Equation
		for j := 0; j < ne; j++ {
			rel, ok := relationTokens[f[idx]]
			if !ok {
				return nil, errors.Errorf("plsolver: unknown relation token %q", f[idx])
			}
			idx++
			na, err := atoi(f[idx])
			if err != nil {
				return nil, err
			}
			idx++
			addends := make([]Addend, 0, na)
			for a := 0; a < na; a++ {
				coef, err := atof(f[idx])
				if err != nil {
					return nil, err
				}
				v, err := atoi(f[idx+1])
				if err != nil {
					return nil, err
				}
				addends = append(addends, Addend{Coefficient: coef, Variable: v})
				idx += 2
			}
			scalar, err := atof(f[idx])
			if err != nil {
				return nil, err
			}
			idx++
			equations = append(equations, NewEquation(rel, scalar, addends...))
		}
		disjuncts = append(disjuncts, CaseSplit{Tightenings: tightenings, Equations: equations})
	}
	return NewDisjunction(trail, disjuncts), nil
}

func atoiAll(fields []string) ([]int, error) {
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := atoi(f)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

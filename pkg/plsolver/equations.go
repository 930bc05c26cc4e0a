package plsolver

// EquationPool holds the linear equations active in the current query,
// including those injected by case splits. Reversible via the Trail so a
// split's equations vanish on backtrack along with its bounds.
type EquationPool struct {
	cell *Cell[[]Equation]
}

// NewEquationPool creates an empty pool registered on trail.
func NewEquationPool(trail *Trail) *EquationPool {
	return &EquationPool{cell: NewCell[[]Equation](trail, nil)}
}

// Add appends eqs to the pool.
func (p *EquationPool) Add(eqs ...Equation) {
	if len(eqs) == 0 {
		return
	}
	next := append(append([]Equation(nil), p.cell.Get()...), eqs...)
	p.cell.Set(next)
}

// All returns every equation currently in the pool.
func (p *EquationPool) All() []Equation {
	return p.cell.Get()
}

// Replace overwrites the pool's contents wholesale, used by the engine's
// preprocessing pass to install a simplified equation set before the main
// loop starts.
func (p *EquationPool) Replace(eqs []Equation) {
	p.cell.Set(append([]Equation(nil), eqs...))
}

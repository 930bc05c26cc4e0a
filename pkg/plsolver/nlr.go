package plsolver

import "math"

// NetworkLevelReasoner is the external collaborator spec.md §4.7's
// preprocessing step constructs: given concrete input variable values, it
// forward-propagates them through the network topology (layers of affine
// transforms interleaved with the PL constraints that represent
// activations) to produce a full concrete assignment. The engine uses
// this to seed SoIInitInputAssignment (§4.4). Production use wires in a
// reasoner that understands the actual layer topology; that construction
// is out of this module's scope per spec.md's Non-goals.
type NetworkLevelReasoner interface {
	// Evaluate returns a full assignment over every variable, given
	// values for the input variables (indices in InputVariables()).
	Evaluate(inputs map[int]float64) []float64

	// InputVariables lists the variable indices that are network inputs.
	InputVariables() []int
}

// LayeredReasoner is a minimal reference NetworkLevelReasoner: a sequence
// of affine layers (y = W*x + bias) each followed by one PLConstraint per
// output unit. It is deliberately small — enough to exercise the
// SoIInitInputAssignment path and the end-to-end ACAS-style scenario in
// spec.md §8 — not a general inference engine.
type LayeredReasoner struct {
	inputVars []int
	layers    []affineLayer
	numVars   int
}

type affineLayer struct {
	weights [][]float64 // weights[outputUnit][inputUnit]
	bias    []float64
	inputs  []int // variable indices feeding this layer
	preAct  []int // variable indices receiving W*x+bias
	constraints []PLConstraint // one per preAct->output unit, nil entry means identity (no activation)
	outputs []int // variable indices after the activation constraint
}

// NewLayeredReasoner creates a reasoner with no layers yet; AddLayer
// appends one.
func NewLayeredReasoner(inputVars []int, numVars int) *LayeredReasoner {
	return &LayeredReasoner{inputVars: inputVars, numVars: numVars}
}

// AddLayer appends an affine transform over inputs producing preAct, with
// an optional per-unit activation constraint producing outputs. Pass a
// nil constraints slice entry to mean "identity" (outputs[i] = preAct[i]).
func (r *LayeredReasoner) AddLayer(inputs []int, weights [][]float64, bias []float64, preAct []int, constraints []PLConstraint, outputs []int) {
	r.layers = append(r.layers, affineLayer{
		weights: weights, bias: bias, inputs: inputs, preAct: preAct,
		constraints: constraints, outputs: outputs,
	})
}

func (r *LayeredReasoner) InputVariables() []int { return r.inputVars }

func (r *LayeredReasoner) Evaluate(inputs map[int]float64) []float64 {
	assignment := make([]float64, r.numVars)
	for v, x := range inputs {
		assignment[v] = x
	}
	for _, layer := range r.layers {
		for i, row := range layer.weights {
			sum := layer.bias[i]
			for j, w := range row {
				sum += w * assignment[layer.inputs[j]]
			}
			assignment[layer.preAct[i]] = sum
			out := sum
			if i < len(layer.constraints) && layer.constraints[i] != nil {
				out = forwardActivation(layer.constraints[i], sum)
			}
			if i < len(layer.outputs) {
				assignment[layer.outputs[i]] = out
			}
		}
	}
	return assignment
}

// forwardActivation computes a PL constraint's output from its
// pre-activation input, the forward direction a network-level reasoner
// needs and no PLConstraint method otherwise exposes (CostComponent and
// PhaseInAssignment both assume f is already known).
func forwardActivation(c PLConstraint, b float64) float64 {
	switch v := c.(type) {
	case *Relu:
		if b > 0 {
			return b
		}
		return 0
	case *Abs:
		if b < 0 {
			return -b
		}
		return b
	case *Sign:
		if b >= 0 {
			return 1
		}
		return -1
	case *Clip:
		switch {
		case b <= v.Floor:
			return v.Floor
		case b >= v.Ceiling:
			return v.Ceiling
		default:
			return b
		}
	case *Cosine:
		_ = v
		return math.Cos(b)
	default:
		return b
	}
}

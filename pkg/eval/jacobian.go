package eval

import (
	"gonum.org/v1/gonum/mat"

	"github.com/wildfunctions/treeval/pkg/dataset"
	"github.com/wildfunctions/treeval/pkg/tree"
)

// Layout selects the storage order of a Jacobian filled into a flat slice.
type Layout uint8

const (
	RowMajor Layout = iota
	ColMajor
)

// JacobianCalculator computes the dense Jacobian of a tree's output with
// respect to its optimizable coefficients by forward-mode differentiation:
// the interpreter is re-run with dual-valued parameters, seeding one-hot
// derivative lanes for LaneCount coefficients per pass. Memory stays
// bounded at LaneCount extra lanes per intermediate regardless of how many
// coefficients the tree carries.
type JacobianCalculator struct {
	interp *Interpreter[Dual]
}

// NewJacobianCalculator wraps a dual-number interpreter; nil means the
// built-in kernels.
func NewJacobianCalculator(interp *Interpreter[Dual]) *JacobianCalculator {
	if interp == nil {
		interp = NewInterpreter[Dual](nil)
	}
	return &JacobianCalculator{interp: interp}
}

// Jacobian returns the rng.Size() x len(coeff) matrix of partial
// derivatives, one row per dataset row, one column per coefficient. coeff
// overrides the optimize-flagged nodes in tree order, exactly as in
// Evaluate.
func (jc *JacobianCalculator) Jacobian(t *tree.Tree, d *dataset.Dataset, coeff []float64, rng dataset.Range) *mat.Dense {
	data := make([]float64, rng.Size()*len(coeff))
	jc.JacobianInto(t, d, coeff, rng, RowMajor, data)
	return mat.NewDense(rng.Size(), len(coeff), data)
}

// JacobianInto fills jac, a flat rng.Size() x len(coeff) matrix in the
// requested layout. jac must have length rng.Size()*len(coeff).
func (jc *JacobianCalculator) JacobianInto(t *tree.Tree, d *dataset.Dataset, coeff []float64, rng dataset.Range, layout Layout, jac []float64) {
	rows := rng.Size()
	cols := len(coeff)

	inputs := make([]Dual, cols)
	for i, c := range coeff {
		inputs[i] = Const(c)
	}
	outputs := make([]Dual, rows)

	for s := 0; s < cols; s += LaneCount {
		e := s + LaneCount
		if e > cols {
			e = cols
		}
		for i := s; i < e; i++ {
			inputs[i].Grad[i-s] = 1
		}

		jc.interp.EvaluateInto(t, d, rng, outputs, inputs)

		if layout == ColMajor {
			for i := s; i < e; i++ {
				col := jac[i*rows : (i+1)*rows]
				for r := 0; r < rows; r++ {
					col[r] = outputs[r].Grad[i-s]
				}
			}
		} else {
			for r := 0; r < rows; r++ {
				base := r * cols
				for i := s; i < e; i++ {
					jac[base+i] = outputs[r].Grad[i-s]
				}
			}
		}

		// reset seeds before the next group
		for i := s; i < e; i++ {
			inputs[i].Grad[i-s] = 0
		}
	}
}

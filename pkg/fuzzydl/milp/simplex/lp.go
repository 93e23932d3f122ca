package simplex

import (
	"fmt"
	"math"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/internalerr"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/milp"
)

const (
	pivotTol       = 1e-9
	feasibilityTol = 1e-7
)

type lpStatus uint8

const (
	lpOptimal lpStatus = iota
	lpInfeasible
	lpUnbounded
)

type lpResult struct {
	status lpStatus
	obj    float64
	x      []float64
}

// column maps a standard-form column back to an original variable:
// x[orig] gets sign*value(column) added to its offset.
type column struct {
	orig int
	sign float64
}

// tableau is a dense simplex tableau. The last entry of each row is the
// right-hand side.
type tableau struct {
	m, n  int
	a     [][]float64
	basis []int
}

func (t *tableau) pivot(r, c int) {
	row := t.a[r]
	p := row[c]
	for j := range row {
		row[j] /= p
	}
	row[c] = 1
	for i := 0; i < t.m; i++ {
		if i == r {
			continue
		}
		f := t.a[i][c]
		if f == 0 {
			continue
		}
		ri := t.a[i]
		for j := range ri {
			ri[j] -= f * row[j]
		}
		ri[c] = 0
		if ri[t.n] < 0 && ri[t.n] > -pivotTol {
			ri[t.n] = 0
		}
	}
	t.basis[r] = c
}

// reducedCosts returns cost - c_B * B^-1 A, with the negated objective value in
// the last slot.
func (t *tableau) reducedCosts(cost []float64) []float64 {
	z := make([]float64, t.n+1)
	copy(z, cost)
	for i := 0; i < t.m; i++ {
		cb := cost[t.basis[i]]
		if cb == 0 {
			continue
		}
		for j, v := range t.a[i] {
			z[j] -= cb * v
		}
	}
	return z
}

// run iterates the primal simplex with Bland's rule until optimality.
func (t *tableau) run(cost []float64, allowed func(int) bool, maxIter int) (lpStatus, []float64, error) {
	z := t.reducedCosts(cost)
	for iter := 0; ; iter++ {
		if iter > maxIter {
			return 0, nil, fmt.Errorf("%w: simplex iteration limit %d reached", internalerr.ErrSolver, maxIter)
		}
		enter := -1
		for j := 0; j < t.n; j++ {
			if z[j] < -pivotTol && allowed(j) {
				enter = j
				break
			}
		}
		if enter < 0 {
			return lpOptimal, z, nil
		}
		leave := -1
		best := math.Inf(1)
		for i := 0; i < t.m; i++ {
			a := t.a[i][enter]
			if a <= pivotTol {
				continue
			}
			r := t.a[i][t.n] / a
			switch {
			case leave < 0 || r < best-pivotTol:
				leave, best = i, r
			case r <= best+pivotTol && t.basis[i] < t.basis[leave]:
				leave = i
				if r < best {
					best = r
				}
			}
		}
		if leave < 0 {
			return lpUnbounded, z, nil
		}
		t.pivot(leave, enter)
		f := z[enter]
		for j, v := range t.a[leave] {
			z[j] -= f * v
		}
		z[enter] = 0
	}
}

// solveLP minimises cost·x subject to the model rows and the given bounds,
// ignoring integrality.
func solveLP(model *milp.Model, lower, upper, cost []float64) (lpResult, error) {
	nOrig := len(lower)
	offset := make([]float64, nOrig)
	colsOf := make([][]int, nOrig)
	var cols []column
	type boundRow struct {
		col int
		ub  float64
	}
	var bounds []boundRow

	for j := 0; j < nOrig; j++ {
		l, u := lower[j], upper[j]
		switch {
		case !math.IsInf(l, -1):
			if !math.IsInf(u, 1) && u < l-feasibilityTol {
				return lpResult{status: lpInfeasible}, nil
			}
			offset[j] = l
			colsOf[j] = []int{len(cols)}
			cols = append(cols, column{orig: j, sign: 1})
			if !math.IsInf(u, 1) {
				bounds = append(bounds, boundRow{col: len(cols) - 1, ub: math.Max(u-l, 0)})
			}
		case !math.IsInf(u, 1):
			offset[j] = u
			colsOf[j] = []int{len(cols)}
			cols = append(cols, column{orig: j, sign: -1})
		default:
			colsOf[j] = []int{len(cols), len(cols) + 1}
			cols = append(cols, column{orig: j, sign: 1}, column{orig: j, sign: -1})
		}
	}
	nStd := len(cols)

	type stdRow struct {
		coeff []float64
		typ   milp.InequalityType
		rhs   float64
	}
	rows := make([]stdRow, 0, len(model.Rows)+len(bounds))
	for _, r := range model.Rows {
		sr := stdRow{coeff: make([]float64, nStd), typ: r.Type, rhs: r.RHS}
		for k, j := range r.Index {
			a := r.Coeff[k]
			sr.rhs -= a * offset[j]
			for _, c := range colsOf[j] {
				sr.coeff[c] += a * cols[c].sign
			}
		}
		rows = append(rows, sr)
	}
	for _, b := range bounds {
		sr := stdRow{coeff: make([]float64, nStd), typ: milp.LessEqual, rhs: b.ub}
		sr.coeff[b.col] = 1
		rows = append(rows, sr)
	}
	for i := range rows {
		if rows[i].rhs < 0 {
			for c := range rows[i].coeff {
				rows[i].coeff[c] = -rows[i].coeff[c]
			}
			rows[i].rhs = -rows[i].rhs
			switch rows[i].typ {
			case milp.LessEqual:
				rows[i].typ = milp.GreaterEqual
			case milp.GreaterEqual:
				rows[i].typ = milp.LessEqual
			}
		}
	}

	m := len(rows)
	nSlack, nArt := 0, 0
	for _, r := range rows {
		if r.typ != milp.Equal {
			nSlack++
		}
		if r.typ != milp.LessEqual {
			nArt++
		}
	}
	n := nStd + nSlack + nArt
	t := &tableau{m: m, n: n, a: make([][]float64, m), basis: make([]int, m)}
	slack, art := nStd, nStd+nSlack
	for i, r := range rows {
		row := make([]float64, n+1)
		copy(row, r.coeff)
		row[n] = r.rhs
		switch r.typ {
		case milp.LessEqual:
			row[slack] = 1
			t.basis[i] = slack
			slack++
		case milp.GreaterEqual:
			row[slack] = -1
			slack++
			row[art] = 1
			t.basis[i] = art
			art++
		default:
			row[art] = 1
			t.basis[i] = art
			art++
		}
		t.a[i] = row
	}
	maxIter := 50*(m+n) + 1000
	isArt := func(j int) bool { return j >= nStd+nSlack }

	if nArt > 0 {
		phase1 := make([]float64, n)
		for j := nStd + nSlack; j < n; j++ {
			phase1[j] = 1
		}
		status, z, err := t.run(phase1, func(int) bool { return true }, maxIter)
		if err != nil {
			return lpResult{}, err
		}
		if status != lpOptimal || -z[n] > feasibilityTol {
			return lpResult{status: lpInfeasible}, nil
		}
		for i := 0; i < m; i++ {
			if !isArt(t.basis[i]) {
				continue
			}
			for j := 0; j < nStd+nSlack; j++ {
				if math.Abs(t.a[i][j]) > pivotTol {
					t.pivot(i, j)
					break
				}
			}
		}
	}

	phase2 := make([]float64, n)
	for c, col := range cols {
		phase2[c] = cost[col.orig] * col.sign
	}
	status, _, err := t.run(phase2, func(j int) bool { return !isArt(j) }, maxIter)
	if err != nil {
		return lpResult{}, err
	}
	if status == lpUnbounded {
		return lpResult{status: lpUnbounded}, nil
	}

	std := make([]float64, n)
	for i := 0; i < m; i++ {
		std[t.basis[i]] = t.a[i][n]
	}
	x := make([]float64, nOrig)
	copy(x, offset)
	for c, col := range cols {
		x[col.orig] += col.sign * std[c]
	}
	obj := 0.0
	for j, v := range x {
		obj += cost[j] * v
	}
	return lpResult{status: lpOptimal, obj: obj, x: x}, nil
}

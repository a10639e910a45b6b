package finder

import (
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/fpfind/internal/rnn"
)

// partition splits raw records into those whose speed qualifies them as
// fixed/slow points and the rest. The split is complete and disjoint; bad
// records are kept only for diagnostics.
func partition(records []FixedPoint, qThreshold float64) (good, bad []FixedPoint) {
	good = make([]FixedPoint, 0, len(records))
	bad = make([]FixedPoint, 0)
	for _, r := range records {
		if r.Q <= qThreshold {
			good = append(good, r)
		} else {
			bad = append(bad, r)
		}
	}
	return good, bad
}

// roundDecimals derives the dedup rounding resolution from the distance
// tolerance: d = round(max(0, -log10(tol))) decimal digits.
func roundDecimals(uniqueTol float64) int {
	return int(math.Round(math.Max(0, -math.Log10(uniqueTol))))
}

// dedupe keeps one representative per distinct rounded location: the first
// occurrence in input order.
func dedupe(records []FixedPoint, uniqueTol float64) []FixedPoint {
	d := roundDecimals(uniqueTol)
	seen := make(map[string]struct{}, len(records))
	unique := make([]FixedPoint, 0, len(records))
	for _, r := range records {
		key := locationKey(r.X, d)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, r)
	}
	return unique
}

func locationKey(x rnn.State, decimals int) string {
	p := math.Pow(10, float64(decimals))
	var sb strings.Builder
	for i, v := range x {
		r := math.Round(v*p) / p
		if r == 0 {
			r = 0 // collapse -0 and +0
		}
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(r, 'f', decimals, 64))
	}
	return sb.String()
}

// attachJacobians evaluates the local linearization at each surviving
// record, rebinding the dynamics to that record's own input since inputs may
// differ per point. New records are returned; the inputs are not mutated.
func attachJacobians(weights *rnn.WeightSet, records []FixedPoint) ([]FixedPoint, error) {
	out := make([]FixedPoint, 0, len(records))
	for _, r := range records {
		sys, err := weights.Bind(r.Input)
		if err != nil {
			return nil, err
		}
		out = append(out, r.withJacobian(sys.J(r.X)))
	}
	return out, nil
}

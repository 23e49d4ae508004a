package dice

import (
	"sort"

	"github.com/shopspring/decimal"
)

// evalRepeated evaluates expr rep.Times times with fresh draws each time.
//
// Precondition: 1 <= rep.Times; src is non-nil.
// Postcondition: len(result.Rolls) == rep.Times; Sum is set iff rep.Mode is
// RepeatSum; Rolls are ascending by total iff rep.Mode is RepeatSort, with
// ties kept in iteration order.
func evalRepeated(expr Expr, rep *Repeat, src Source) (*RepeatedResult, error) {
	res := &RepeatedResult{
		Rolls:  make([]SingleResult, 0, rep.Times),
		Sorted: rep.Mode == RepeatSort,
	}
	for i := 0; i < rep.Times; i++ {
		single, err := evalSingle(expr, src)
		if err != nil {
			return nil, err
		}
		res.Rolls = append(res.Rolls, *single)
	}

	if rep.Mode == RepeatSum {
		sum := decimal.Zero
		for _, r := range res.Rolls {
			sum = sum.Add(r.Total.Decimal())
		}
		res.Sum = &sum
	}
	if res.Sorted {
		sort.SliceStable(res.Rolls, func(a, b int) bool {
			return res.Rolls[a].Total.Decimal().LessThan(res.Rolls[b].Total.Decimal())
		})
	}
	return res, nil
}

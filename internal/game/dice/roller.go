package dice

// Roll evaluates an Expression using src.
//
// Postcondition: len(result.Dice) == expr.Count;
// expr.Min() <= result.Total() <= expr.Max().
func Roll(expr Expression, src Source) RollResult {
	rolled := make([]int, expr.Count)
	for i := range rolled {
		rolled[i] = src.Intn(expr.Sides) + 1
	}
	return RollResult{
		Expression: expr.Raw,
		Dice:       rolled,
		Modifier:   expr.Modifier,
	}
}

// Chance draws a percentile and reports whether it lands under probability.
// A probability of 1 always succeeds and 0 never does.
//
// Precondition: 0 <= probability <= 1.
func Chance(probability float64, src Source) (bool, int) {
	roll := src.Intn(100)
	return float64(roll) < probability*100, roll
}

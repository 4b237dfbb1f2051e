package domain

// TokenCostCents converts a token count and a rate in cents per one million
// tokens into whole cents, rounding half up. All-integer math keeps the
// result exact for any realistic token volume.
func TokenCostCents(tokens, ratePer1MCents int64) int64 {
	if tokens <= 0 || ratePer1MCents <= 0 {
		return 0
	}
	return (tokens*ratePer1MCents + 500_000) / 1_000_000
}

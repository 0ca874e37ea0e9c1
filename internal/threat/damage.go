package threat

// HitDamage is the damage a projectile of the given power deals on impact.
func HitDamage(power float64) float64 {
	damage := 4 * power
	if power > 1 {
		damage += 2 * (power - 1)
	}
	return damage
}

// meanDamage folds the history into its arithmetic mean, 0 when empty.
func meanDamage(entries []DamageEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	var sum float64
	for _, e := range entries {
		sum += e.Damage
	}
	return sum / float64(len(entries))
}

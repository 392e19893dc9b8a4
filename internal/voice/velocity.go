package voice

// Volume maps a measured key attack time to a playback volume: linear from
// 1.0 at minAttack down to a 0.1 floor at maxAttack, clamped outside that
// range. Pure and total; the attack-time unit is whatever the transport
// measures, as long as minAttack and maxAttack use the same unit.
func Volume(attackTime, minAttack, maxAttack float64) float64 {
	slope := -0.9 / (maxAttack - minAttack)
	v := slope*attackTime + 1 - slope*minAttack
	if v > 1 {
		return 1
	}
	if v < 0.1 {
		return 0.1
	}
	return v
}

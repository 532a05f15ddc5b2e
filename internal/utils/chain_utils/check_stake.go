// Package chainutils contains helpers for reading chain state and emitting weights.
package chainutils

import "strings"

const (
	rootStakeWeight = 0.18

	devMinerStakeFilter  = 1000
	prodMinerStakeFilter = 10000
)

// EffectiveStake weighs root stake against alpha stake.
func EffectiveStake(alphaStake, rootStake float64) float64 {
	return alphaStake + rootStake*rootStakeWeight
}

// CheckIfMiner reports whether a neuron's stake is low enough to be treated
// as a miner. Validators carry stake above the filter for the environment.
func CheckIfMiner(alphaStake, rootStake float64, environment string) bool {
	stakeFilter := float64(devMinerStakeFilter)
	if strings.EqualFold(environment, "prod") {
		stakeFilter = prodMinerStakeFilter
	}
	return EffectiveStake(alphaStake, rootStake) < stakeFilter
}

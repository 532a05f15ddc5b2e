package chainutils

import "github.com/tensorplex-labs/reprompt/internal/kami"

// UIDForHotkey returns the uid registered to hotkey.
func UIDForHotkey(metagraph *kami.SubnetMetagraph, hotkey string) (int, bool) {
	if metagraph == nil || hotkey == "" {
		return 0, false
	}
	for uid, h := range metagraph.Hotkeys {
		if h == hotkey {
			return uid, true
		}
	}
	return 0, false
}

func GetColdkeyForHotkey(metagraph *kami.SubnetMetagraph, hotkey string) string {
	uid, ok := UIDForHotkey(metagraph, hotkey)
	if !ok || uid >= len(metagraph.Coldkeys) {
		return ""
	}
	return metagraph.Coldkeys[uid]
}

// HasValidatorPermit is false for out of range uids.
func HasValidatorPermit(metagraph *kami.SubnetMetagraph, uid int) bool {
	if metagraph == nil || uid < 0 || uid >= len(metagraph.ValidatorPermit) {
		return false
	}
	return metagraph.ValidatorPermit[uid]
}

// TotalStake is 0 for out of range uids.
func TotalStake(metagraph *kami.SubnetMetagraph, uid int) float64 {
	if metagraph == nil || uid < 0 || uid >= len(metagraph.TotalStake) {
		return 0
	}
	return metagraph.TotalStake[uid]
}

func stakeAt(stakes []float64, uid int) float64 {
	if uid < 0 || uid >= len(stakes) {
		return 0
	}
	return stakes[uid]
}

// MinerUIDs returns the uids with a served axon whose stake classifies them
// as miners, excluding selfHotkey.
func MinerUIDs(metagraph *kami.SubnetMetagraph, selfHotkey, environment string) []int {
	if metagraph == nil {
		return nil
	}
	uids := make([]int, 0, len(metagraph.Hotkeys))
	for uid, hotkey := range metagraph.Hotkeys {
		if hotkey == selfHotkey || uid >= len(metagraph.Axons) {
			continue
		}
		axon := metagraph.Axons[uid]
		if axon.IP == "" || axon.IP == "0.0.0.0" || axon.Port == 0 {
			continue
		}
		if !CheckIfMiner(stakeAt(metagraph.AlphaStake, uid), stakeAt(metagraph.TaoStake, uid), environment) {
			continue
		}
		uids = append(uids, uid)
	}
	return uids
}

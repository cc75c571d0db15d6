package aggregate

import "github.com/rileyhilliard/swarm/internal/device"

// Family is one distinct hardware configuration present in the fleet.
type Family struct {
	DeviceModel string `json:"deviceModel"`
	ASICModel   string `json:"ASICModel"`
	ASICCount   int    `json:"asicCount"`
	Label       string `json:"label"`
	Count       int    `json:"count"`
}

type familyKey struct {
	model string
	asic  string
	count int
}

// Families lists the distinct (deviceModel, ASICModel, asicCount)
// combinations in fleet order, with how many devices share each.
func Families(devices []device.Device) []Family {
	var out []Family
	index := make(map[familyKey]int)
	for _, d := range devices {
		k := familyKey{d.DeviceModel, d.ASICModel, d.ASICCount}
		if i, ok := index[k]; ok {
			out[i].Count++
			continue
		}
		index[k] = len(out)
		out = append(out, Family{
			DeviceModel: d.DeviceModel,
			ASICModel:   d.ASICModel,
			ASICCount:   d.ASICCount,
			Label:       d.Label(),
			Count:       1,
		})
	}
	return out
}

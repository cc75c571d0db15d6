package netrange

import (
	"net"

	"github.com/rileyhilliard/swarm/internal/errors"
)

// DefaultNetmask is used when the configuration doesn't name one.
const DefaultNetmask = "255.255.255.0"

// DetectLocal returns the first non-loopback IPv4 interface address and
// its netmask.
func DetectLocal() (string, string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", "", errors.WrapWithCode(err, errors.ErrInvalidAddress,
			"Couldn't list network interfaces",
			"Set network.address in .swarm.yaml")
	}
	return pickLocal(addrs)
}

func pickLocal(addrs []net.Addr) (string, string, error) {
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		v4 := ipnet.IP.To4()
		if v4 == nil || v4.IsLinkLocalUnicast() {
			continue
		}
		mask := ipnet.Mask
		if len(mask) == net.IPv6len {
			mask = mask[12:]
		}
		if len(mask) != net.IPv4len {
			continue
		}
		return v4.String(), net.IP(mask).String(), nil
	}
	return "", "", errors.New(errors.ErrInvalidAddress,
		"No IPv4 network interface found",
		"Set network.address in .swarm.yaml to this machine's address")
}

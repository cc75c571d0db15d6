// Package netrange derives the candidate host addresses of a local IPv4
// subnet from an address and a netmask.
package netrange

import (
	"fmt"
	"iter"
	"math/bits"
	"strconv"
	"strings"

	"github.com/rileyhilliard/swarm/internal/errors"
)

// ParseIPv4 converts a dotted-quad string into its 32-bit value.
// Exactly four decimal octets in [0,255] are accepted.
func ParseIPv4(s string) (uint32, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 4 {
		return 0, errors.InvalidAddress(s, "IPv4 address")
	}

	var out uint32
	for _, p := range parts {
		if p == "" || len(p) > 3 {
			return 0, errors.InvalidAddress(s, "IPv4 address")
		}
		n, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return 0, errors.InvalidAddress(s, "IPv4 address")
		}
		out = out<<8 | uint32(n)
	}
	return out, nil
}

// FormatIPv4 renders a 32-bit value as a dotted quad.
func FormatIPv4(v uint32) string {
	var b strings.Builder
	b.Grow(15)
	b.WriteString(strconv.Itoa(int(v >> 24 & 0xff)))
	b.WriteByte('.')
	b.WriteString(strconv.Itoa(int(v >> 16 & 0xff)))
	b.WriteByte('.')
	b.WriteString(strconv.Itoa(int(v >> 8 & 0xff)))
	b.WriteByte('.')
	b.WriteString(strconv.Itoa(int(v & 0xff)))
	return b.String()
}

// MinPrefixLen is the shortest netmask a scan accepts (a /16, 65534 hosts).
const MinPrefixLen = 16

// PrefixLen counts the leading one bits of a netmask value.
func PrefixLen(mask uint32) int {
	return bits.LeadingZeros32(^mask)
}

// Range is the usable host range of a subnet: every address strictly
// between the network and broadcast addresses.
type Range struct {
	Network   uint32
	Broadcast uint32
}

// Calculate computes the host range for ip/netmask.
func Calculate(ip, netmask string) (Range, error) {
	ipInt, err := ParseIPv4(ip)
	if err != nil {
		return Range{}, err
	}
	maskInt, err := ParseIPv4(netmask)
	if err != nil {
		return Range{}, errors.InvalidAddress(netmask, "netmask")
	}

	network := ipInt & maskInt
	return Range{
		Network:   network,
		Broadcast: network | ^maskInt,
	}, nil
}

// Start is the first usable host address.
func (r Range) Start() uint32 { return r.Network + 1 }

// End is the last usable host address.
func (r Range) End() uint32 { return r.Broadcast - 1 }

// Size is the number of usable hosts. /31 and /32 masks have none.
func (r Range) Size() int {
	network, broadcast := uint64(r.Network), uint64(r.Broadcast)
	if broadcast < network+2 {
		return 0
	}
	return int(broadcast - network - 1)
}

// PrefixLen is the netmask length the range was computed from.
func (r Range) PrefixLen() int {
	return 32 - bits.Len32(r.Network^r.Broadcast)
}

// CheckScannable rejects ranges wider than a /MinPrefixLen.
func (r Range) CheckScannable() error {
	if r.PrefixLen() < MinPrefixLen {
		return errors.New(errors.ErrInvalidAddress,
			fmt.Sprintf("A /%d network is too large to scan", r.PrefixLen()),
			fmt.Sprintf("Use a netmask of /%d (255.255.0.0) or narrower", MinPrefixLen))
	}
	return nil
}

// Contains reports whether ip (dotted quad) is a usable host in the range.
func (r Range) Contains(ip string) bool {
	v, err := ParseIPv4(ip)
	if err != nil || r.Size() == 0 {
		return false
	}
	return v >= r.Start() && v <= r.End()
}

// All yields every usable host address in ascending order. The sequence
// is lazy and can be ranged over any number of times.
func (r Range) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		n := r.Size()
		for i := 0; i < n; i++ {
			if !yield(FormatIPv4(r.Start() + uint32(i))) {
				return
			}
		}
	}
}

// Hosts materializes All into a slice.
func (r Range) Hosts() []string {
	out := make([]string, 0, r.Size())
	for ip := range r.All() {
		out = append(out, ip)
	}
	return out
}

// String renders the range as "start - end".
func (r Range) String() string {
	if r.Size() == 0 {
		return "(empty)"
	}
	return FormatIPv4(r.Start()) + " - " + FormatIPv4(r.End())
}

// Package view orders and filters device snapshots for presentation.
package view

import (
	"cmp"
	"fmt"
	"slices"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/rileyhilliard/swarm/internal/aggregate"
	"github.com/rileyhilliard/swarm/internal/device"
	"github.com/rileyhilliard/swarm/internal/errors"
	"github.com/rileyhilliard/swarm/internal/netrange"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == Asc {
		return Desc
	}
	return Asc
}

// Spec is the persisted sort selection.
type Spec struct {
	Field     string    `json:"sortField"`
	Direction Direction `json:"sortDirection"`
}

// DefaultSpec sorts by address, ascending.
var DefaultSpec = Spec{Field: device.FieldIP, Direction: Asc}

// Kind selects the comparator for a field.
type Kind int

const (
	Numeric Kind = iota
	String
	IPAddress
	Difficulty
)

type field struct {
	kind    Kind
	str     func(device.Device) string
	num     func(device.Device) float64
	display string
}

var fields = map[string]field{
	device.FieldIP:             {kind: IPAddress, str: func(d device.Device) string { return d.IP }, display: "IP"},
	device.FieldHostname:       {kind: String, str: func(d device.Device) string { return d.Hostname }, display: "Hostname"},
	device.FieldASICModel:      {kind: String, str: func(d device.Device) string { return d.ASICModel }, display: "ASIC"},
	device.FieldDeviceModel:    {kind: String, str: func(d device.Device) string { return d.DeviceModel }, display: "Model"},
	device.FieldSwarmColor:     {kind: String, str: func(d device.Device) string { return d.SwarmColor }, display: "Color"},
	device.FieldBoardVersion:   {kind: String, str: func(d device.Device) string { return d.BoardVersion }, display: "Board"},
	device.FieldVersion:        {kind: String, str: func(d device.Device) string { return d.Version }, display: "Version"},
	device.FieldBestDiff:       {kind: Difficulty, str: func(d device.Device) string { return d.BestDiff }, display: "Best Diff"},
	device.FieldHashRate:       {kind: Numeric, num: func(d device.Device) float64 { return d.HashRate }, display: "Hashrate"},
	device.FieldPower:          {kind: Numeric, num: func(d device.Device) float64 { return d.Power }, display: "Power"},
	device.FieldVoltage:        {kind: Numeric, num: func(d device.Device) float64 { return d.Voltage }, display: "Voltage"},
	device.FieldTemp:           {kind: Numeric, num: func(d device.Device) float64 { return d.Temp }, display: "Temp"},
	device.FieldSharesAccepted: {kind: Numeric, num: func(d device.Device) float64 { return float64(d.SharesAccepted) }, display: "Shares"},
	device.FieldSharesRejected: {kind: Numeric, num: func(d device.Device) float64 { return float64(d.SharesRejected) }, display: "Rejected"},
	device.FieldUptimeSeconds:  {kind: Numeric, num: func(d device.Device) float64 { return float64(d.UptimeSeconds) }, display: "Uptime"},
	device.FieldPoolDifficulty: {kind: Numeric, num: func(d device.Device) float64 { return d.PoolDifficulty }, display: "Pool Diff"},
	device.FieldASICCount:      {kind: Numeric, num: func(d device.Device) float64 { return float64(d.ASICCount) }, display: "ASICs"},
}

// KindOf reports the comparator kind of a sortable field.
func KindOf(name string) (Kind, bool) {
	f, ok := fields[name]
	return f.kind, ok
}

// Fields lists every sortable field name in a stable order.
func Fields() []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that s names a known field and direction.
func (s Spec) Validate() error {
	if _, ok := fields[s.Field]; !ok {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Can't sort by '%s'", s.Field),
			"Sortable fields: "+strings.Join(Fields(), ", "))
	}
	if s.Direction != Asc && s.Direction != Desc {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown sort direction '%s'", s.Direction),
			"Use 'asc' or 'desc'")
	}
	return nil
}

// Sorter holds the active sort selection. It is not safe for concurrent
// use; callers guard it.
type Sorter struct {
	spec Spec
}

// NewSorter starts from spec, falling back to DefaultSpec when invalid.
func NewSorter(spec Spec) *Sorter {
	if spec.Validate() != nil {
		spec = DefaultSpec
	}
	return &Sorter{spec: spec}
}

// Spec returns the active selection.
func (s *Sorter) Spec() Spec {
	return s.spec
}

// SortBy selects a field. An explicit direction is used as given; an empty
// one flips the direction when the field is already selected and resets
// to ascending otherwise.
func (s *Sorter) SortBy(name string, dir Direction) (Spec, error) {
	next := Spec{Field: name, Direction: dir}
	switch {
	case dir != "":
	case name == s.spec.Field:
		next.Direction = s.spec.Direction.Flip()
	default:
		next.Direction = Asc
	}
	if err := next.Validate(); err != nil {
		return s.spec, err
	}
	s.spec = next
	return next, nil
}

// Sort returns a sorted copy of devices under the active selection.
func (s *Sorter) Sort(devices []device.Device) []device.Device {
	return Sort(devices, s.spec)
}

// Sort returns a stably sorted copy of devices under spec. An unknown
// field leaves the order unchanged.
func Sort(devices []device.Device, spec Spec) []device.Device {
	out := slices.Clone(devices)
	f, ok := fields[spec.Field]
	if !ok {
		return out
	}

	var compare func(a, b device.Device) int
	switch f.kind {
	case IPAddress:
		compare = func(a, b device.Device) int { return compareIP(f.str(a), f.str(b)) }
	case Numeric:
		compare = func(a, b device.Device) int { return cmp.Compare(f.num(a), f.num(b)) }
	case Difficulty:
		compare = func(a, b device.Device) int { return aggregate.DiffCmp(f.str(a), f.str(b)) }
	case String:
		// Collators carry scratch buffers; one per call. Case only breaks
		// ties, lower before upper.
		c := collate.New(language.Und, collate.Numeric)
		compare = func(a, b device.Device) int { return c.CompareString(f.str(a), f.str(b)) }
	}

	slices.SortStableFunc(out, func(a, b device.Device) int {
		if spec.Direction == Desc {
			return -compare(a, b)
		}
		return compare(a, b)
	})
	return out
}

// compareIP orders dotted quads octet by octet. Unparsable addresses sort
// before valid ones.
func compareIP(a, b string) int {
	va, errA := netrange.ParseIPv4(a)
	vb, errB := netrange.ParseIPv4(b)
	switch {
	case errA != nil && errB != nil:
		return strings.Compare(a, b)
	case errA != nil:
		return -1
	case errB != nil:
		return 1
	}
	return cmp.Compare(va, vb)
}

// Filter keeps devices whose hostname, ASIC model, device model or address
// contains text, ignoring case. Empty text returns devices as is.
func Filter(devices []device.Device, text string) []device.Device {
	if text == "" {
		return devices
	}
	needle := strings.ToLower(text)
	var out []device.Device
	for _, d := range devices {
		if strings.Contains(strings.ToLower(d.Hostname), needle) ||
			strings.Contains(strings.ToLower(d.ASICModel), needle) ||
			strings.Contains(strings.ToLower(d.DeviceModel), needle) ||
			strings.Contains(d.IP, needle) {
			out = append(out, d)
		}
	}
	return out
}

// Option is one entry of the sort menu.
type Option struct {
	Label string
	Spec  Spec
}

var menu = []string{
	device.FieldHostname,
	device.FieldIP,
	device.FieldHashRate,
	device.FieldSharesAccepted,
	device.FieldBestDiff,
	device.FieldUptimeSeconds,
	device.FieldPower,
	device.FieldTemp,
	device.FieldPoolDifficulty,
	device.FieldVersion,
}

// SortOptions lists the menu of sort choices, each field descending then
// ascending.
func SortOptions() []Option {
	opts := make([]Option, 0, len(menu)*2)
	for _, name := range menu {
		label := fields[name].display
		opts = append(opts,
			Option{Label: label, Spec: Spec{Field: name, Direction: Desc}},
			Option{Label: label, Spec: Spec{Field: name, Direction: Asc}},
		)
	}
	return opts
}

// Display returns the column heading for a field.
func Display(name string) string {
	if f, ok := fields[name]; ok {
		return f.display
	}
	return name
}

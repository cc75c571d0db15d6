package view

import (
	"testing"

	"github.com/rileyhilliard/swarm/internal/device"
	"github.com/rileyhilliard/swarm/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ips(devices []device.Device) []string {
	out := make([]string, len(devices))
	for i, d := range devices {
		out[i] = d.IP
	}
	return out
}

func TestSort_IPByOctet(t *testing.T) {
	fleet := []device.Device{{IP: "10.0.0.2"}, {IP: "9.0.0.5"}, {IP: "10.0.0.10"}}

	got := Sort(fleet, Spec{Field: device.FieldIP, Direction: Asc})
	assert.Equal(t, []string{"9.0.0.5", "10.0.0.2", "10.0.0.10"}, ips(got))

	got = Sort(fleet, Spec{Field: device.FieldIP, Direction: Desc})
	assert.Equal(t, []string{"10.0.0.10", "10.0.0.2", "9.0.0.5"}, ips(got))

	assert.Equal(t, "10.0.0.2", fleet[0].IP, "input untouched")
}

func TestSort_Numeric(t *testing.T) {
	fleet := []device.Device{
		{IP: "a", Power: 15},
		{IP: "b", Power: 9.5},
		{IP: "c", Power: 20},
	}
	got := Sort(fleet, Spec{Field: device.FieldPower, Direction: Desc})
	assert.Equal(t, []string{"c", "a", "b"}, ips(got))
}

func TestSort_NaturalStrings(t *testing.T) {
	fleet := []device.Device{
		{IP: "1", Version: "v10"},
		{IP: "2", Version: "v2"},
		{IP: "3", Version: "v2.5.1"},
	}
	got := Sort(fleet, Spec{Field: device.FieldVersion, Direction: Asc})
	assert.Equal(t, []string{"2", "3", "1"}, ips(got))

	hosts := []device.Device{{IP: "1", Hostname: "bitaxe-10"}, {IP: "2", Hostname: "Bitaxe-9"}}
	got = Sort(hosts, Spec{Field: device.FieldHostname, Direction: Asc})
	assert.Equal(t, []string{"2", "1"}, ips(got))
}

func TestSort_CaseBreaksTies(t *testing.T) {
	fleet := []device.Device{
		{IP: "1", Hostname: "Gamma"},
		{IP: "2", Hostname: "alpha"},
		{IP: "3", Hostname: "gamma"},
	}
	got := Sort(fleet, Spec{Field: device.FieldHostname, Direction: Asc})
	assert.Equal(t, []string{"2", "3", "1"}, ips(got))

	got = Sort(fleet, Spec{Field: device.FieldHostname, Direction: Desc})
	assert.Equal(t, []string{"1", "3", "2"}, ips(got))
}

func TestSort_BestDiffUsesMagnitude(t *testing.T) {
	fleet := []device.Device{
		{IP: "a", BestDiff: "1.2T"},
		{IP: "b", BestDiff: "800G"},
		{IP: "c", BestDiff: "0"},
		{IP: "d", BestDiff: "95M"},
	}
	got := Sort(fleet, Spec{Field: device.FieldBestDiff, Direction: Desc})
	assert.Equal(t, []string{"a", "b", "d", "c"}, ips(got))
}

func TestSort_StableOnTies(t *testing.T) {
	fleet := []device.Device{{IP: "x", Temp: 50}, {IP: "y", Temp: 50}, {IP: "z", Temp: 40}}
	got := Sort(fleet, Spec{Field: device.FieldTemp, Direction: Asc})
	assert.Equal(t, []string{"z", "x", "y"}, ips(got))
}

func TestSorter_SortBy(t *testing.T) {
	s := NewSorter(DefaultSpec)

	spec, err := s.SortBy(device.FieldPower, "")
	require.NoError(t, err)
	assert.Equal(t, Spec{device.FieldPower, Asc}, spec)

	spec, err = s.SortBy(device.FieldPower, "")
	require.NoError(t, err)
	assert.Equal(t, Spec{device.FieldPower, Desc}, spec, "reselecting toggles")

	spec, err = s.SortBy(device.FieldTemp, "")
	require.NoError(t, err)
	assert.Equal(t, Asc, spec.Direction, "new field starts ascending")

	spec, err = s.SortBy(device.FieldTemp, Asc)
	require.NoError(t, err)
	assert.Equal(t, Asc, spec.Direction, "explicit direction wins")

	_, err = s.SortBy("fanspeed", "")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	assert.Equal(t, device.FieldTemp, s.Spec().Field, "rejected field leaves selection")
}

func TestNewSorter_InvalidFallsBack(t *testing.T) {
	assert.Equal(t, DefaultSpec, NewSorter(Spec{Field: "nope", Direction: Asc}).Spec())
	assert.Equal(t, DefaultSpec, NewSorter(Spec{Field: device.FieldIP, Direction: "up"}).Spec())
}

func TestFilter(t *testing.T) {
	fleet := []device.Device{
		{IP: "192.168.1.10", Hostname: "Garage-Gamma", ASICModel: "BM1370", DeviceModel: "Gamma"},
		{IP: "192.168.1.11", Hostname: "office", ASICModel: "BM1368", DeviceModel: "Supra"},
		{IP: "192.168.1.12", Hostname: "shed", ASICModel: "BM1397", DeviceModel: "Max"},
	}

	assert.Equal(t, fleet, Filter(fleet, ""))
	assert.Equal(t, []string{"192.168.1.10"}, ips(Filter(fleet, "garage")))
	assert.Equal(t, []string{"192.168.1.11"}, ips(Filter(fleet, "bm1368")))
	assert.Equal(t, []string{"192.168.1.12"}, ips(Filter(fleet, "MAX")))
	assert.Equal(t, []string{"192.168.1.11"}, ips(Filter(fleet, ".11")))
	assert.Empty(t, Filter(fleet, "nothing"))
}

func TestSortOptions(t *testing.T) {
	opts := SortOptions()
	require.Len(t, opts, 20)
	assert.Equal(t, Option{Label: "Hostname", Spec: Spec{device.FieldHostname, Desc}}, opts[0])
	assert.Equal(t, Option{Label: "Version", Spec: Spec{device.FieldVersion, Asc}}, opts[19])
	for _, o := range opts {
		assert.NoError(t, o.Spec.Validate())
	}
}

func TestKindOf(t *testing.T) {
	k, ok := KindOf(device.FieldIP)
	assert.True(t, ok)
	assert.Equal(t, IPAddress, k)

	k, _ = KindOf(device.FieldBestDiff)
	assert.Equal(t, Difficulty, k)

	_, ok = KindOf("frequency")
	assert.False(t, ok)
}

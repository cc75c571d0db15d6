package testing

import (
	"context"
	"testing"
	"time"

	"github.com/rileyhilliard/swarm/internal/device"
	"github.com/rileyhilliard/swarm/internal/probe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeProber_AnswersRegisteredDevices(t *testing.T) {
	f := NewFakeProber().AddMiner("10.0.0.2", "gamma", "BM1370", 1100, 17)

	res, err := f.Fetch(context.Background(), "10.0.0.2", true)
	require.NoError(t, err)
	assert.Equal(t, "gamma", res.Info.String("hostname"))
	assert.Equal(t, "BM1370", res.Capabilities.String("ASICModel"))

	res, err = f.Fetch(context.Background(), "10.0.0.2", false)
	require.NoError(t, err)
	assert.Empty(t, res.Capabilities, "capabilities skipped")

	assert.Equal(t, []FetchCall{{"10.0.0.2", true}, {"10.0.0.2", false}}, f.Calls())
}

func TestFakeProber_Failures(t *testing.T) {
	f := NewFakeProber().
		AddDevice("10.0.0.3", FakeDevice{Fail: true, Reason: probe.ProbeFailRefused}).
		AddDevice("10.0.0.4", FakeDevice{Delay: time.Second})

	_, err := f.Fetch(context.Background(), "10.0.0.9", false)
	var perr *probe.ProbeError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, probe.ProbeFailUnreachable, perr.Reason)

	_, err = f.Fetch(context.Background(), "10.0.0.3", false)
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, probe.ProbeFailRefused, perr.Reason)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = f.Fetch(ctx, "10.0.0.4", false)
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, probe.ProbeFailTimeout, perr.Reason)
}

func TestFakeProber_CapabilitiesOnlyFailure(t *testing.T) {
	f := NewFakeProber().AddDevice("10.0.0.5", FakeDevice{
		Info:             device.Payload{device.FieldHostname: Raw("x")},
		CapabilitiesFail: true,
	})

	res, err := f.Fetch(context.Background(), "10.0.0.5", true)
	require.NoError(t, err)
	assert.Error(t, res.CapabilitiesErr)
	assert.Empty(t, res.Capabilities)
}

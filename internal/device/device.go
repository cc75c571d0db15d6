// Package device defines the swarm's device record: a typed core of the
// fields the engine reasons about plus an open bag of everything else a
// device reports, preserved untouched.
package device

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// JSON field names as reported by the device API.
const (
	FieldIP             = "IP"
	FieldHostname       = "hostname"
	FieldASICModel      = "ASICModel"
	FieldDeviceModel    = "deviceModel"
	FieldSwarmColor     = "swarmColor"
	FieldASICCount      = "asicCount"
	FieldBoardVersion   = "boardVersion"
	FieldHashRate       = "hashRate"
	FieldPower          = "power"
	FieldVoltage        = "voltage"
	FieldTemp           = "temp"
	FieldSharesAccepted = "sharesAccepted"
	FieldSharesRejected = "sharesRejected"
	FieldBestDiff       = "bestDiff"
	FieldUptimeSeconds  = "uptimeSeconds"
	FieldPoolDifficulty = "poolDifficulty"
	FieldStratumDiff    = "stratumDiff"
	FieldVersion        = "version"
	FieldDegraded       = "degraded"
)

// Payload is a decoded JSON object from a device endpoint, keyed by
// field name. Only keys present in the payload are applied to a record.
type Payload map[string]json.RawMessage

// ParsePayload decodes a device response body. An empty body is an
// empty payload.
func ParsePayload(body []byte) (Payload, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Payload{}, nil
	}
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, err
	}
	if p == nil {
		p = Payload{}
	}
	return p, nil
}

// String returns the value of key as a string, if present.
func (p Payload) String(key string) string {
	raw, ok := p[key]
	if !ok {
		return ""
	}
	return decodeString(raw)
}

// Device is one miner in the swarm.
type Device struct {
	IP             string
	Hostname       string
	ASICModel      string
	DeviceModel    string
	SwarmColor     string
	ASICCount      int
	BoardVersion   string
	HashRate       float64
	Power          float64
	Voltage        float64
	Temp           float64
	SharesAccepted int64
	SharesRejected int64
	BestDiff       string
	UptimeSeconds  int64
	PoolDifficulty float64
	StratumDiff    float64
	Version        string

	// Degraded marks a zeroed placeholder left behind by a failed refresh.
	Degraded bool

	// Extra holds fields the engine doesn't model, exactly as received.
	Extra map[string]json.RawMessage
}

// Apply overlays every key present in p onto d. Unknown keys land in Extra.
func (d *Device) Apply(p Payload) {
	for key, raw := range p {
		switch key {
		case FieldIP:
			if s := decodeString(raw); s != "" {
				d.IP = s
			}
		case FieldHostname:
			d.Hostname = decodeString(raw)
		case FieldASICModel:
			d.ASICModel = decodeString(raw)
		case FieldDeviceModel:
			d.DeviceModel = decodeString(raw)
		case FieldSwarmColor:
			d.SwarmColor = decodeString(raw)
		case FieldASICCount:
			d.ASICCount = int(decodeInt(raw))
		case FieldBoardVersion:
			d.BoardVersion = decodeString(raw)
		case FieldHashRate:
			d.HashRate = decodeFloat(raw)
		case FieldPower:
			d.Power = decodeFloat(raw)
		case FieldVoltage:
			d.Voltage = decodeFloat(raw)
		case FieldTemp:
			d.Temp = decodeFloat(raw)
		case FieldSharesAccepted:
			d.SharesAccepted = decodeInt(raw)
		case FieldSharesRejected:
			d.SharesRejected = decodeInt(raw)
		case FieldBestDiff:
			d.BestDiff = decodeString(raw)
		case FieldUptimeSeconds:
			d.UptimeSeconds = decodeInt(raw)
		case FieldPoolDifficulty:
			d.PoolDifficulty = decodeFloat(raw)
		case FieldStratumDiff:
			d.StratumDiff = decodeFloat(raw)
		case FieldVersion:
			d.Version = decodeString(raw)
		case FieldDegraded:
			d.Degraded = decodeBool(raw)
		default:
			if d.Extra == nil {
				d.Extra = make(map[string]json.RawMessage)
			}
			d.Extra[key] = append(json.RawMessage(nil), raw...)
		}
	}
}

// Clone returns a deep copy.
func (d Device) Clone() Device {
	if d.Extra != nil {
		extra := make(map[string]json.RawMessage, len(d.Extra))
		for k, v := range d.Extra {
			extra[k] = append(json.RawMessage(nil), v...)
		}
		d.Extra = extra
	}
	return d
}

// MarshalJSON writes the typed fields under their device API names,
// alongside every preserved extra field.
func (d Device) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(d.Extra)+19)
	for k, v := range d.Extra {
		out[k] = v
	}
	out[FieldIP] = d.IP
	out[FieldHostname] = d.Hostname
	out[FieldASICModel] = d.ASICModel
	out[FieldDeviceModel] = d.DeviceModel
	out[FieldSwarmColor] = d.SwarmColor
	out[FieldASICCount] = d.ASICCount
	out[FieldBoardVersion] = d.BoardVersion
	out[FieldHashRate] = d.HashRate
	out[FieldPower] = d.Power
	out[FieldVoltage] = d.Voltage
	out[FieldTemp] = d.Temp
	out[FieldSharesAccepted] = d.SharesAccepted
	out[FieldSharesRejected] = d.SharesRejected
	out[FieldBestDiff] = d.BestDiff
	out[FieldUptimeSeconds] = d.UptimeSeconds
	out[FieldPoolDifficulty] = d.PoolDifficulty
	out[FieldStratumDiff] = d.StratumDiff
	out[FieldVersion] = d.Version
	if d.Degraded {
		out[FieldDegraded] = true
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts both persisted records and raw device payloads.
func (d *Device) UnmarshalJSON(data []byte) error {
	p, err := ParsePayload(data)
	if err != nil {
		return err
	}
	*d = Device{}
	d.Apply(p)
	return nil
}

// Label renders the family label, e.g. "Gamma (BM1370)" or "Supra (4x BM1368)".
func (d Device) Label() string {
	model := d.DeviceModel
	if model == "" {
		model = ModelOther
	}
	count := ""
	if d.ASICCount > 1 {
		count = strconv.Itoa(d.ASICCount) + "x "
	}
	return model + " (" + count + d.ASICModel + ")"
}

func decodeString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if f, err := n.Float64(); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return n.String()
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b)
	}
	return ""
}

func decodeFloat(raw json.RawMessage) float64 {
	raw = bytes.TrimSpace(raw)
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return 0
}

func decodeInt(raw json.RawMessage) int64 {
	return int64(decodeFloat(raw))
}

func decodeBool(raw json.RawMessage) bool {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	return decodeFloat(raw) != 0
}

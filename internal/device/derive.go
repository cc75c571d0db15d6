package device

// Device models known to the swarm.
const (
	ModelMax        = "Max"
	ModelUltra      = "Ultra"
	ModelUltraHex   = "UltraHex"
	ModelSupra      = "Supra"
	ModelGamma      = "Gamma"
	ModelGammaTurbo = "GammaTurbo"
	ModelOther      = "Other"
)

// Swarm colors, one per model.
const (
	ColorRed    = "red"
	ColorPurple = "purple"
	ColorBlue   = "blue"
	ColorOrange = "orange"
	ColorGreen  = "green"
	ColorCyan   = "cyan"
	ColorGray   = "gray"
)

// boardFamilies maps the leading digit of a board version to its model.
var boardFamilies = map[byte]string{
	'1': ModelMax,
	'2': ModelUltra,
	'3': ModelUltraHex,
	'4': ModelSupra,
	'6': ModelGamma,
	'8': ModelGammaTurbo,
}

// boardExceptions are legacy board versions whose leading digit lies.
var boardExceptions = map[string]string{
	"2.2":  ModelMax,
	"0.11": ModelUltra,
}

var modelColors = map[string]string{
	ModelMax:        ColorRed,
	ModelUltra:      ColorPurple,
	ModelSupra:      ColorBlue,
	ModelUltraHex:   ColorOrange,
	ModelGamma:      ColorGreen,
	ModelGammaTurbo: ColorCyan,
}

// DeriveModel guesses the device model from a board version for
// firmware that doesn't report one.
func DeriveModel(boardVersion string) string {
	if len(boardVersion) <= 1 {
		return ModelOther
	}
	if model, ok := boardExceptions[boardVersion]; ok {
		return model
	}
	if model, ok := boardFamilies[boardVersion[0]]; ok {
		return model
	}
	return ModelOther
}

// DeriveColor returns the swarm color for a device model.
func DeriveColor(model string) string {
	if color, ok := modelColors[model]; ok {
		return color
	}
	return ColorGray
}

// ApplyFallbacks fills in deviceModel, swarmColor and poolDifficulty for
// firmware that predates them. A record that already carries all three is
// left alone so legacy heuristics never overwrite reported values.
func (d *Device) ApplyFallbacks() {
	if d.DeviceModel != "" && d.SwarmColor != "" && d.PoolDifficulty != 0 {
		return
	}
	if d.DeviceModel == "" {
		d.DeviceModel = DeriveModel(d.BoardVersion)
	}
	if d.SwarmColor == "" {
		d.SwarmColor = DeriveColor(d.DeviceModel)
	}
	if d.PoolDifficulty == 0 {
		d.PoolDifficulty = d.StratumDiff
	}
}

// Placeholder returns a copy of d with live telemetry zeroed and the
// degraded flag set. Identity and static fields survive.
func (d Device) Placeholder() Device {
	p := d.Clone()
	p.HashRate = 0
	p.SharesAccepted = 0
	p.Power = 0
	p.Voltage = 0
	p.Temp = 0
	p.BestDiff = "0"
	p.Version = ""
	p.UptimeSeconds = 0
	p.PoolDifficulty = 0
	p.Degraded = true
	return p
}

// Build assembles a record for ip from a known record (may be nil) and
// freshly fetched payloads. Capabilities are applied first so info wins on
// any key both report; fallbacks run last.
func Build(ip string, known *Device, capabilities, info Payload) Device {
	var d Device
	if known != nil {
		d = known.Clone()
	}
	d.Apply(capabilities)
	d.Apply(info)
	d.IP = ip
	d.Degraded = false
	d.ApplyFallbacks()
	return d
}

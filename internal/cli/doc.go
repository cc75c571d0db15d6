// Package cli implements the swarm command-line interface.
//
// Each operation on the fleet is a Cobra command that opens the engine
// (config, storage and prober), does one thing and closes it again:
//
//	swarm scan                 - Probe the local subnet and add what answers
//	swarm refresh [--full]     - Re-probe every known device
//	swarm list                 - Device table or grid with fleet totals
//	swarm totals / families    - Fleet summaries
//	swarm add|remove|restart   - Manage single devices
//	swarm sort|interval|view   - Stored presentation preferences
//	swarm watch                - Live dashboard with timed refresh
//	swarm init / config        - Create and edit .swarm.yaml
//
// # Engine Setup
//
// openApp loads and validates config, opens the fleet database and wires
// the HTTP prober. newFetcher and openBackend are package variables so
// tests can run commands against a fake prober and in-memory storage.
//
// # Output
//
// Human output goes to the command's writer; progress notes go to stderr
// only when it is a terminal. Commands with --json write a JSONEnvelope,
// and failures are rendered the same way by Execute.
package cli

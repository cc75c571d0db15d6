// Package dashboard is the live fleet view behind 'swarm watch'.
//
// The model ticks once a second and feeds the engine's refresh policy; when
// the countdown runs out it starts a refresh batch. Scans and refreshes can
// also be started by key. Fleet changes arrive through the engine's event
// subscription, so adds and removes made elsewhere show up without polling.
//
// Keyboard shortcuts:
//
//	r        refresh now
//	s        scan the subnet
//	g        toggle grid / list
//	o / O    next sort order / flip direction
//	/        filter
//	?        help
//	q        quit
package dashboard

// Package httpserver exposes the agent's HTTP API: the public agent card
// and status, the attested quote endpoint, and task submission. It also
// carries the operational endpoints (livez, readyz, drain, undrain) and an
// optional pprof mount.
package httpserver

// Package mctp implements an endpoint-side MCTP-over-serial responder: a
// byte-driven receive framer, a resumable byte-paced transmit engine, and a
// synchronous control-message responder, all sharing one fixed-size frame
// buffer. It targets single-bus, single-frame (non-segmented) MCTP traffic
// on an embedded, cooperatively-polled endpoint with no dynamic allocation
// on the hot path.
//
// The core never touches a wire directly. It is driven by a Platform
// implementation (has-data / read-byte / can-write / write-byte) supplied
// by the caller, and by repeated calls to Endpoint.Update from a single
// execution context. See the platform package for a real Linux TTY binding.
package mctp

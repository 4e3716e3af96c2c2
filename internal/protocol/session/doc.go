// Package session owns the command channel's wire vocabulary and
// request-correlation primitives.
//
// Ownership boundary:
// - JSON request/response/status envelopes
// - pending-request table keyed by request id
// - reconnect retry delay policy and reliability defaults
package session

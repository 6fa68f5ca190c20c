// Package restclient provides the JSON HTTP client shared by the external
// collaborator gateways. It classifies failures into the sentinel errors from
// the services package and retries idempotent reads with bounded backoff.
package restclient

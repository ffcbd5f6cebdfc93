// Package client is the typed HTTP client for the daemon's loopback API,
// shared by the lifesync CLI. It mirrors the API surface one method per
// endpoint and maps error responses onto StatusError.
package client

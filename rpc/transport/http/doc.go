// Package http implements an HTTP based transport for mkv.
//
// The server accepts serialized requests with POST /rpc and answers with the
// response frame as body. It also serves GET /metrics with the VictoriaMetrics
// counters and histograms of the process in Prometheus text format.
//
// The client spreads requests round-robin over all endpoints and retries a
// failed request on the next endpoint. Endpoints may be given as URL or as
// bare host:port.
//
// Thread Safety:
//
//	The client transport is safe for concurrent use after Connect returned.
package http

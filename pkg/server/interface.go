/*
Package server implements msgpack IPC for option services.

The server exposes a catalog of options to combobox frontends running in
another process. Messages travel over stdin/stdout, each one a msgpack body
behind a 4 byte big-endian length prefix.

# IPC

Right after start the server writes a ready frame:

	{"st": "ready"}

Clients then send requests tagged with an id. Search requests look like this:

	{"id": "6f1c...", "op": "fetch", "q": "joh", "l": 20}

The server responds with options ranked by match score:

	{"id": "6f1c...", "st": "ok", "o": [{"l": "John Smith", "v": "js1", "r": 1, "sc": 3, "m": "label", "sl": [{"s": 0, "e": 3}]}], "c": 1, "t": 87}

Label lookups for already selected values set "lk" and list the values:

	{"id": "91a0...", "op": "fetch", "lk": true, "v": ["js1", "js9"]}

Unknown values are left out of the answer; the caller decides how to show them.

Requests run concurrently, so responses may arrive out of order. A client that
loses interest sends a cancel frame carrying the id of the request to abort:

	{"id": "6f1c...", "op": "cancel"}

A cancel frame gets no reply of its own. The aborted request answers with
status "cancelled" unless it already finished.

# Message Types

Request carries every operation: fetch, cancel, stats and reload.
Response carries the status, the ranked options with their highlight spans,
timing in microseconds, and an error message and code when an op fails.
Stats reports the loaded catalog and how many requests were served.

Client implements the resolve.Fetcher contract on top of this protocol so a
resolver can use a remote catalog like a local one.
*/
package server

import "github.com/bastiangx/pickserve/pkg/option"

// Operations.
const (
	OpFetch  = "fetch"
	OpCancel = "cancel"
	OpStats  = "stats"
	OpReload = "reload"
)

// Response statuses.
const (
	StatusReady     = "ready"
	StatusOK        = "ok"
	StatusError     = "error"
	StatusCancelled = "cancelled"
)

// Error codes.
const (
	CodeBadRequest = 400
	CodeConflict   = 409
	CodeInternal   = 500
)

// Request - any client message
type Request struct {
	ID       string   `msgpack:"id"`
	Op       string   `msgpack:"op"`
	Query    string   `msgpack:"q,omitempty"`
	Values   []string `msgpack:"v,omitempty"`
	Lookup   bool     `msgpack:"lk,omitempty"`
	Limit    int      `msgpack:"l,omitempty"`
	Selected []string `msgpack:"sel,omitempty"`
	Language string   `msgpack:"lang,omitempty"`
}

// Result - one ranked option
type Result struct {
	Label    string        `msgpack:"l"`
	Value    string        `msgpack:"v"`
	Icon     string        `msgpack:"i,omitempty"`
	Disabled bool          `msgpack:"d,omitempty"`
	Divider  bool          `msgpack:"div,omitempty"`
	Rank     uint16        `msgpack:"r"`
	Score    float64       `msgpack:"sc,omitempty"`
	Matched  option.Target `msgpack:"m,omitempty"`
	Slices   []option.Span `msgpack:"sl,omitempty"`
}

// Option drops the ranking fields.
func (r Result) Option() option.Option {
	return option.Option{
		Label:    r.Label,
		Value:    r.Value,
		Icon:     r.Icon,
		Disabled: r.Disabled,
		Divider:  r.Divider,
	}
}

// Stats - catalog and traffic counters
type Stats struct {
	Options   int    `msgpack:"options"`
	IndexKeys int    `msgpack:"index_keys"`
	Path      string `msgpack:"path,omitempty"`
	LoadedAt  int64  `msgpack:"loaded_at"`
	Served    uint64 `msgpack:"served"`
	InFlight  int    `msgpack:"in_flight"`
}

// Response - reply to a request, or the ready signal when ID is empty
type Response struct {
	ID        string   `msgpack:"id,omitempty"`
	Status    string   `msgpack:"st"`
	Options   []Result `msgpack:"o,omitempty"`
	Count     int      `msgpack:"c,omitempty"`
	TimeTaken int64    `msgpack:"t,omitempty"`
	Stats     *Stats   `msgpack:"stats,omitempty"`
	Error     string   `msgpack:"e,omitempty"`
	Code      int      `msgpack:"code,omitempty"`
}

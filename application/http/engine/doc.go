// Package engine defines the transfer engine a request builder hands its
// composed options to, together with the typed option set itself.
//
// An engine owns connections, TLS and redirect following. Callers only see
// a [Handle]: options go in, raw response bytes come out, and the last
// error code and message stay readable after every execution.
package engine

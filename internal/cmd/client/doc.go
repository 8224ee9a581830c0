// Package client provides the `tempo` command-line client.
//
// The CLI talks to the Tempo HTTP endpoints to manage delay lines from a
// terminal. It is primarily intended for developers and operators.
//
// # Address configuration
//
// The HTTP base URL is discovered by the application that embeds the
// commands via a BaseURLFunc. When using the standalone binary, it reads
// TEMPO_HTTP and defaults to http://127.0.0.1:8080.
//
// Usage
//
//	tempo line create --namespace default --name orders --delay-ms 5000
//
//	tempo line publish \
//	    --namespace default --line orders \
//	    --data '{"hello":"world"}' \
//	    --header idempotencyKey=pub-123
//
//	# Stream released events over SSE; a CEL filter runs server-side
//	tempo line subscribe --namespace default --line orders \
//	    --filter 'headers["eventType"] == "user.registered"'
//
//	tempo line stats --namespace default --line orders
//	tempo line list --namespace default
//
//	# Terminate a line
//	tempo line close --namespace default --line orders
//	tempo line fault --namespace default --line orders --reason "upstream gone"
//
// Notes
//
//   - subscribe prints one JSON object per released event and exits on the
//     line's terminal event: with status 0 after `complete`, with an error
//     after `error`.
//   - publish accepts repeated --header key=value flags or a single
//     --header-json with a JSON object to populate event headers.
package client

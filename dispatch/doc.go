// Package dispatch fans decoded panel messages out to subscribers.
//
// A Dispatcher receives raw text chunks from the transport, splits them into frame lines,
// decodes each line through the message registry and emits the result first to Wildcard
// subscribers and then to the subscribers of the message type code. One-shot listeners
// registered with Once are removed before they are invoked, so a listener observes at most
// one message.
//
// A line that fails to decode is reported to the error handlers registered with OnError and
// does not stop processing of the remaining lines in the chunk.
package dispatch

// Package relay fans group planning events out to every connected observer
// of the same group.
//
// A client opens a WebSocket, sends a join frame naming a group it belongs
// to, and from then on receives a verbatim copy of every idea, vote and
// contribution frame that other observers of that group send. The relay does
// not interpret those payloads; clients use the type tag to decide whether to
// refetch from the REST API.
//
// Delivery is best effort and at most once. Frames for a closed or backed-up
// connection are dropped, not queued. Routing state lives only in memory
// and is rebuilt as clients reconnect and rejoin.
//
// All registry mutations run on the Hub's single event loop goroutine, so
// Registry itself has no locks. Deployments with more than one instance plug
// a Broker into the Hub so frames reach observers connected elsewhere.
package relay

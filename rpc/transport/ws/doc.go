// Package ws implements a websocket transport for the file service using
// gorilla/websocket, for deployments where only HTTP traffic can reach the server.
//
// The server upgrades requests on the path /rfs. Each upgraded connection is
// exposed to the base transport as a net.Conn: writes become binary messages
// and reads return the concatenated content of the binary messages of the peer.
// Framing is therefore identical to the plain TCP transport.
//
// The client accepts either host:port (the path /rfs is appended) or a full
// ws:// or wss:// URL as endpoint.
package ws

// Package tcp implements the TCP transport of the file service. It provides
// concrete implementations of the base package's connector interfaces.
//
// The server listens with net.Listen, so the accept backlog is the kernel default
// (somaxconn). Accepted and dialed connections are tuned with the TCPConf and
// SocketConf settings (TCP_NODELAY, socket buffer sizes, keep-alive, linger).
//
// Everything else (worker pool, framing, deadlines) is provided by the base package.
package tcp

// Package live connects the tracking animator to the location feed.
//
// A Client speaks STOMP over a WebSocket, authenticated by a bearer token
// passed as the "token" query parameter, and re-dials with a fixed delay
// until its context ends. A View runs one Client and one tracking.Animator
// against a Surface and guarantees that the connection, the animation
// clocks and the surface are all released when it returns.
package live

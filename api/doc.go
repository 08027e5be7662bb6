// Package api is a client for the transport company's REST API.
//
// It covers authentication, usuarios (system accounts), operarios
// (workers), adelantos (cash advances) and descuentos (weekly deduction
// aggregates). Every request except Login carries the session token as a
// bearer Authorization header. List endpoints answer either with a bare
// JSON array or with a paginated {"content": [...]} envelope; both are
// accepted.
package api

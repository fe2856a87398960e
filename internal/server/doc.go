// Package server implements the HTTP and WebSocket transport for the chat
// relay.
//
// The implementation is organized into specialized files for configuration,
// hub management, clients, routing, and HTTP handlers. Room state and event
// fan-out live in package chat; this package adapts WebSocket connections to
// chat sessions.
package server

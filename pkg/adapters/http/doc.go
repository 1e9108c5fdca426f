// Package http exposes the inspector and the navigator over a JSON API.
//
// Read endpoints materialize the tree on demand, like the navigator does.
// Failures are returned as {"error": {...}, "hint": "..."} with a status
// code derived from the error kind. GET /events streams operation events
// as Server-Sent Events.
package http

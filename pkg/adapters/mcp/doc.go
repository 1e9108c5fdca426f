// Package mcp exposes the inspector as Model Context Protocol tools, so an
// agent can list applications, search and resolve elements, perform
// actions and drive navigator sessions.
//
// Tool results are JSON text. Failures are tool errors whose text carries
// the error kind and a recovery hint.
package mcp

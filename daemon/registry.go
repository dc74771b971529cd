// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package daemon

import (
	"context"
	"fmt"
	"sort"

	"github.com/voxforge/voxd/document"
	"github.com/voxforge/voxd/lib/rpc"
)

// HandlerFunc executes one method call. It returns either a result
// value to marshal into the response or an *rpc.Error; never both.
// A nil result with a nil error is a programming error caught at
// encoding time.
type HandlerFunc func(ctx context.Context, call *Call) (any, *rpc.Error)

// Call carries one dispatched request through its handler.
type Call struct {
	// Request is the decoded envelope.
	Request *rpc.Request

	// Owner identifies the call to the document guard: the connection
	// ordinal plus the request id, unique among live requests.
	Owner string

	// token is the guard token held while the handler runs inside
	// Server.withDocument. The pool-boundary panic recovery
	// force-releases it when the handler crashes mid-hold.
	token *document.Token
}

// registration pairs a handler with the description reported by
// list_methods.
type registration struct {
	handler     HandlerFunc
	description string
}

// methodInfo is one entry of a list_methods result.
type methodInfo struct {
	Method      string `json:"method"`
	Description string `json:"description"`
}

// Registry maps method names to handlers. Registration happens before
// the server starts serving; lookups after that are read-only, so no
// lock is needed.
type Registry struct {
	handlers map[string]registration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]registration)}
}

// Handle registers a handler for the given method name. Panics if the
// method is already registered: two handlers for one name is a wiring
// bug, not a runtime condition.
func (r *Registry) Handle(method, description string, handler HandlerFunc) {
	if _, exists := r.handlers[method]; exists {
		panic(fmt.Sprintf("daemon.Registry: duplicate handler for method %q", method))
	}
	r.handlers[method] = registration{handler: handler, description: description}
}

// lookup resolves a method name.
func (r *Registry) lookup(method string) (registration, bool) {
	reg, ok := r.handlers[method]
	return reg, ok
}

// methods lists registered methods sorted by name.
func (r *Registry) methods() []methodInfo {
	infos := make([]methodInfo, 0, len(r.handlers))
	for method, reg := range r.handlers {
		infos = append(infos, methodInfo{Method: method, Description: reg.description})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Method < infos[j].Method })
	return infos
}

// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package daemon

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/voxforge/voxd/document"
	"github.com/voxforge/voxd/lib/rpc"
)

// execute resolves and runs one request, producing its response. An
// unknown method is rejected here, before the guard or any handler is
// touched.
func (s *Server) execute(ctx context.Context, c *conn, request *rpc.Request) rpc.Response {
	reg, ok := s.registry.lookup(request.Method)
	if !ok {
		s.stats.requestsFailed.Add(1)
		return rpc.ErrorResponse(request.ID,
			rpc.Errorf(rpc.CodeMethodNotFound, "method %q not found", request.Method))
	}
	call := &Call{Request: request, Owner: fmt.Sprintf("c%d/%s", c.id, request.ID)}
	result, rpcErr := s.invoke(ctx, reg.handler, call)
	if rpcErr != nil {
		s.stats.requestsFailed.Add(1)
		return rpc.ErrorResponse(request.ID, rpcErr)
	}
	return rpc.ResultResponse(request.ID, result)
}

// invoke runs the handler under the pool-boundary panic recovery. A
// panicking handler yields an internal-error response, any guard token
// the call still holds is force-released, and the worker survives.
func (s *Server) invoke(ctx context.Context, handler HandlerFunc, call *Call) (result any, rpcErr *rpc.Error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("handler panic",
				"method", call.Request.Method,
				"owner", call.Owner,
				"panic", r,
				"stack", string(debug.Stack()))
			if call.token != nil {
				call.token.ForceRelease()
				call.token = nil
			}
			result = nil
			rpcErr = rpc.NewError(rpc.CodeInternalError, "internal error")
		}
	}()
	return handler(ctx, call)
}

// withDocument runs fn while holding the document guard for this call.
// Contention maps to the document-locked error carrying the holder's
// identity; a token reclaimed by the idle sweep before release maps to
// ownership-lost, which overrides fn's result but never an error fn
// already produced.
func (s *Server) withDocument(call *Call, fn func(token *document.Token) (any, *rpc.Error)) (any, *rpc.Error) {
	token, err := s.guard.Acquire(call.Owner)
	if err != nil {
		var contention *document.ContentionError
		if errors.As(err, &contention) {
			return nil, rpc.NewError(rpc.CodeDocumentLocked, "document locked").
				WithData(map[string]string{
					"owner":    contention.Owner,
					"held_for": contention.HeldFor.Round(time.Millisecond).String(),
				})
		}
		return nil, rpc.Errorf(rpc.CodeInternalError, "acquiring document: %v", err)
	}
	call.token = token
	result, rpcErr := fn(token)
	call.token = nil
	if releaseErr := token.Release(); releaseErr != nil && rpcErr == nil {
		result = nil
		rpcErr = rpc.NewError(rpc.CodeOwnershipLost,
			"document ownership lost: token reclaimed by the idle sweep")
	}
	return result, rpcErr
}

// engineError maps a document engine failure to its RPC error code.
func engineError(err error) *rpc.Error {
	switch {
	case errors.Is(err, document.ErrNoProject):
		return rpc.NewError(rpc.CodeNoProject, err.Error())
	case errors.Is(err, document.ErrUnknownLayer):
		return rpc.NewError(rpc.CodeUnknownLayer, err.Error())
	case errors.Is(err, document.ErrInvalidSnapshot):
		return rpc.NewError(rpc.CodeInvalidSnapshot, err.Error())
	case errors.Is(err, document.ErrNoSavePath):
		return rpc.NewError(rpc.CodeInvalidParams, err.Error())
	case errors.Is(err, document.ErrOwnershipLost):
		return rpc.NewError(rpc.CodeOwnershipLost, err.Error())
	default:
		return rpc.NewError(rpc.CodeEngineFailure, err.Error())
	}
}

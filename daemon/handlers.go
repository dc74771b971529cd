// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/voxforge/voxd/document"
	"github.com/voxforge/voxd/lib/rpc"
	"github.com/voxforge/voxd/lib/version"
)

// registerHandlers installs the built-in method set. Descriptions feed
// list_methods.
func (s *Server) registerHandlers() {
	s.registry.Handle("ping", "liveness probe", s.handlePing)
	s.registry.Handle("version", "daemon version and protocol info", s.handleVersion)
	s.registry.Handle("echo", "returns its params unchanged", s.handleEcho)
	s.registry.Handle("list_methods", "lists registered methods", s.handleListMethods)

	s.registry.Handle("vox.create_project", "create a project, replacing the open one", s.handleCreateProject)
	s.registry.Handle("vox.load_project", "load a project snapshot from disk", s.handleLoadProject)
	s.registry.Handle("vox.save_project", "write the project snapshot", s.handleSaveProject)
	s.registry.Handle("vox.export_model", "write a snapshot with an explicit compression format", s.handleExportModel)

	s.registry.Handle("vox.add_voxel", "set one voxel", s.handleAddVoxel)
	s.registry.Handle("vox.remove_voxel", "clear one voxel", s.handleRemoveVoxel)
	s.registry.Handle("vox.get_voxel", "read one voxel", s.handleGetVoxel)
	s.registry.Handle("vox.batch_operations", "apply a list of add/remove operations", s.handleBatchOperations)

	s.registry.Handle("vox.create_layer", "append a layer and make it active", s.handleCreateLayer)
	s.registry.Handle("vox.list_layers", "list layers in creation order", s.handleListLayers)
	s.registry.Handle("vox.get_status", "daemon, guard, and document status", s.handleGetStatus)
}

type pingResult struct {
	Pong      bool  `json:"pong"`
	Timestamp int64 `json:"timestamp"`
}

func (s *Server) handlePing(ctx context.Context, call *Call) (any, *rpc.Error) {
	return pingResult{Pong: true, Timestamp: s.clock.Now().Unix()}, nil
}

type versionResult struct {
	Version  string `json:"version"`
	Type     string `json:"type"`
	Protocol string `json:"protocol"`
	Commit   string `json:"commit"`
}

func (s *Server) handleVersion(ctx context.Context, call *Call) (any, *rpc.Error) {
	return versionResult{
		Version:  version.Short(),
		Type:     "daemon",
		Protocol: rpc.ProtocolVersion,
		Commit:   version.GitCommit,
	}, nil
}

// handleEcho returns the request's params as the result, or an empty
// object when the request carried none.
func (s *Server) handleEcho(ctx context.Context, call *Call) (any, *rpc.Error) {
	if call.Request.Params.IsAbsent() {
		return json.RawMessage("{}"), nil
	}
	return call.Request.Params.Raw(), nil
}

type methodsResult struct {
	Count   int          `json:"count"`
	Methods []methodInfo `json:"methods"`
}

func (s *Server) handleListMethods(ctx context.Context, call *Call) (any, *rpc.Error) {
	infos := s.registry.methods()
	return methodsResult{Count: len(infos), Methods: infos}, nil
}

type createProjectResult struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Depth  int    `json:"depth"`
}

// handleCreateProject replaces the document under the call's token.
// Dimensions are reported back from the engine, which applies its
// default canvas to non-positive inputs.
func (s *Server) handleCreateProject(ctx context.Context, call *Call) (any, *rpc.Error) {
	args := newArgs(call.Request.Params)
	name, rpcErr := args.requireString("name")
	if rpcErr != nil {
		return nil, rpcErr
	}
	width, rpcErr := args.optionalInt("width", 0)
	if rpcErr != nil {
		return nil, rpcErr
	}
	height, rpcErr := args.optionalInt("height", 0)
	if rpcErr != nil {
		return nil, rpcErr
	}
	depth, rpcErr := args.optionalInt("depth", 0)
	if rpcErr != nil {
		return nil, rpcErr
	}

	return s.withDocument(call, func(*document.Token) (any, *rpc.Error) {
		if err := s.engine.NewProject(name, width, height, depth); err != nil {
			return nil, engineError(err)
		}
		stats := s.engine.Stats()
		return createProjectResult{
			Name:   stats.Name,
			Width:  stats.Width,
			Height: stats.Height,
			Depth:  stats.Depth,
		}, nil
	})
}

type loadProjectResult struct {
	Path   string `json:"path"`
	Name   string `json:"name"`
	Layers int    `json:"layers"`
	Voxels int    `json:"voxels"`
}

func (s *Server) handleLoadProject(ctx context.Context, call *Call) (any, *rpc.Error) {
	args := newArgs(call.Request.Params)
	path, rpcErr := args.requireString("path")
	if rpcErr != nil {
		return nil, rpcErr
	}

	return s.withDocument(call, func(*document.Token) (any, *rpc.Error) {
		if err := s.engine.Open(path); err != nil {
			return nil, engineError(err)
		}
		stats := s.engine.Stats()
		return loadProjectResult{
			Path:   stats.Path,
			Name:   stats.Name,
			Layers: stats.Layers,
			Voxels: stats.Voxels,
		}, nil
	})
}

type saveProjectResult struct {
	Path string `json:"path"`
}

func (s *Server) handleSaveProject(ctx context.Context, call *Call) (any, *rpc.Error) {
	args := newArgs(call.Request.Params)
	path, rpcErr := args.optionalString("path", "")
	if rpcErr != nil {
		return nil, rpcErr
	}

	return s.withDocument(call, func(*document.Token) (any, *rpc.Error) {
		written, err := s.engine.Save(path)
		if err != nil {
			return nil, engineError(err)
		}
		return saveProjectResult{Path: written}, nil
	})
}

type exportModelResult struct {
	Path   string `json:"path"`
	Format string `json:"format"`
}

func (s *Server) handleExportModel(ctx context.Context, call *Call) (any, *rpc.Error) {
	args := newArgs(call.Request.Params)
	path, rpcErr := args.requireString("path")
	if rpcErr != nil {
		return nil, rpcErr
	}
	format, rpcErr := args.requireString("format")
	if rpcErr != nil {
		return nil, rpcErr
	}
	if _, err := document.ParseCompression(format); err != nil {
		return nil, rpc.Errorf(rpc.CodeInvalidParams, "parameter \"format\": %v", err)
	}

	return s.withDocument(call, func(*document.Token) (any, *rpc.Error) {
		written, err := s.engine.Export(path, format)
		if err != nil {
			return nil, engineError(err)
		}
		return exportModelResult{Path: written, Format: format}, nil
	})
}

// defaultVoxelColor is opaque white, applied when an add carries no
// color argument.
var defaultVoxelColor = document.Color{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

type addVoxelResult struct {
	X     int32  `json:"x"`
	Y     int32  `json:"y"`
	Z     int32  `json:"z"`
	Color string `json:"color"`
	Layer string `json:"layer,omitempty"`
}

func (s *Server) handleAddVoxel(ctx context.Context, call *Call) (any, *rpc.Error) {
	args := newArgs(call.Request.Params)
	pos, rpcErr := args.pos()
	if rpcErr != nil {
		return nil, rpcErr
	}
	color, rpcErr := args.color("color", defaultVoxelColor)
	if rpcErr != nil {
		return nil, rpcErr
	}
	layerName, rpcErr := args.optionalString("layer", "")
	if rpcErr != nil {
		return nil, rpcErr
	}

	return s.withDocument(call, func(*document.Token) (any, *rpc.Error) {
		if err := s.engine.AddVoxel(layerName, pos, color); err != nil {
			return nil, engineError(err)
		}
		return addVoxelResult{
			X:     pos.X,
			Y:     pos.Y,
			Z:     pos.Z,
			Color: color.String(),
			Layer: layerName,
		}, nil
	})
}

type removeVoxelResult struct {
	X       int32  `json:"x"`
	Y       int32  `json:"y"`
	Z       int32  `json:"z"`
	Removed bool   `json:"removed"`
	Layer   string `json:"layer,omitempty"`
}

func (s *Server) handleRemoveVoxel(ctx context.Context, call *Call) (any, *rpc.Error) {
	args := newArgs(call.Request.Params)
	pos, rpcErr := args.pos()
	if rpcErr != nil {
		return nil, rpcErr
	}
	layerName, rpcErr := args.optionalString("layer", "")
	if rpcErr != nil {
		return nil, rpcErr
	}

	return s.withDocument(call, func(*document.Token) (any, *rpc.Error) {
		removed, err := s.engine.RemoveVoxel(layerName, pos)
		if err != nil {
			return nil, engineError(err)
		}
		return removeVoxelResult{
			X:       pos.X,
			Y:       pos.Y,
			Z:       pos.Z,
			Removed: removed,
			Layer:   layerName,
		}, nil
	})
}

type getVoxelResult struct {
	X      int32  `json:"x"`
	Y      int32  `json:"y"`
	Z      int32  `json:"z"`
	Exists bool   `json:"exists"`
	Color  string `json:"color,omitempty"`
}

// handleGetVoxel reads one voxel. Reads hold the token like mutations
// do: a read never observes a half-applied batch.
func (s *Server) handleGetVoxel(ctx context.Context, call *Call) (any, *rpc.Error) {
	args := newArgs(call.Request.Params)
	pos, rpcErr := args.pos()
	if rpcErr != nil {
		return nil, rpcErr
	}
	layerName, rpcErr := args.optionalString("layer", "")
	if rpcErr != nil {
		return nil, rpcErr
	}

	return s.withDocument(call, func(*document.Token) (any, *rpc.Error) {
		color, exists, err := s.engine.GetVoxel(layerName, pos)
		if err != nil {
			return nil, engineError(err)
		}
		result := getVoxelResult{X: pos.X, Y: pos.Y, Z: pos.Z, Exists: exists}
		if exists {
			result.Color = color.String()
		}
		return result, nil
	})
}

// batchOperation is one entry of a vox.batch_operations list.
type batchOperation struct {
	Type  string `json:"type"`
	X     *int32 `json:"x"`
	Y     *int32 `json:"y"`
	Z     *int32 `json:"z"`
	Color string `json:"color"`
	Layer string `json:"layer"`
}

type batchFailure struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

type batchResult struct {
	Applied int            `json:"applied"`
	Failed  int            `json:"failed"`
	Errors  []batchFailure `json:"errors,omitempty"`
}

// handleBatchOperations applies a list of add/remove entries under one
// token. Entries are independent: a failed entry is recorded and the
// rest still apply. The token is touched per entry, so a long batch
// stays visible to the idle sweep as active work.
func (s *Server) handleBatchOperations(ctx context.Context, call *Call) (any, *rpc.Error) {
	args := newArgs(call.Request.Params)
	raw, ok := args.raw("operations")
	if !ok {
		return nil, missingParam("operations")
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, rpc.Errorf(rpc.CodeInvalidParams, "parameter \"operations\" must be an array")
	}

	return s.withDocument(call, func(token *document.Token) (any, *rpc.Error) {
		if !s.engine.Stats().Open {
			return nil, engineError(document.ErrNoProject)
		}
		var result batchResult
		for i, entry := range entries {
			if err := token.Touch(); err != nil {
				return nil, engineError(err)
			}
			if message := s.applyBatchOperation(entry); message != "" {
				result.Failed++
				result.Errors = append(result.Errors, batchFailure{Index: i, Error: message})
				continue
			}
			result.Applied++
		}
		return result, nil
	})
}

// applyBatchOperation runs one batch entry against the engine and
// returns an error message, or "" on success.
func (s *Server) applyBatchOperation(entry json.RawMessage) string {
	var op batchOperation
	if err := json.Unmarshal(entry, &op); err != nil {
		return fmt.Sprintf("not an operation object: %v", err)
	}
	if op.X == nil || op.Y == nil || op.Z == nil {
		return "missing x, y, or z"
	}
	pos := document.Pos{X: *op.X, Y: *op.Y, Z: *op.Z}
	switch op.Type {
	case "add":
		color := defaultVoxelColor
		if op.Color != "" {
			parsed, err := document.ParseColor(op.Color)
			if err != nil {
				return err.Error()
			}
			color = parsed
		}
		if err := s.engine.AddVoxel(op.Layer, pos, color); err != nil {
			return err.Error()
		}
	case "remove":
		if _, err := s.engine.RemoveVoxel(op.Layer, pos); err != nil {
			return err.Error()
		}
	default:
		return fmt.Sprintf("unknown operation type %q", op.Type)
	}
	return ""
}

type createLayerResult struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func (s *Server) handleCreateLayer(ctx context.Context, call *Call) (any, *rpc.Error) {
	args := newArgs(call.Request.Params)
	name, rpcErr := args.requireString("name")
	if rpcErr != nil {
		return nil, rpcErr
	}

	return s.withDocument(call, func(*document.Token) (any, *rpc.Error) {
		if err := s.engine.CreateLayer(name); err != nil {
			return nil, engineError(err)
		}
		return createLayerResult{Name: name, Count: s.engine.Stats().Layers}, nil
	})
}

type layerView struct {
	Name    string `json:"name"`
	Visible bool   `json:"visible"`
	Voxels  int    `json:"voxels"`
	Active  bool   `json:"active"`
}

type layersResult struct {
	Count  int         `json:"count"`
	Layers []layerView `json:"layers"`
}

func (s *Server) handleListLayers(ctx context.Context, call *Call) (any, *rpc.Error) {
	return s.withDocument(call, func(*document.Token) (any, *rpc.Error) {
		infos, err := s.engine.Layers()
		if err != nil {
			return nil, engineError(err)
		}
		layers := make([]layerView, 0, len(infos))
		for _, info := range infos {
			layers = append(layers, layerView{
				Name:    info.Name,
				Visible: info.Visible,
				Voxels:  info.Voxels,
				Active:  info.Active,
			})
		}
		return layersResult{Count: len(layers), Layers: layers}, nil
	})
}

type guardView struct {
	Locked  bool   `json:"locked"`
	Owner   string `json:"owner,omitempty"`
	HeldFor string `json:"held_for,omitempty"`
	IdleFor string `json:"idle_for,omitempty"`
}

type boxView struct {
	Min [3]int32 `json:"min"`
	Max [3]int32 `json:"max"`
}

type documentView struct {
	Open   bool     `json:"open"`
	Name   string   `json:"name,omitempty"`
	Width  int      `json:"width,omitempty"`
	Height int      `json:"height,omitempty"`
	Depth  int      `json:"depth,omitempty"`
	Layers int      `json:"layers,omitempty"`
	Voxels int      `json:"voxels,omitempty"`
	Dirty  bool     `json:"dirty,omitempty"`
	Path   string   `json:"path,omitempty"`
	Bounds *boxView `json:"bounds,omitempty"`
}

type statusResult struct {
	Version     string           `json:"version"`
	Protocol    string           `json:"protocol"`
	Uptime      string           `json:"uptime"`
	Guard       guardView        `json:"guard"`
	Document    documentView     `json:"document"`
	Counters    StatsSnapshot    `json:"counters"`
	Connections []ConnectionInfo `json:"connections"`
}

// handleGetStatus reports the daemon's health surface. It takes no
// token: everything it reads comes from synchronized snapshots.
func (s *Server) handleGetStatus(ctx context.Context, call *Call) (any, *rpc.Error) {
	guard := s.guard.Status()
	view := guardView{Locked: guard.Locked}
	if guard.Locked {
		view.Owner = guard.Owner
		view.HeldFor = guard.HeldFor.Round(time.Millisecond).String()
		view.IdleFor = guard.IdleFor.Round(time.Millisecond).String()
	}
	return statusResult{
		Version:     version.Short(),
		Protocol:    rpc.ProtocolVersion,
		Uptime:      s.clock.Now().Sub(s.started).Round(time.Second).String(),
		Guard:       view,
		Document:    documentViewOf(s.engine.Stats()),
		Counters:    s.stats.snapshot(),
		Connections: s.connInfos(),
	}, nil
}

func documentViewOf(stats document.Stats) documentView {
	view := documentView{
		Open:   stats.Open,
		Name:   stats.Name,
		Width:  stats.Width,
		Height: stats.Height,
		Depth:  stats.Depth,
		Layers: stats.Layers,
		Voxels: stats.Voxels,
		Dirty:  stats.Dirty,
		Path:   stats.Path,
	}
	if stats.Bounds != nil {
		view.Bounds = &boxView{
			Min: [3]int32{stats.Bounds.Min.X, stats.Bounds.Min.Y, stats.Bounds.Min.Z},
			Max: [3]int32{stats.Bounds.Max.X, stats.Bounds.Max.Y, stats.Bounds.Max.Z},
		}
	}
	return view
}

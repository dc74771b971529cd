// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package daemon

import (
	"context"
	"testing"

	"github.com/voxforge/voxd/lib/rpc"
)

func nopHandler(ctx context.Context, call *Call) (any, *rpc.Error) {
	return "ok", nil
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	r.Handle("ping", "liveness", nopHandler)

	if _, ok := r.lookup("ping"); !ok {
		t.Error("lookup(ping) = false, want true")
	}
	if _, ok := r.lookup("pong"); ok {
		t.Error("lookup(pong) = true, want false")
	}
}

func TestRegistryDuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Handle("ping", "", nopHandler)

	defer func() {
		if recover() == nil {
			t.Fatal("registering ping twice did not panic")
		}
	}()
	r.Handle("ping", "", nopHandler)
}

func TestRegistryMethodsSorted(t *testing.T) {
	r := NewRegistry()
	r.Handle("zeta", "last", nopHandler)
	r.Handle("alpha", "first", nopHandler)
	r.Handle("mid", "middle", nopHandler)

	infos := r.methods()
	if len(infos) != 3 {
		t.Fatalf("methods() returned %d entries, want 3", len(infos))
	}
	want := []string{"alpha", "mid", "zeta"}
	for i, info := range infos {
		if info.Method != want[i] {
			t.Errorf("methods()[%d] = %q, want %q", i, info.Method, want[i])
		}
	}
	if infos[0].Description != "first" {
		t.Errorf("methods()[0].Description = %q, want %q", infos[0].Description, "first")
	}
}

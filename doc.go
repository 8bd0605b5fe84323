// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package rdg implements a render dependency graph: a per-frame, declarative
// description of GPU rendering work that compiles into a correctly
// synchronized command buffer submission.
//
// A caller builds a [Graph] for the frame, declares passes with their
// resource reads and writes, and calls [Graph.Execute]. The graph analyzes
// the declared passes, culls dead work, allocates and aliases transient
// textures and buffers, synthesizes the barriers needed between passes, and
// records and submits one command buffer.
//
// # Architecture
//
// The graph is organized, leaves-first, as:
//
//  1. Handles and descriptors ([TextureHandle], [BufferHandle], [TextureDescriptor], [BufferDescriptor])
//  2. The resource registry and aliasing pool ([AliasingPool])
//  3. The pass recorder ([PassRef])
//  4. The compiler (Graph.compile, internal)
//  5. The executor (Graph.Execute)
//  6. The frame synchronization manager ([FrameSyncManager])
//
// Graph is a single owning type: recording, compiling and executing are all
// methods on the same value, rather than a thin public builder forwarding to
// a private compiler object. A graph is single-use - build a fresh one every
// frame.
//
// # Collaborators
//
// The graph is driven against a small set of interfaces ([CommandPoolManager],
// [Allocator]) plus the existing [github.com/gogpu/rdg/hal] collaborator
// interfaces (hal.Device, hal.Queue, hal.Surface). It does not manage
// devices, swapchains, pipelines, or scene data - those remain the caller's
// responsibility.
package rdg

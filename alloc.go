// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package jevent

import "github.com/creachadair/jevent/internal/buffer"

// AllocFuncs overrides the storage allocation of a Parser or Generator.
// All three functions must be set; a handle uses them for every buffer it
// owns, from construction until Close.
type AllocFuncs struct {
	// Malloc returns a slice of length n.
	Malloc func(n int) []byte

	// Realloc returns a slice of length n whose prefix is a copy of p.
	Realloc func(p []byte, n int) []byte

	// Free releases p.
	Free func(p []byte)
}

func (a *AllocFuncs) valid() bool {
	return a.Malloc != nil && a.Realloc != nil && a.Free != nil
}

// allocFuncs adapts an AllocFuncs to the buffer.Allocator interface.
type allocFuncs struct{ f *AllocFuncs }

func (a allocFuncs) Malloc(n int) []byte            { return a.f.Malloc(n) }
func (a allocFuncs) Realloc(p []byte, n int) []byte { return a.f.Realloc(p, n) }
func (a allocFuncs) Free(p []byte)                  { a.f.Free(p) }

// newAllocator returns the allocator selected by a, or reports
// ErrBadAllocator if a is incomplete.
func newAllocator(a *AllocFuncs) (buffer.Allocator, error) {
	if a == nil {
		return buffer.Default, nil
	} else if !a.valid() {
		return nil, ErrBadAllocator
	}
	return allocFuncs{a}, nil
}

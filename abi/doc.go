// Package abi exposes object instances and GFile slots to WebAssembly
// guests as a wazero host module.
//
// Guests never see Go values. Every instance crosses the boundary as an
// i32 handle from a resource.Table, and each handle owns one reference.
// The calling convention is:
//
//   - the instance handle comes first
//   - booleans are i32 (0 or 1)
//   - strings are a (ptr, len) pair in the caller's memory
//   - fallible functions end their results with an i32 error code, 0 on
//     success, otherwise errors.Kind.Code of the failure
//
// A handle is borrowed from the table for the duration of a call, so a
// concurrent object-unref of the same handle fails with the failed code
// instead of releasing the instance mid-call.
//
// Build the module once per runtime:
//
//	table := resource.NewTable()
//	defer table.Close()
//	mod, err := abi.NewHostModule(ctx, rt, table, abi.DefaultOptions())
package abi

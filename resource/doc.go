// Package resource provides integer handles for object instances.
//
// Code that cannot hold Go values, such as a guest module calling through
// package abi, refers to instances by Handle. The Table owns one reference
// per live handle:
//
//	table := resource.NewTable()
//	h := table.Insert(obj) // table takes its own reference
//	o, ok := table.Get(h)  // borrowed, no count change
//	_ = table.Drop(h)      // releases the table's reference
//
// Take removes a handle and hands its reference to the caller instead.
// Borrow pins a handle for the duration of a call so that a concurrent Drop
// fails rather than freeing the instance underneath it.
//
// Handles are reused after they are dropped. Close releases everything.
package resource

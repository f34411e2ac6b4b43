// Package file defines the GFile interface and the machinery that lets
// object classes implement it.
//
// A class attaches the interface with Implementation, naming the type of its
// per-instance implementation object. Each optional XxxImpl interface that
// type satisfies overrides one slot; every other slot chains to the class
// above through the matching ParentXxx helper. When no class in the chain
// implements a slot its default applies:
//
//   - identity and path slots (Dup, Hash, Equal, Path, URI, ...) panic,
//     since every file type must answer them
//   - I/O slots (QueryInfo, Read, Create, Delete, ...) fail with a
//     not_supported error
//   - QueryExists, FindEnclosingMount, QuerySettableAttributes,
//     QueryWritableNamespaces and SetAttributesFromInfo fall back to a
//     generic implementation
//
// Copy and Move take two files. The source's class is asked first, then
// the destination's; Copy and Move then fall back to streaming and to
// copy-plus-delete respectively.
//
// NewForPath and NewForURI create files of LocalType, which implements the
// interface on top of package os.
package file

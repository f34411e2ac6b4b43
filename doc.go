// Package gobjectruntime is a Go implementation of the GObject type and
// object system together with the subclassing layer of the GIO File
// interface.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	gobjectruntime/
//	├── errors/          Structured error types with phases and kinds
//	├── gtype/           Type registry: hierarchy, interfaces, classes, vtables
//	├── value/           Dynamically typed values and conversions
//	├── param/           Property specifications and canonical names
//	├── signal/          Signal registry, handler lists and emission
//	├── object/          Refcounted instances, weak refs, properties, casts
//	├── mainloop/        Cooperative main contexts and loops
//	├── task/            Asynchronous results delivered on a main context
//	├── file/            GFile interface, subclass dispatch, local files
//	├── resource/        Integer handle table owning instance references
//	├── abi/             wazero host module over the handle table
//	└── cmd/gobject-inspect  Type and file inspector CLI
//
// # Quick Start
//
// Register a type implementing the File interface and use it through the
// File view:
//
//	t := object.MustRegisterType(object.TypeInfo{
//	    Name:       "MyFile",
//	    Parent:     object.Type(),
//	    NewImpl:    func() any { return &myFile{} },
//	    Interfaces: []object.InterfaceImpl{file.Implementation[*myFile]()},
//	})
//
//	f := file.File{Object: object.MustNew(t, object.P("path", "/tmp/x"))}
//	defer f.Unref()
//
//	if err := file.Copy(ctx, f, dst, file.CopyOverwrite, nil); err != nil {
//	    log.Fatal(err)
//	}
//
// Slots the implementation leaves out fall back to the parent type, then to
// the slot's default policy: a panic for required slots, a not_supported
// error for optional ones, or a generic implementation where one exists.
//
// # Thread Safety
//
// Registries, instances and handle tables are safe for concurrent use.
// Signal handlers connected with ConnectLocal and task callbacks run on the
// main context they were bound to.
//
// # Foreign Callers
//
// WebAssembly guests reach instances through abi.NewHostModule. Each
// instance crosses the boundary as an i32 handle from a resource.Table and
// failures come back as the i32 code of their error kind.
package gobjectruntime

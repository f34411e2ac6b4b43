// Package object implements reference counted instances of registered
// classes: construction, properties with change notification, per-instance
// signal handlers and typed views.
//
// A class is registered once with its property specs, signals, interface
// vtables and a factory for the per-level implementation object:
//
//	var counterType = object.MustRegisterType(object.TypeInfo{
//		Name:       "Counter",
//		Properties: []*param.Spec{param.NewInt("count", "", "", 0, 100, 0, param.FlagReadWrite)},
//		NewImpl:    func() any { return &counterImpl{} },
//	})
//
// Instances are created with New and released with Unref. Typed views are
// structs embedding Object whose StaticType names the class:
//
//	type Counter struct{ object.Object }
//
//	func (Counter) StaticType() gtype.Type { return counterType }
//
//	o, _ := object.New(counterType, object.P("count", 3))
//	c, ok := object.Downcast[Counter](o)
//
// Views share the handle's reference; casting never changes the count.
package object

// Package value implements dynamically typed values used by properties and
// signals.
//
// A Value pairs Go data with a declared gtype.Type. Scalars map to fixed Go
// types (gint is int32, gdouble is float64 and so on); object and interface
// typed values hold an Instance and may be NULL.
//
// Coerce applies the one widening rule of the object model: a value holding
// an instance may be stored where its declared type does not match, as long
// as the instance's runtime type is-a the target type.
package value

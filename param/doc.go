// Package param describes properties: canonical names, declared value types,
// access flags, defaults and numeric ranges.
//
// Specs are created with the typed constructors and installed on a class by
// the object package:
//
//	path := param.NewString("path", "Path", "Location of the file", "",
//		param.FlagReadWrite|param.FlagConstructOnly)
//	size := param.NewUint64("size", "", "", 0, math.MaxUint64, 0, param.FlagReadWrite)
//
// Validate clamps numeric values into range. Whether a clamped value is
// stored or rejected is decided by the caller from FlagLaxValidation.
package param

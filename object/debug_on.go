//go:build gobject_debug

package object

const debugChecks = true

// Package attr defines the tagged value type carried by mutation requests
// and compiled operation descriptors.
//
// Value is a sealed interface with six variants: Null, String, Number, Bool,
// List, and Map. Numbers are decimal strings, matching the store's wire
// convention; the compiler never does arithmetic on them. The package also
// provides the store wire encoding (attribute-tagged JSON) and a canonical
// serialization used wherever byte-identical output matters.
package attr

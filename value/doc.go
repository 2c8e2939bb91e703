// Package value defines the runtime representation of data.
//
// Values are immutable and carry no type: the same Record may inhabit many
// record types. Use Check to validate a value against a type, and Absent to
// obtain the stand-in for a missing opt-like field.
package value

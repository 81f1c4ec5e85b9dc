// Package compiler turns story files into validated tick configurations.
//
// Sources are YAML (or JSON, which YAML accepts) decoded into a generic map and
// then into the dto structs with mapstructure, so both formats share one set of
// field names and the same weak typing rules.
package compiler

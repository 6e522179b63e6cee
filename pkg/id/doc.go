// Package id generates identifiers used on the wire: unique reading ids,
// readable sensor ids, and per-process bus client ids.
package id

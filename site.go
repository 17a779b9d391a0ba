package odo

import "golang.org/x/text/unicode/norm"

// site identifies the place in the caller's code where a parameter is
// declared. It is never used as a value; the engine only compares sites to
// detect whether a re-execution re-declares the same logical parameter at a
// position, or a different one.
//
// Two sites match when their refs are identical (the *Param handle pointer,
// stable across executions when the handle is created once), or when their
// NFC-normalized names are equal. The name fallback covers handles
// recreated inline on every block execution, where reference identity is
// unavailable; it is a documented weaker guarantee, not a design goal.
type site struct {
	ref  any
	name string
}

// matches reports whether two sites identify the same declaration.
func (s site) matches(other site) bool {
	if s.ref != nil && s.ref == other.ref {
		return true
	}
	return norm.NFC.String(s.name) == norm.NFC.String(other.name)
}

package timeslot

import (
	"errors"
	"time"
)

// Origin describes where a timestamp's zone information came from. Callers at
// system boundaries are expected to tag every timestamp explicitly instead of
// relying on an implicit default.
type Origin int

const (
	// OriginUnspecified marks a timestamp whose zone provenance is unknown.
	OriginUnspecified Origin = iota
	// OriginUTC marks a timestamp already expressed in the storage zone.
	OriginUTC
	// OriginLocal marks a timestamp expressed in the display zone.
	OriginLocal
)

// ErrUnspecifiedOrigin flags a timestamp that arrived without an explicit
// origin. The normalizer still converts it (treating it as display-zone by
// policy) so the value is not lost, but callers should surface the ambiguity.
var ErrUnspecifiedOrigin = errors.New("timeslot: timestamp origin unspecified, assuming display zone")

// Normalizer converts timestamps between the storage zone (UTC) and a
// configured display zone so range comparisons always happen in one canonical
// zone.
type Normalizer struct {
	display *time.Location
}

// NewNormalizer returns a normalizer for the given display zone. A nil
// location falls back to time.Local.
func NewNormalizer(display *time.Location) *Normalizer {
	if display == nil {
		display = time.Local
	}
	return &Normalizer{display: display}
}

// DisplayZone returns the configured display location.
func (n *Normalizer) DisplayZone() *time.Location {
	if n == nil || n.display == nil {
		return time.Local
	}
	return n.display
}

// ToStorage converts t to the storage zone (UTC) according to its declared
// origin. Timestamps with OriginUnspecified are reinterpreted in the display
// zone and returned together with ErrUnspecifiedOrigin; the converted value
// remains valid.
func (n *Normalizer) ToStorage(t time.Time, origin Origin) (time.Time, error) {
	switch origin {
	case OriginUTC:
		return t.UTC(), nil
	case OriginLocal:
		return n.reinterpret(t).UTC(), nil
	default:
		return n.reinterpret(t).UTC(), ErrUnspecifiedOrigin
	}
}

// SlotToStorage converts both bounds of a slot to the storage zone.
func (n *Normalizer) SlotToStorage(s Slot, origin Origin) (Slot, error) {
	start, err := n.ToStorage(s.Start, origin)
	end, endErr := n.ToStorage(s.End, origin)
	if err == nil {
		err = endErr
	}
	return Slot{Start: start, End: end}, err
}

// ToDisplay converts a stored timestamp to the display zone.
func (n *Normalizer) ToDisplay(t time.Time) time.Time {
	return t.In(n.DisplayZone())
}

// reinterpret rebuilds t's wall-clock reading in the display zone. Inputs
// declared local often arrive parsed as UTC by encoders that had no zone to
// work with, so the wall clock is what carries meaning, not the instant.
func (n *Normalizer) reinterpret(t time.Time) time.Time {
	year, month, day := t.Date()
	hour, minute, second := t.Clock()
	return time.Date(year, month, day, hour, minute, second, t.Nanosecond(), n.DisplayZone())
}

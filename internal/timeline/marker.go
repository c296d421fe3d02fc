package timeline

import (
	"slices"

	"karolbroda.com/kinetic/internal/logging"
)

// Marker is a named position on a timeline.
type Marker struct {
	Name string
	At   uint32
}

// MarkerListener is implemented by listeners that want marker-reached.
type MarkerListener interface {
	OnMarker(tl *Timeline, name string, at uint32)
}

// AddMarker places a marker at ms. Names are unique; adding an existing name
// moves it.
func (t *Timeline) AddMarker(name string, ms uint32) {
	t.RemoveMarker(name)
	t.markers = append(t.markers, Marker{Name: name, At: ms})
	slices.SortFunc(t.markers, func(a, b Marker) int { return int(a.At) - int(b.At) })
}

func (t *Timeline) RemoveMarker(name string) {
	t.markers = slices.DeleteFunc(t.markers, func(m Marker) bool { return m.Name == name })
}

func (t *Timeline) HasMarker(name string) bool {
	return slices.ContainsFunc(t.markers, func(m Marker) bool { return m.Name == name })
}

// Markers returns the markers sorted by position.
func (t *Timeline) Markers() []Marker {
	return slices.Clone(t.markers)
}

// AdvanceToMarker seeks to the named marker without emitting a frame.
func (t *Timeline) AdvanceToMarker(name string) bool {
	for _, m := range t.markers {
		if m.Name == name {
			t.Advance(m.At)
			return true
		}
	}
	logging.Logger().Warn("no marker with that name", "marker", name)
	return false
}

// checkMarkers fires every marker passed while moving from prev to cur.
// The start position is exclusive and the end position inclusive.
func (t *Timeline) checkMarkers(prev, cur int64) {
	if len(t.markers) == 0 {
		return
	}

	var hit []Marker
	for _, m := range t.markers {
		at := int64(m.At)
		if prev < cur && at > prev && at <= cur {
			hit = append(hit, m)
		}
		if prev > cur && at < prev && at >= cur {
			hit = append(hit, m)
		}
	}

	for _, m := range hit {
		for _, l := range t.snapshot() {
			if ml, ok := l.(MarkerListener); ok {
				ml.OnMarker(t, m.Name, m.At)
			}
		}
	}
}

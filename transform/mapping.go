package transform

// Mappable is anything that maps positions: a single StepMap or a Mapping.
type Mappable interface {
	// Map maps pos. assoc decides which side a position at an insertion
	// point sticks to: negative stays before, positive moves after.
	Map(pos, assoc int) int
	MapResult(pos, assoc int) MapResult
}

// MapResult is a mapped position with deletion information.
type MapResult struct {
	Pos int
	// Deleted is set when the content on the assoc side of the position was
	// deleted.
	Deleted bool
	// DeletedAcross is set when the position was strictly inside a replaced
	// range.
	DeletedAcross bool
}

// StepMap describes the position changes of one step as a list of
// (start, oldSize, newSize) triples in ascending order.
type StepMap struct {
	ranges   []int
	inverted bool
}

// EmptyStepMap changes nothing.
var EmptyStepMap = StepMap{}

// NewStepMap builds a map from flattened (start, oldSize, newSize) triples.
func NewStepMap(ranges ...int) StepMap {
	if len(ranges)%3 != 0 {
		panic("transform: step map ranges must be triples")
	}
	return StepMap{ranges: ranges}
}

// Empty reports whether m changes no positions.
func (m StepMap) Empty() bool { return len(m.ranges) == 0 }

func (m StepMap) Map(pos, assoc int) int { return m.mapPos(pos, assoc).Pos }

func (m StepMap) MapResult(pos, assoc int) MapResult { return m.mapPos(pos, assoc) }

func (m StepMap) mapPos(pos, assoc int) MapResult {
	diff := 0
	oldIndex, newIndex := 1, 2
	if m.inverted {
		oldIndex, newIndex = 2, 1
	}
	for i := 0; i < len(m.ranges); i += 3 {
		start := m.ranges[i]
		if m.inverted {
			start -= diff
		}
		if start > pos {
			break
		}
		oldSize, newSize := m.ranges[i+oldIndex], m.ranges[i+newIndex]
		end := start + oldSize
		if pos <= end {
			side := assoc
			if oldSize > 0 {
				switch pos {
				case start:
					side = -1
				case end:
					side = 1
				}
			}
			result := start + diff
			if side >= 0 {
				result += newSize
			}
			deleted := pos != end
			if assoc < 0 {
				deleted = pos != start
			}
			if oldSize == 0 {
				deleted = false
			}
			return MapResult{Pos: result, Deleted: deleted, DeletedAcross: pos != start && pos != end}
		}
		diff += newSize - oldSize
	}
	return MapResult{Pos: pos + diff}
}

// ForEach calls fn for every changed range with its old and new extent.
func (m StepMap) ForEach(fn func(oldStart, oldEnd, newStart, newEnd int)) {
	oldIndex, newIndex := 1, 2
	if m.inverted {
		oldIndex, newIndex = 2, 1
	}
	diff := 0
	for i := 0; i < len(m.ranges); i += 3 {
		start := m.ranges[i]
		oldStart := start
		if m.inverted {
			oldStart = start - diff
		}
		newStart := oldStart + diff
		oldSize, newSize := m.ranges[i+oldIndex], m.ranges[i+newIndex]
		fn(oldStart, oldStart+oldSize, newStart, newStart+newSize)
		diff += newSize - oldSize
	}
}

// Invert returns the map from the new document back to the old one.
func (m StepMap) Invert() StepMap { return StepMap{ranges: m.ranges, inverted: !m.inverted} }

// Mapping is an ordered pipeline of step maps.
type Mapping struct {
	maps []StepMap
}

// NewMapping builds a mapping from maps.
func NewMapping(maps ...StepMap) *Mapping {
	return &Mapping{maps: append([]StepMap(nil), maps...)}
}

// Maps returns the step maps in order.
func (m *Mapping) Maps() []StepMap { return append([]StepMap(nil), m.maps...) }

func (m *Mapping) Len() int { return len(m.maps) }

// AppendMap adds a step map at the end.
func (m *Mapping) AppendMap(sm StepMap) { m.maps = append(m.maps, sm) }

// AppendMapping adds every map of o at the end.
func (m *Mapping) AppendMapping(o *Mapping) {
	if o == nil {
		return
	}
	m.maps = append(m.maps, o.maps...)
}

// Slice returns the maps in [from, to).
func (m *Mapping) Slice(from, to int) *Mapping {
	from = max(0, min(from, len(m.maps)))
	to = max(from, min(to, len(m.maps)))
	return NewMapping(m.maps[from:to]...)
}

// Invert returns the mapping from the final document back to the first.
func (m *Mapping) Invert() *Mapping {
	out := &Mapping{maps: make([]StepMap, len(m.maps))}
	for i, sm := range m.maps {
		out.maps[len(m.maps)-1-i] = sm.Invert()
	}
	return out
}

func (m *Mapping) Map(pos, assoc int) int {
	for _, sm := range m.maps {
		pos = sm.Map(pos, assoc)
	}
	return pos
}

// MapResult maps pos through every map; Deleted is set if any map deleted
// it.
func (m *Mapping) MapResult(pos, assoc int) MapResult {
	var out MapResult
	out.Pos = pos
	for _, sm := range m.maps {
		r := sm.MapResult(out.Pos, assoc)
		out.Pos = r.Pos
		out.Deleted = out.Deleted || r.Deleted
		out.DeletedAcross = out.DeletedAcross || r.DeletedAcross
	}
	return out
}

// Touches reports whether any map changed content inside [from, to), or
// inserted content strictly inside it. Positions are in the coordinate
// space before the mapping.
func (m *Mapping) Touches(from, to int) bool {
	for _, sm := range m.maps {
		hit := false
		sm.ForEach(func(oldStart, oldEnd, _, _ int) {
			if hit {
				return
			}
			if oldEnd > oldStart {
				hit = oldStart < to && oldEnd > from
			} else {
				hit = oldStart > from && oldStart < to
			}
		})
		if hit {
			return true
		}
		from = sm.Map(from, 1)
		to = sm.Map(to, -1)
		if to < from {
			return true
		}
	}
	return false
}

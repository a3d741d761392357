package internal

// Point is a normalized unit-square coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one continuous drawing gesture. Immutable once appended.
type Stroke struct {
	Points []Point `json:"points"`
	Color  string  `json:"color"`
	Width  int     `json:"width"`
}

// StrokeLog is the room's append-only stroke list plus a linear undo
// stack. Log order is the single source of truth for canvas replay.
// Not self-locking; callers hold the room lock.
type StrokeLog struct {
	strokes []Stroke
	undone  []Stroke
}

// Append records a stroke and clears the undo stack: a fresh stroke
// invalidates any pending redo.
func (l *StrokeLog) Append(s Stroke) {
	l.strokes = append(l.strokes, s)
	l.undone = nil
}

// Undo pops the most recent stroke onto the undo stack.
func (l *StrokeLog) Undo() (Stroke, bool) {
	if len(l.strokes) == 0 {
		return Stroke{}, false
	}
	last := l.strokes[len(l.strokes)-1]
	l.strokes = l.strokes[:len(l.strokes)-1]
	l.undone = append(l.undone, last)
	return last, true
}

// Redo reverses the most recent undo.
func (l *StrokeLog) Redo() (Stroke, bool) {
	if len(l.undone) == 0 {
		return Stroke{}, false
	}
	last := l.undone[len(l.undone)-1]
	l.undone = l.undone[:len(l.undone)-1]
	l.strokes = append(l.strokes, last)
	return last, true
}

// Clear empties both the log and the undo stack.
func (l *StrokeLog) Clear() {
	l.strokes = nil
	l.undone = nil
}

func (l *StrokeLog) Len() int { return len(l.strokes) }

// Snapshot returns the ordered stroke list for replay.
func (l *StrokeLog) Snapshot() []Stroke {
	out := make([]Stroke, len(l.strokes))
	copy(out, l.strokes)
	return out
}

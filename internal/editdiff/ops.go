package editdiff

// OpKind classifies one schedule operation.
type OpKind int

const (
	// OpKeep marks a persisted row that is unchanged; it has no wire
	// effect.
	OpKeep OpKind = iota
	// OpRemove deletes a persisted row that disappeared from the form.
	OpRemove
	// OpAdd inserts a row that has never been persisted.
	OpAdd
	// OpReplace is a persisted row whose fields changed; on the wire it
	// flattens to a removal of the old id plus an insert of the new
	// fields.
	OpReplace
)

// ScheduleOp is one tagged operation against the persisted schedule set.
type ScheduleOp struct {
	Kind OpKind
	ID   int64
	Row  ScheduleRow
}

// ScheduleOps diffs the persisted snapshot rows against the current form
// rows (already stripped of the reserved entry row) into an explicit
// operation list. Incomplete new rows are ignored; incomplete edits of
// persisted rows still count as changes.
func ScheduleOps(initial, current []ScheduleRow) []ScheduleOp {
	initialByID := make(map[int64]ScheduleRow, len(initial))
	for _, row := range initial {
		if row.ID != 0 {
			initialByID[row.ID] = row
		}
	}
	currentIDs := make(map[int64]bool, len(current))
	for _, row := range current {
		if row.ID != 0 {
			currentIDs[row.ID] = true
		}
	}

	var ops []ScheduleOp

	// Persisted rows that vanished from the form.
	for _, row := range initial {
		if row.ID != 0 && !currentIDs[row.ID] {
			ops = append(ops, ScheduleOp{Kind: OpRemove, ID: row.ID, Row: row})
		}
	}

	for _, row := range current {
		if row.ID == 0 {
			if row.complete() {
				ops = append(ops, ScheduleOp{Kind: OpAdd, Row: row})
			}
			continue
		}
		before, known := initialByID[row.ID]
		if !known {
			continue
		}
		if before.Date != row.Date || before.Start != row.Start || before.End != row.End {
			ops = append(ops, ScheduleOp{Kind: OpReplace, ID: row.ID, Row: row})
		} else {
			ops = append(ops, ScheduleOp{Kind: OpKeep, ID: row.ID, Row: row})
		}
	}

	return ops
}

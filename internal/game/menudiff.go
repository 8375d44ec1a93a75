package game

import "github.com/audioroom/backend/internal/protocol"

// The menu-diff engine computes the minimal operation stream that turns
// an old item list into a new one, so the client can patch its menu in
// place instead of rebuilding it and disrupting the screen reader.
//
// Ops are applied in the order they are emitted: deletes (highest index
// first), then inserts (lowest index first), then updates.

// ComputeMenuOps diffs two item lists. It prefers the id-based
// algorithm when every item on both sides carries a stable id and the
// common ids keep their relative order; otherwise it falls back to an
// LCS diff over item texts.
func ComputeMenuOps(old, new []protocol.MenuItem) []protocol.MenuOp {
	if allHaveIDs(old) && allHaveIDs(new) && sameCommonOrder(old, new) {
		return idDiff(old, new)
	}
	return lcsDiff(old, new)
}

// ApplyMenuOps applies an op stream to a copy of items and returns the
// result. The client does the same; tests use it to check fidelity.
func ApplyMenuOps(items []protocol.MenuItem, ops []protocol.MenuOp) []protocol.MenuItem {
	return applyOps(items, ops)
}

func applyOps(items []protocol.MenuItem, ops []protocol.MenuOp) []protocol.MenuItem {
	out := append([]protocol.MenuItem(nil), items...)
	for _, op := range ops {
		switch op.Op {
		case "delete":
			if op.Index >= 0 && op.Index < len(out) {
				out = append(out[:op.Index], out[op.Index+1:]...)
			}
		case "insert":
			if op.Index < 0 {
				continue
			}
			if op.Index >= len(out) {
				out = append(out, op.Item)
			} else {
				out = append(out[:op.Index+1], out[op.Index:]...)
				out[op.Index] = op.Item
			}
		case "update":
			if op.Index >= 0 && op.Index < len(out) {
				out[op.Index] = op.Item
			}
		}
	}
	return out
}

// AdjustSelection tracks the selected position through an op stream.
// A delete before the selection shifts it up; a delete at the selection
// leaves it pointing at the next item; an insert at or before it shifts
// it down.
func AdjustSelection(ops []protocol.MenuOp, selection, newLen int) int {
	for _, op := range ops {
		switch op.Op {
		case "delete":
			if op.Index < selection {
				selection--
			}
		case "insert":
			if op.Index <= selection {
				selection++
			}
		}
	}
	if selection >= newLen {
		selection = newLen - 1
	}
	if selection < 0 {
		selection = 0
	}
	return selection
}

func allHaveIDs(items []protocol.MenuItem) bool {
	if len(items) == 0 {
		return true
	}
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if it.ID == "" || seen[it.ID] {
			return false
		}
		seen[it.ID] = true
	}
	return true
}

// sameCommonOrder reports whether the ids present in both lists appear
// in the same relative order. The id diff cannot express reorders.
func sameCommonOrder(old, new []protocol.MenuItem) bool {
	newIdx := make(map[string]int, len(new))
	for i, it := range new {
		newIdx[it.ID] = i
	}
	last := -1
	for _, it := range old {
		idx, ok := newIdx[it.ID]
		if !ok {
			continue
		}
		if idx < last {
			return false
		}
		last = idx
	}
	return true
}

func idDiff(old, new []protocol.MenuItem) []protocol.MenuOp {
	oldByID := make(map[string]protocol.MenuItem, len(old))
	for _, it := range old {
		oldByID[it.ID] = it
	}
	newIDs := make(map[string]bool, len(new))
	for _, it := range new {
		newIDs[it.ID] = true
	}

	var ops []protocol.MenuOp

	// Deletes, highest old index first so earlier indices stay valid.
	for i := len(old) - 1; i >= 0; i-- {
		if !newIDs[old[i].ID] {
			ops = append(ops, protocol.MenuOp{Op: "delete", Index: i})
		}
	}

	// Inserts in new-index order.
	for i, it := range new {
		if _, existed := oldByID[it.ID]; !existed {
			ops = append(ops, protocol.MenuOp{Op: "insert", Index: i, Item: it})
		}
	}

	// Updates for common ids whose text changed.
	for i, it := range new {
		if prev, existed := oldByID[it.ID]; existed && prev.Text != it.Text {
			ops = append(ops, protocol.MenuOp{Op: "update", Index: i, Item: it})
		}
	}

	return ops
}

func lcsDiff(old, new []protocol.MenuItem) []protocol.MenuOp {
	// Equal-length lists with non-structural changes: updates only.
	if len(old) == len(new) {
		structural := false
		for i := range old {
			if old[i].ID != new[i].ID {
				structural = true
				break
			}
		}
		if !structural {
			var ops []protocol.MenuOp
			for i := range new {
				if old[i].Text != new[i].Text {
					ops = append(ops, protocol.MenuOp{Op: "update", Index: i, Item: new[i]})
				}
			}
			return ops
		}
	}

	n, m := len(old), len(new)
	// Longest-common-subsequence table over item texts.
	table := make([][]int, n+1)
	for i := range table {
		table[i] = make([]int, m+1)
	}
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			if itemEqual(old[i-1], new[j-1]) {
				table[i][j] = table[i-1][j-1] + 1
			} else if table[i-1][j] >= table[i][j-1] {
				table[i][j] = table[i-1][j]
			} else {
				table[i][j] = table[i][j-1]
			}
		}
	}

	// Backtrack to delete/insert positions.
	var deletes []int
	var inserts []protocol.MenuOp
	i, j := n, m
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && itemEqual(old[i-1], new[j-1]):
			i--
			j--
		case i > 0 && (j == 0 || table[i-1][j] >= table[i][j-1]):
			deletes = append(deletes, i-1)
			i--
		default:
			inserts = append(inserts, protocol.MenuOp{Op: "insert", Index: j - 1, Item: new[j-1]})
			j--
		}
	}

	// deletes were collected highest-first already; inserts need
	// reversing into ascending new-index order.
	ops := make([]protocol.MenuOp, 0, len(deletes)+len(inserts))
	for _, idx := range deletes {
		ops = append(ops, protocol.MenuOp{Op: "delete", Index: idx})
	}
	for k := len(inserts) - 1; k >= 0; k-- {
		ops = append(ops, inserts[k])
	}
	return ops
}

func itemEqual(a, b protocol.MenuItem) bool {
	return a.Text == b.Text && a.ID == b.ID
}

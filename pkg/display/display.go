// Package display describes the probe's character LCD and provides an
// in-memory implementation of it.
package display

import (
	"strings"
	"sync"
)

const (
	// Cols and Rows are the geometry of the 1602 module on the probe.
	Cols = 16
	Rows = 2
)

// Display is a character display addressed by column and row. Text printed
// past the last column is dropped.
type Display interface {
	Clear()
	SetCursor(col, row uint8)
	Print(text string)
}

// Pad returns text fitted to exactly Cols characters, truncated or padded
// with spaces on the right.
func Pad(text string) string {
	r := []rune(text)
	if len(r) >= Cols {
		return string(r[:Cols])
	}
	return text + strings.Repeat(" ", Cols-len(r))
}

// Buffer is a Display that keeps its contents in memory.
type Buffer struct {
	mu       sync.RWMutex
	cells    [Rows][Cols]rune
	col, row int
	clears   int
}

var _ Display = (*Buffer)(nil)

// NewBuffer returns a cleared buffer.
func NewBuffer() *Buffer {
	b := &Buffer{}
	b.reset()
	return b
}

func (b *Buffer) reset() {
	for r := range b.cells {
		for c := range b.cells[r] {
			b.cells[r][c] = ' '
		}
	}
	b.col, b.row = 0, 0
}

// Clear blanks the display and homes the cursor.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reset()
	b.clears++
}

// SetCursor moves the cursor. Out of range positions are clamped.
func (b *Buffer) SetCursor(col, row uint8) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.col = min(int(col), Cols)
	b.row = min(int(row), Rows-1)
}

// Print writes text at the cursor and advances it.
func (b *Buffer) Print(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range text {
		if b.col >= Cols {
			return
		}
		b.cells[b.row][b.col] = ch
		b.col++
	}
}

// Line returns the contents of row.
func (b *Buffer) Line(row int) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if row < 0 || row >= Rows {
		return ""
	}
	return string(b.cells[row][:])
}

// Lines returns all rows top to bottom.
func (b *Buffer) Lines() []string {
	lines := make([]string, Rows)
	for i := range lines {
		lines[i] = b.Line(i)
	}
	return lines
}

// Clears returns how many times Clear was called.
func (b *Buffer) Clears() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.clears
}

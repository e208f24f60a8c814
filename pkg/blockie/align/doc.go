// Package align provides the column arithmetic behind the auto-align tag.
//
// This package contains pure helper functions extracted from the content
// compositor. They work on plain strings and do not depend on the blockie
// package, so the compositor imports them without a cycle.
//
// # Key Functions
//
// Column: Computes the display column at the end of a text, counting from the
// last newline and expanding tabs to the next tab stop.
//
// Join: Takes one group of sibling clones, each split into segments at its
// align tags, and pads every segment boundary with spaces so the k-th align
// tag sits at the same column in every member of the group.
//
// # Design Principles
//
// Pure Functions: All functions in this package:
//   - Do not maintain state
//   - Do not call back into the blockie package
//   - Can be tested independently
//
// # Usage
//
//	members := [][]string{
//	    {"\n* apples", " 1 kg"},
//	    {"\n* orange juice", " 1 l"},
//	}
//	out := align.Join(members, 8)
//	// out[0] == "\n* apples       1 kg"
//	// out[1] == "\n* orange juice 1 l"
package align

/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package proctree rebuilds the process hierarchy from a flat snapshot of
// (pid, name, parent pid) records.
//
// A snapshot is rarely a single tree: on Linux both init (1) and kthreadd (2)
// report a parent of 0, processes can outlive a parent that was reaped between
// reads, and racing reads can even produce parent cycles. Build always returns
// one rooted tree: the lowest-pid root candidate becomes the root, and every
// other fragment is reparented under it and listed in Tree.Fragments.
package proctree

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/phuonguno98/hostscope/pkg/metrics"
)

var (
	ErrEmptySnapshot = errors.New("empty process snapshot")
	ErrDuplicatePID  = errors.New("duplicate pid in process snapshot")
)

// Node is a process in the tree.
type Node struct {
	metrics.ProcessNode
	Children []*Node `json:"children,omitempty"`
	// Reparented is set on fragment roots attached under the tree root because
	// their recorded parent is missing from the snapshot or part of a cycle.
	Reparented bool `json:"reparented,omitempty"`
}

// Tree is the rooted process hierarchy of one snapshot.
type Tree struct {
	Root *Node `json:"root"`
	// Fragments lists, in ascending order, the pids of the fragment roots that
	// were reparented under Root.
	Fragments []int32 `json:"fragments"`

	index map[int32]*Node
}

// Build reconstructs the process tree.
//
// A process is a root candidate when its parent pid is absent from the snapshot
// or equals its own pid. Processes unreachable from any candidate are on a parent
// cycle; the lowest pid of each such cycle is cut from its parent and treated as a
// candidate too. The lowest candidate pid becomes the root. Children are ordered by pid.
func Build(snapshot []metrics.ProcessNode) (*Tree, error) {
	if len(snapshot) == 0 {
		return nil, ErrEmptySnapshot
	}

	nodes := make(map[int32]*Node, len(snapshot))
	for _, p := range snapshot {
		if _, dup := nodes[p.PID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicatePID, p.PID)
		}
		nodes[p.PID] = &Node{ProcessNode: p}
	}

	var candidates []int32
	for _, p := range snapshot {
		n := nodes[p.PID]
		parent, ok := nodes[n.PPID]
		if !ok || n.PPID == n.PID {
			candidates = append(candidates, n.PID)
			continue
		}
		parent.Children = append(parent.Children, n)
	}

	reached := make(map[int32]bool, len(nodes))
	for _, pid := range candidates {
		markReachable(nodes[pid], reached)
	}

	// Whatever is left is on a parent cycle or hangs off one.
	var cycleCuts []int32
	if len(reached) < len(nodes) {
		for _, pid := range sortedPIDs(nodes) {
			if reached[pid] {
				continue
			}
			n := nodes[cycleMin(nodes, pid)]
			parent := nodes[n.PPID]
			parent.Children = slices.DeleteFunc(parent.Children, func(c *Node) bool { return c == n })
			cycleCuts = append(cycleCuts, n.PID)
			markReachable(n, reached)
		}
	}

	if len(candidates) == 0 {
		candidates, cycleCuts = cycleCuts, nil
	}
	rootPID := slices.Min(candidates)
	root := nodes[rootPID]

	var fragments []int32
	for _, pid := range append(candidates, cycleCuts...) {
		if pid == rootPID {
			continue
		}
		n := nodes[pid]
		n.Reparented = true
		root.Children = append(root.Children, n)
		fragments = append(fragments, pid)
	}
	slices.Sort(fragments)

	t := &Tree{Root: root, Fragments: fragments, index: nodes}
	t.Walk(func(n *Node, _ int) {
		slices.SortFunc(n.Children, func(a, b *Node) int { return cmp.Compare(a.PID, b.PID) })
	})
	return t, nil
}

// cycleMin follows parent links from an unreached pid until one repeats and
// returns the lowest pid on the cycle it ends in.
func cycleMin(nodes map[int32]*Node, pid int32) int32 {
	seen := make(map[int32]bool)
	for !seen[pid] {
		seen[pid] = true
		pid = nodes[pid].PPID
	}
	lowest := pid
	for p := nodes[pid].PPID; p != pid; p = nodes[p].PPID {
		lowest = min(lowest, p)
	}
	return lowest
}

func markReachable(start *Node, reached map[int32]bool) {
	stack := []*Node{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reached[n.PID] {
			continue
		}
		reached[n.PID] = true
		stack = append(stack, n.Children...)
	}
}

func sortedPIDs(nodes map[int32]*Node) []int32 {
	pids := make([]int32, 0, len(nodes))
	for pid := range nodes {
		pids = append(pids, pid)
	}
	slices.Sort(pids)
	return pids
}

// Len returns the number of processes in the tree.
func (t *Tree) Len() int {
	return len(t.index)
}

// Find returns the node with the given pid, or nil.
func (t *Tree) Find(pid int32) *Node {
	return t.index[pid]
}

// Walk visits every node in pre-order, passing its depth below the root.
func (t *Tree) Walk(fn func(n *Node, depth int)) {
	if t.Root == nil {
		return
	}
	type frame struct {
		n     *Node
		depth int
	}
	stack := []frame{{t.Root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(f.n, f.depth)
		for i := len(f.n.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.n.Children[i], f.depth + 1})
		}
	}
}

// PreOrder returns the pids in pre-order.
func (t *Tree) PreOrder() []int32 {
	pids := make([]int32, 0, t.Len())
	t.Walk(func(n *Node, _ int) { pids = append(pids, n.PID) })
	return pids
}

// Render writes an indented text view of the tree. Reparented fragment roots are
// prefixed with '~'.
func (t *Tree) Render(w io.Writer) error {
	var sb strings.Builder
	t.Walk(func(n *Node, depth int) {
		sb.WriteString(strings.Repeat("  ", depth))
		if n.Reparented {
			sb.WriteString("~")
		}
		fmt.Fprintf(&sb, "%s (%d)\n", n.Name, n.PID)
	})
	_, err := io.WriteString(w, sb.String())
	return err
}

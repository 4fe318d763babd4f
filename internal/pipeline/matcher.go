// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package pipeline

// groupMatcher is an Aho-Corasick automaton over the keyword groups of
// one classification table. A single pass over the text yields, per
// group, how many of the group's keywords occur at least once; keywords
// count presence, not occurrences, preserving the substring semantics
// of the scoring tables. Matchers are immutable once built and safe for
// concurrent use.
type groupMatcher struct {
	root *matchNode

	// patternGroup maps pattern index to the group it scores for.
	patternGroup []int
	groups       int
}

// matchNode is one automaton state.
type matchNode struct {
	children map[rune]*matchNode
	fail     *matchNode

	// output holds the indexes of patterns ending at this state,
	// including those inherited through failure links.
	output []int
}

// newGroupMatcher builds the automaton for the given keyword groups.
// Group order is preserved: Counts reports results in the same order.
// Empty keywords are skipped.
func newGroupMatcher(groups [][]string) *groupMatcher {
	m := &groupMatcher{
		root:   &matchNode{children: make(map[rune]*matchNode)},
		groups: len(groups),
	}
	for group, keywords := range groups {
		for _, keyword := range keywords {
			if keyword == "" {
				continue
			}
			m.insert(keyword, group)
		}
	}
	m.link()
	return m
}

// insert adds one keyword path to the trie.
func (m *groupMatcher) insert(keyword string, group int) {
	node := m.root
	for _, ch := range keyword {
		child := node.children[ch]
		if child == nil {
			child = &matchNode{children: make(map[rune]*matchNode)}
			node.children[ch] = child
		}
		node = child
	}
	node.output = append(node.output, len(m.patternGroup))
	m.patternGroup = append(m.patternGroup, group)
}

// link builds the failure links breadth-first. Each node inherits the
// output of its failure target, so by the time a node is reached during
// a scan its whole suffix chain is already folded into output.
func (m *groupMatcher) link() {
	queue := make([]*matchNode, 0, len(m.root.children))
	for _, child := range m.root.children {
		child.fail = m.root
		queue = append(queue, child)
	}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for ch, child := range current.children {
			queue = append(queue, child)
			fail := current.fail
			for fail != nil && fail.children[ch] == nil {
				fail = fail.fail
			}
			if fail == nil {
				child.fail = m.root
			} else {
				child.fail = fail.children[ch]
				child.output = append(child.output, child.fail.output...)
			}
		}
	}
}

// Counts scans the text once and returns the number of distinct
// keywords present per group, in group order. The text is matched as
// given; the classification tables store lowercase keywords and callers
// lower their samples first.
func (m *groupMatcher) Counts(text string) []int {
	counts := make([]int, m.groups)
	if len(m.patternGroup) == 0 {
		return counts
	}

	seen := make([]bool, len(m.patternGroup))
	node := m.root
	for _, ch := range text {
		for node != nil && node.children[ch] == nil {
			node = node.fail
		}
		if node == nil {
			node = m.root
			continue
		}
		node = node.children[ch]
		for _, idx := range node.output {
			if !seen[idx] {
				seen[idx] = true
				counts[m.patternGroup[idx]]++
			}
		}
	}
	return counts
}

// Count sums Counts across groups; the distinct keyword count for a
// single-group matcher.
func (m *groupMatcher) Count(text string) int {
	total := 0
	for _, n := range m.Counts(text) {
		total += n
	}
	return total
}

// Classification matchers, built once from the tables in keywords.go.
var (
	topicMatcher     *groupMatcher
	countryMatcher   *groupMatcher
	sectorMatcher    *groupMatcher
	breakingMatcher  *groupMatcher
	importantMatcher *groupMatcher
)

func init() {
	topicGroups := make([][]string, len(topicTable))
	for i, entry := range topicTable {
		topicGroups[i] = entry.keywords
	}
	topicMatcher = newGroupMatcher(topicGroups)

	countryGroups := make([][]string, len(countryTable))
	for i, entry := range countryTable {
		countryGroups[i] = entry.aliases
	}
	countryMatcher = newGroupMatcher(countryGroups)

	sectorGroups := make([][]string, len(sectorTable))
	for i, entry := range sectorTable {
		sectorGroups[i] = entry.keywords
	}
	sectorMatcher = newGroupMatcher(sectorGroups)

	breakingMatcher = newGroupMatcher([][]string{breakingKeywords})
	importantMatcher = newGroupMatcher([][]string{importantKeywords})
}

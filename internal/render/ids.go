// internal/render/ids.go
package render

import "strconv"

// IDGenerator hands out IDs that are unique per prefix for the lifetime of
// one conversion.
type IDGenerator struct {
	counts map[string]int
}

func NewIDGenerator() *IDGenerator {
	return &IDGenerator{counts: make(map[string]int)}
}

// UniqueID returns prefix-1, prefix-2, ... on successive calls.
func (g *IDGenerator) UniqueID(prefix string) string {
	g.counts[prefix]++
	return prefix + "-" + strconv.Itoa(g.counts[prefix])
}

// Len returns the number of IDs handed out.
func (g *IDGenerator) Len() int {
	total := 0
	for _, n := range g.counts {
		total += n
	}
	return total
}

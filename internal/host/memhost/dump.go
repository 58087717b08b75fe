package memhost

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Dump renders the subtree rooted at n, one node per line, indented by two
// spaces per level. Element nodes print as <tag name="value" ...> with
// attributes in sorted order; text nodes print as quoted literals.
func Dump(n *Node) string {
	var b strings.Builder
	dump(&b, n, 0)
	return b.String()
}

func dump(b *strings.Builder, n *Node, depth int) {
	if n == nil {
		return
	}
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(describe(n))
	b.WriteByte('\n')
	for _, c := range n.Children {
		dump(b, c, depth+1)
	}
}

func describe(n *Node) string {
	if n.IsText() {
		return fmt.Sprintf("%q", n.Text)
	}
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(n.Tag)
	for _, k := range n.sortedAttrNames() {
		fmt.Fprintf(&b, " %s=%s", k, formatAttr(n.Attrs[k]))
	}
	b.WriteByte('>')
	return b.String()
}

func formatAttr(v any) string {
	switch val := v.(type) {
	case string:
		return fmt.Sprintf("%q", val)
	case fmt.Stringer:
		return fmt.Sprintf("%q", val.String())
	}
	return fmt.Sprintf("%q", fmt.Sprint(v))
}

// Fingerprint returns a structural digest of the subtree rooted at n. Node
// IDs are excluded, so equal shapes hash equal even when built separately.
func Fingerprint(n *Node) uint64 {
	d := xxhash.New()
	fingerprint(d, n)
	return d.Sum64()
}

func fingerprint(d *xxhash.Digest, n *Node) {
	if n == nil {
		return
	}
	_, _ = d.WriteString(describe(n))
	_, _ = d.WriteString("{")
	for _, c := range n.Children {
		fingerprint(d, c)
	}
	_, _ = d.WriteString("}")
}

// Size returns the number of nodes in the subtree rooted at n.
func Size(n *Node) int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Children {
		total += Size(c)
	}
	return total
}

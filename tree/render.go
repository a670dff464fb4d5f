package tree

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// RenderOptions controls Render output. Zero values mean no limit and a
// two-space indent.
type RenderOptions struct {
	Indent      string
	MaxDepth    int
	MaxChildren int
}

// Render writes t as indented text, one node per line.
func Render(w io.Writer, t *Tree, opts RenderOptions) error {
	if opts.Indent == "" {
		opts.Indent = "  "
	}
	bw := bufio.NewWriter(w)
	for key, root := range t.Roots() {
		bw.WriteString(key)
		bw.WriteByte('\n')
		renderChildren(bw, root, 1, opts)
	}
	return bw.Flush()
}

func renderChildren(bw *bufio.Writer, n *Node, depth int, opts RenderOptions) {
	if opts.MaxDepth > 0 && depth > opts.MaxDepth {
		return
	}
	children := n.Children
	hidden := 0
	if opts.MaxChildren > 0 && len(children) > opts.MaxChildren {
		hidden = len(children) - opts.MaxChildren
		children = children[:opts.MaxChildren]
	}
	pad := strings.Repeat(opts.Indent, depth)
	for _, c := range children {
		bw.WriteString(pad)
		bw.WriteString(c.Label())
		bw.WriteByte('\n')
		renderChildren(bw, c, depth+1, opts)
	}
	if hidden > 0 {
		bw.WriteString(pad)
		bw.WriteString("... " + strconv.Itoa(hidden) + " more\n")
	}
}

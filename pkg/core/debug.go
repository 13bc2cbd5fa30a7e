package core

import (
	"fmt"
	"strings"
)

// NodeInfo is a serializable snapshot of one node and its subtree.
type NodeInfo struct {
	ID       string      `json:"id"`
	Type     string      `json:"type"`
	State    string      `json:"state"`
	Text     string      `json:"text,omitempty"`
	Bindings int         `json:"bindings,omitempty"`
	Children []*NodeInfo `json:"children,omitempty"`
}

// Describe snapshots the mounted tree. It returns nil when nothing is mounted.
func (c *Context) Describe() *NodeInfo {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	return c.describe(c.tree.root)
}

// DescribeNode snapshots the subtree under id, or returns nil if id is not
// live. It must not be called from widget code.
func (c *Context) DescribeNode(id Index) *NodeInfo {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	return c.describe(id)
}

func (c *Context) describe(id Index) *NodeInfo {
	n := c.tree.node(id)
	if n == nil {
		return nil
	}
	info := &NodeInfo{
		ID:       id.String(),
		Type:     widgetName(n.widget),
		State:    c.State(id).String(),
		Bindings: len(n.sources),
	}
	if t, ok := n.widget.(TextNode); ok {
		info.Text = t.Content
	}
	for _, child := range n.children {
		if ci := c.describe(child); ci != nil {
			info.Children = append(info.Children, ci)
		}
	}
	return info
}

// Globals returns the number of registered global values.
func (c *Context) Globals() int {
	return c.globals.len()
}

// Dump renders the subtree under id as an indented outline, one node per
// line.
func (t *WidgetTree) Dump(id Index) string {
	var sb strings.Builder
	t.dump(&sb, id, 0)
	return sb.String()
}

func (t *WidgetTree) dump(sb *strings.Builder, id Index, indent int) {
	n := t.node(id)
	if n == nil {
		return
	}
	sb.WriteString(strings.Repeat("  ", indent))
	if text, ok := n.widget.(TextNode); ok {
		fmt.Fprintf(sb, "%q\n", text.Content)
	} else {
		sb.WriteString(widgetName(n.widget))
		sb.WriteByte('\n')
	}
	for _, child := range n.children {
		t.dump(sb, child, indent+1)
	}
}

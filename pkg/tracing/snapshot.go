package tracing

import "time"

// Node is a serializable view of a trace element.
type Node struct {
	Type        string         `json:"type"`
	Title       string         `json:"title,omitempty"`
	Status      Status         `json:"status,omitempty"`
	Kind        Kind           `json:"kind,omitempty"`
	Text        string         `json:"text,omitempty"`
	Data        any            `json:"data,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
	EndTime     *time.Time     `json:"end_time,omitempty"`
	ElapsedMs   float64        `json:"elapsed_ms,omitempty"`
	UserContext map[string]any `json:"user_context,omitempty"`
	Children    []*Node        `json:"children,omitempty"`
}

// Snapshot renders the subtree rooted at c.
func (c *Context) Snapshot() *Node {
	node := &Node{
		Type:        "context",
		Title:       c.title,
		Status:      c.Status(),
		Timestamp:   c.start,
		ElapsedMs:   float64(c.Elapsed().Microseconds()) / 1000,
		UserContext: c.UserContext(),
	}

	if end, ended := c.EndTime(); ended {
		node.EndTime = &end
	}

	for _, child := range c.Children() {
		switch e := child.(type) {
		case *Context:
			node.Children = append(node.Children, e.Snapshot())
		case *LogEntry:
			node.Children = append(node.Children, &Node{
				Type:      "log",
				Kind:      e.Kind,
				Text:      e.Text,
				Data:      e.Data,
				Timestamp: e.Timestamp,
			})
		}
	}

	return node
}

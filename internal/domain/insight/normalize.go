package insight

import "encoding/json"

// BlockKind distinguishes renderable block shapes.
type BlockKind string

// Block kinds.
const (
	BlockPlainText  BlockKind = "text"
	BlockTitledItem BlockKind = "item"
)

// Block is one normalized unit of insight content.
type Block struct {
	Kind  BlockKind `json:"kind"`
	Text  string    `json:"text,omitempty"`
	Title string    `json:"title,omitempty"`
	Body  string    `json:"body,omitempty"`
}

// PlainText builds a text block.
func PlainText(s string) Block { return Block{Kind: BlockPlainText, Text: s} }

// TitledItem builds an item block; empty title or body are simply omitted.
func TitledItem(title, body string) Block {
	return Block{Kind: BlockTitledItem, Title: title, Body: body}
}

// HasTitle reports whether the item block carries a title.
func (b Block) HasTitle() bool { return b.Title != "" }

// HasBody reports whether the item block carries a body.
func (b Block) HasBody() bool { return b.Body != "" }

// Normalize maps classified content to blocks. The result is never nil.
func Normalize(c Content) []Block {
	switch c.kind {
	case KindText:
		return []Block{PlainText(c.text)}
	case KindList:
		out := make([]Block, 0, len(c.items))
		for _, it := range c.items {
			if it.IsText() {
				out = append(out, PlainText(it.text))
				continue
			}
			out = append(out, TitledItem(it.record.Title, it.record.Description))
		}
		return out
	case KindRecord:
		return []Block{TitledItem(c.record.Title, c.record.Description)}
	case KindEmpty:
		return []Block{}
	}
	return []Block{}
}

// NormalizeRaw classifies and normalizes a raw payload in one step.
func NormalizeRaw(raw json.RawMessage) []Block { return Normalize(Parse(raw)) }

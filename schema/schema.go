// Package schema builds normalized OpenAPI 3.1 schema trees from arbitrary
// JSON-like input.
//
// Extraction sources are unreliable, so parsing is total: any value that is
// not an object downgrades to {"type": "string"}, unrecognized
// keys are dropped, and reference nodes pass through untouched. The parsed
// form is a closed tagged union (Node) so downstream code never walks raw
// maps.
package schema

// Kind discriminates the Node union.
type Kind int

const (
	// KindPrimitive covers scalar nodes and bare typed nodes without
	// properties or items (including bare "object"/"array" declarations).
	KindPrimitive Kind = iota
	// KindObject is a node with properties.
	KindObject
	// KindArray is a node with items.
	KindArray
	// KindUnion is a node with oneOf/anyOf/allOf members.
	KindUnion
	// KindRef is a $ref node, kept opaque and never expanded.
	KindRef
)

// Union variant names in the order they are emitted.
var unionKeys = []string{"oneOf", "anyOf", "allOf"}

// Scalar keys copied through verbatim when present.
var scalarKeys = []string{
	"type", "format", "description", "enum", "default", "example",
	// numeric constraints
	"minimum", "maximum", "exclusiveMinimum", "exclusiveMaximum", "multipleOf",
	// string constraints
	"minLength", "maxLength", "pattern",
	// array constraints
	"minItems", "maxItems", "uniqueItems",
}

// Node is one node in a schema tree. Exactly one Kind applies; variant
// fields for other kinds are zero. Scalars holds pass-through keys (type,
// format, constraints) for every kind except KindRef.
type Node struct {
	Kind Kind

	// KindRef
	Ref string

	// KindObject
	Properties map[string]*Node
	// Required and Discriminator pass through for any non-ref kind.
	Required      any
	Discriminator any
	// AdditionalProperties is nil, a bool, or a *Node.
	AdditionalProperties any

	// KindArray
	Items *Node

	// KindUnion: variant name -> members, in unionKeys order.
	Unions map[string][]*Node

	// Scalar pass-through keys, preserved in scalarKeys order.
	Scalars map[string]any
}

// Parse builds a Node from arbitrary JSON-like input. It is total: no input
// causes an error or panic. Non-object input yields a string primitive.
func Parse(raw any) *Node {
	obj, ok := raw.(map[string]any)
	if !ok {
		return &Node{Kind: KindPrimitive, Scalars: map[string]any{"type": "string"}}
	}

	if ref, ok := obj["$ref"].(string); ok {
		// References stay opaque; sibling keys are intentionally dropped.
		return &Node{Kind: KindRef, Ref: ref}
	}

	n := &Node{Kind: KindPrimitive, Scalars: map[string]any{}}
	for _, key := range scalarKeys {
		if v, present := obj[key]; present {
			n.Scalars[key] = v
		}
	}

	if props, ok := obj["properties"].(map[string]any); ok {
		n.Kind = KindObject
		n.Properties = make(map[string]*Node, len(props))
		for name, propRaw := range props {
			n.Properties[name] = Parse(propRaw)
		}
	}

	if required, present := obj["required"]; present {
		n.Required = required
	}

	if ap, present := obj["additionalProperties"]; present {
		if b, ok := ap.(bool); ok {
			n.AdditionalProperties = b
		} else {
			n.AdditionalProperties = Parse(ap)
		}
	}

	// A node never carries both properties and items; properties wins when a
	// malformed source supplies both.
	if items, present := obj["items"]; present && n.Kind != KindObject {
		n.Kind = KindArray
		n.Items = Parse(items)
	}

	for _, key := range unionKeys {
		members, ok := obj[key].([]any)
		if !ok {
			continue
		}
		if n.Unions == nil {
			n.Unions = make(map[string][]*Node)
		}
		if n.Kind == KindPrimitive {
			n.Kind = KindUnion
		}
		parsed := make([]*Node, 0, len(members))
		for _, member := range members {
			parsed = append(parsed, Parse(member))
		}
		n.Unions[key] = parsed
	}

	if disc, present := obj["discriminator"]; present {
		n.Discriminator = disc
	}

	// Legacy nullable flag: OpenAPI 3.1 expresses nullability as a type
	// array. Only applies when a scalar type is present.
	if nullable, ok := obj["nullable"].(bool); ok && nullable {
		if typ, ok := n.Scalars["type"].(string); ok {
			n.Scalars["type"] = []any{typ, "null"}
		}
	}

	return n
}

// AsMap renders the node back to the OpenAPI JSON shape.
func (n *Node) AsMap() map[string]any {
	if n.Kind == KindRef {
		return map[string]any{"$ref": n.Ref}
	}

	out := make(map[string]any)
	for _, key := range scalarKeys {
		if v, present := n.Scalars[key]; present {
			out[key] = v
		}
	}
	if n.Properties != nil {
		props := make(map[string]any, len(n.Properties))
		for name, prop := range n.Properties {
			props[name] = prop.AsMap()
		}
		out["properties"] = props
	}
	if n.Required != nil {
		out["required"] = n.Required
	}
	switch ap := n.AdditionalProperties.(type) {
	case bool:
		out["additionalProperties"] = ap
	case *Node:
		out["additionalProperties"] = ap.AsMap()
	}
	if n.Items != nil {
		out["items"] = n.Items.AsMap()
	}
	for _, key := range unionKeys {
		members, present := n.Unions[key]
		if !present {
			continue
		}
		rendered := make([]any, len(members))
		for i, member := range members {
			rendered[i] = member.AsMap()
		}
		out[key] = rendered
	}
	if n.Discriminator != nil {
		out["discriminator"] = n.Discriminator
	}
	return out
}

// Compose normalizes arbitrary schema input into an OpenAPI 3.1 schema map.
// Pure and total: Compose never fails, and composing its own output again is
// a no-op for recognized shapes.
func Compose(raw any) map[string]any {
	return Parse(raw).AsMap()
}

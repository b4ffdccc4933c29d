// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"bytes"
	"text/template"
)

// graphPromptTmpl asks the model for a knowledge graph of the notes. The
// shape example and the numbered constraints are the only place the graph
// invariants are expressed; nothing downstream enforces them.
var graphPromptTmpl = template.Must(template.New("graph").Parse(`Analyze the following notes and create a detailed knowledge graph with key concepts and their relationships.
Focus on extracting the most important entities, their attributes, and the connections between them.

Notes: {{.Notes}}

Generate a JSON object with the following structure:
{
    "nodes": [
        {"id": "unique_id_1", "label": "Entity 1", "type": "person/concept/action/etc"},
        {"id": "unique_id_2", "label": "Entity 2", "type": "person/concept/action/etc"},
        ...
    ],
    "edges": [
        {"source": "unique_id_1", "target": "unique_id_2", "label": "relationship description"},
        ...
    ]
}

Ensure that:
1. Each node has a unique id.
2. Edge source and target ids correspond to existing node ids.
3. Node labels are concise but descriptive.
4. Edge labels clearly describe the relationship between nodes.
5. Include at least {{.MinNodes}} nodes and {{.MinEdges}} edges, but not more than {{.MaxNodes}} nodes and {{.MaxEdges}} edges.

Only respond with the JSON object, no additional text.
`))

// Size bounds requested from the model.
const (
	minNodes = 10
	maxNodes = 30
	minEdges = 15
	maxEdges = 50
)

type promptData struct {
	Notes              string
	MinNodes, MaxNodes int
	MinEdges, MaxEdges int
}

// renderPrompt embeds notes verbatim into the graph prompt. text/template
// does not escape, so the notes reach the model unchanged.
func renderPrompt(notes string) (string, error) {
	var buf bytes.Buffer
	err := graphPromptTmpl.Execute(&buf, promptData{
		Notes:    notes,
		MinNodes: minNodes,
		MaxNodes: maxNodes,
		MinEdges: minEdges,
		MaxEdges: maxEdges,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

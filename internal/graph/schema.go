package graph

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/pdiddy/notegraph/pkg/types"
)

// GraphSchema derives the JSON schema sent with every completion request
// from types.KnowledgeGraph. Node and edge fields are required; the nodes
// and edges keys themselves are not, because a missing key decodes as an
// empty list.
func GraphSchema() (*jsonschema.Schema, error) {
	s, err := jsonschema.For[types.KnowledgeGraph](&jsonschema.ForOptions{})
	if err != nil {
		return nil, fmt.Errorf("deriving graph schema: %w", err)
	}
	s.Title = "KnowledgeGraph"
	s.Required = nil
	return s, nil
}

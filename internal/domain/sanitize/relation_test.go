package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyRelation(t *testing.T) {
	tests := []struct {
		name     string
		root     string
		incoming string
		expected Relation
	}{
		{"identical", "santander.es", "santander.es", RelationSame},
		{"case and trailing dot", "Santander.ES", "santander.es.", RelationSame},
		{"direct subdomain", "santander.es", "mail.santander.es", RelationSubdomain},
		{"deep subdomain", "santander.es", "a.b.santander.es", RelationSubdomain},
		{"label boundary is respected", "santander.es", "santanderes.es", RelationUnrelated},
		{"suffix embedded mid-string", "santander.es", "santander.es.evil.com", RelationUnrelated},
		{"sibling domain", "santander.es", "santander.com", RelationUnrelated},
		{"different brand", "santander.es", "acme.com", RelationUnrelated},
		{"empty incoming", "santander.es", "", RelationUnrelated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyRelation(tt.root, tt.incoming))
		})
	}
}

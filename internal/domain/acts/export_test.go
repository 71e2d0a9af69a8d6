package acts

import "testing"

// ServiceActTemplate returns a positional service act template.
func ServiceActTemplate(t *testing.T) []byte {
	return docxBytes(t, legacyBlocks()...)
}

package tokenlist

// SetAcceptedDocument exposes the adoption path to external tests
func (s *Store) SetAcceptedDocument(doc *Document, source Source) bool {
	return s.setAcceptedDocument(doc, source, nil)
}

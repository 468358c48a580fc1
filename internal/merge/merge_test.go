package merge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idrepo/internal/apperror"
)

func entries(t *testing.T, merged []byte, attr string) []Entry {
	t.Helper()
	var doc map[string][]Entry
	require.NoError(t, json.Unmarshal(merged, &doc))
	return doc[attr]
}

func TestDocuments_LocaleReconciliation(t *testing.T) {
	stored := []byte(`{"name":[{"language":"en","value":"A"},{"language":"fr","value":"B"}]}`)
	incoming := []byte(`{"name":[{"language":"en","value":"A2"},{"language":"de","value":"C"}]}`)

	merged, err := Documents(stored, incoming)
	require.NoError(t, err)

	got := entries(t, merged, "name")
	require.Len(t, got, 3)

	// Sorted by language code: de inserted, en overlaid, fr retained.
	assert.Equal(t, Entry{"language": "de", "value": "C"}, got[0])
	assert.Equal(t, Entry{"language": "en", "value": "A2"}, got[1])
	assert.Equal(t, Entry{"language": "fr", "value": "B"}, got[2])
}

func TestDocuments_Idempotent(t *testing.T) {
	doc := []byte(`{"name":[{"language":"en","value":"A"},{"language":"fr","value":"B"}]}`)

	merged, err := Documents(doc, doc)
	require.NoError(t, err)
	assert.Equal(t, doc, merged)
}

func TestDocuments_Deterministic(t *testing.T) {
	stored := []byte(`{"address":[{"language":"fr","value":"Rue"}],"name":[{"language":"en","value":"A"}]}`)
	incoming := []byte(`{"name":[{"language":"ar","value":"B"},{"language":"en","value":"A2"}]}`)

	first, err := Documents(stored, incoming)
	require.NoError(t, err)
	second, err := Documents(stored, incoming)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDocuments_AttributeOnlyInIncoming(t *testing.T) {
	stored := []byte(`{"name":[{"language":"en","value":"A"}]}`)
	incoming := []byte(`{"address":[{"language":"en","value":"Street"}]}`)

	merged, err := Documents(stored, incoming)
	require.NoError(t, err)

	assert.Equal(t, []Entry{{"language": "en", "value": "A"}}, entries(t, merged, "name"))
	assert.Equal(t, []Entry{{"language": "en", "value": "Street"}}, entries(t, merged, "address"))
}

func TestDocuments_AttributeOnlyInStoredRetained(t *testing.T) {
	stored := []byte(`{"address":[{"language":"fr","value":"Rue"}],"name":[{"language":"en","value":"A"}]}`)
	incoming := []byte(`{"name":[{"language":"en","value":"A2"}]}`)

	merged, err := Documents(stored, incoming)
	require.NoError(t, err)

	assert.Equal(t, []Entry{{"language": "fr", "value": "Rue"}}, entries(t, merged, "address"))
	assert.Equal(t, []Entry{{"language": "en", "value": "A2"}}, entries(t, merged, "name"))
}

func TestDocuments_OverlayKeepsUnmentionedFields(t *testing.T) {
	stored := []byte(`{"name":[{"label":"Full name","language":"en","value":"A"}]}`)
	incoming := []byte(`{"name":[{"language":"en","value":"A2"}]}`)

	merged, err := Documents(stored, incoming)
	require.NoError(t, err)

	got := entries(t, merged, "name")
	require.Len(t, got, 1)
	assert.Equal(t, Entry{"label": "Full name", "language": "en", "value": "A2"}, got[0])
}

func TestDocuments_LanguageCodeNeverAltered(t *testing.T) {
	stored := []byte(`{"name":[{"language":"en","value":"A"}]}`)
	incoming := []byte(`{"name":[{"language":"EN","value":"A2"}]}`)

	merged, err := Documents(stored, incoming)
	require.NoError(t, err)

	got := entries(t, merged, "name")
	require.Len(t, got, 1)
	assert.Equal(t, "en", got[0]["language"])
	assert.Equal(t, "A2", got[0]["value"])
}

func TestDocuments_DuplicateLanguageRejected(t *testing.T) {
	stored := []byte(`{"name":[{"language":"en","value":"A"}]}`)
	incoming := []byte(`{"name":[{"language":"en","value":"B"},{"language":"EN","value":"C"}]}`)

	_, err := Documents(stored, incoming)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidInput))
}

func TestDocuments_NonListAttributeReplaced(t *testing.T) {
	stored := []byte(`{"proofOfAddress":{"category":"POA","format":"pdf","value":"old"}}`)
	incoming := []byte(`{"proofOfAddress":{"category":"POA","format":"pdf","value":"new"}}`)

	merged, err := Documents(stored, incoming)
	require.NoError(t, err)

	var doc map[string]map[string]string
	require.NoError(t, json.Unmarshal(merged, &doc))
	assert.Equal(t, "new", doc["proofOfAddress"]["value"])
}

func TestDocuments_InvalidPayload(t *testing.T) {
	_, err := Documents([]byte(`{"name":[]}`), []byte(`not json`))
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidInput))

	_, err = Documents([]byte(`[1,2]`), []byte(`{}`))
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidInput))
}

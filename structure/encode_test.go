package structure_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/teranos/structix/errors"
	qtest "github.com/teranos/structix/internal/testing"
	"github.com/teranos/structix/structure"
)

func TestParseEncoding(t *testing.T) {
	for in, want := range map[string]structure.Encoding{
		"":     structure.EncodingJSON,
		"JSON": structure.EncodingJSON,
		"yml":  structure.EncodingYAML,
		"cbor": structure.EncodingCBOR,
	} {
		got, err := structure.ParseEncoding(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := structure.ParseEncoding("xml")
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestEncodeJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, structure.Encode(&buf, structure.EncodingJSON, []*structure.Record{qtest.Fixture3TR()}))

	var decoded []*structure.Record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	qtest.AssertSameAtoms(t, qtest.Fixture3TR(), decoded[0])
	qtest.AssertSameBonds(t, qtest.Fixture3TR(), decoded[0])
	assert.Contains(t, buf.String(), `"order": "double"`)
}

func TestEncodeYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, structure.Encode(&buf, structure.EncodingYAML, []*structure.Record{qtest.Fixture3TR()}))

	assert.Contains(t, buf.String(), "name: 3TR_model")

	var decoded []*structure.Record
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, qtest.Fixture3TR().Elements(), decoded[0].Elements())
}

func TestEncodeCBORIsDeterministic(t *testing.T) {
	r := qtest.Fixture3TR()
	r.Metadata.Properties = map[string]string{"b": "2", "a": "1", "c": "3"}

	var first, second bytes.Buffer
	require.NoError(t, structure.Encode(&first, structure.EncodingCBOR, []*structure.Record{r}))
	require.NoError(t, structure.Encode(&second, structure.EncodingCBOR, []*structure.Record{r.Clone()}))
	assert.Equal(t, first.Bytes(), second.Bytes())

	decoded, err := structure.DecodeCBOR(first.Bytes())
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	qtest.AssertSameBonds(t, r, decoded[0])
	assert.Equal(t, "1", decoded[0].Metadata.Properties["a"])
}

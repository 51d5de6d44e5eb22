package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDocumentPreservesNumbers(t *testing.T) {
	in := `{"layout":"site/_components/layout/instances/a","main":["site/_components/article/instances/x"],"big":12345678901234567890,"ratio":0.1}`
	doc, err := DecodeDocument(strings.NewReader(in))
	require.NoError(t, err)

	out, err := doc.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(out), `"big":12345678901234567890`)
	assert.Contains(t, string(out), `"ratio":0.1`)
}

func TestDecodeDocumentRejectsNonObject(t *testing.T) {
	_, err := DecodeDocument(strings.NewReader(`null`))
	require.Error(t, err)

	_, err = DecodeDocument(strings.NewReader(`["a"]`))
	require.Error(t, err)
}

func TestLayout(t *testing.T) {
	doc := Document{"layout": "site/_components/layout/instances/a"}
	got, ok := doc.Layout()
	require.True(t, ok)
	assert.Equal(t, "site/_components/layout/instances/a", got)

	_, ok = Document{}.Layout()
	assert.False(t, ok)

	_, ok = Document{"layout": 7}.Layout()
	assert.False(t, ok)

	_, ok = Document{"layout": ""}.Layout()
	assert.False(t, ok)

	doc.SetLayout("site/_components/layout/instances/b")
	got, _ = doc.Layout()
	assert.Equal(t, "site/_components/layout/instances/b", got)
}

func TestEncodeDoesNotEscapeHTML(t *testing.T) {
	out, err := Document{"title": "<b>Fish & Chips</b>"}.Encode()
	require.NoError(t, err)
	assert.Equal(t, `{"title":"<b>Fish & Chips</b>"}`, string(out))
}

package adapter_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shapemap/adapter"
	"shapemap/keyvalue"
	"shapemap/mapping"
)

func ordered() *keyvalue.Object {
	obj := keyvalue.NewObject()
	obj.Set("z", int64(1))
	obj.Set("a", "x")
	return obj
}

func TestFor(t *testing.T) {
	for _, f := range []mapping.Format{
		mapping.FormatJSON, mapping.FormatYAML, mapping.FormatTOML, mapping.FormatCBOR, mapping.FormatMsgPack,
		mapping.FormatXML,
	} {
		a, err := adapter.For(f)
		require.NoError(t, err)
		assert.Equal(t, f, a.Format())
	}

	_, err := adapter.For(mapping.FormatHash)
	assert.ErrorIs(t, err, adapter.ErrUnsupportedFormat)
}

func TestJSON(t *testing.T) {
	v, err := adapter.JSON{}.Parse([]byte(`{
		// comment
		"a": 1, /* inline */
		"b": [true, null],
	}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": int64(1), "b": []any{true, nil}}, v)

	out, err := adapter.JSON{}.Build(ordered(), adapter.BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":"x"}`, string(out))

	out, err = adapter.JSON{}.Build(ordered(), adapter.BuildOptions{Pretty: true})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"z\": 1,\n  \"a\": \"x\"\n}", string(out))

	_, err = adapter.JSON{}.Parse([]byte(`{"a":`))
	assert.Error(t, err)
}

func TestYAML(t *testing.T) {
	out, err := adapter.YAML{}.Build(ordered(), adapter.BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, "z: 1\na: x\n", string(out))

	v, err := adapter.YAML{}.Parse(out)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"z": 1, "a": "x"}, v)
}

func TestTOML(t *testing.T) {
	obj := ordered()
	obj.Set("gone", nil)

	out, err := adapter.TOML{}.Build(obj, adapter.BuildOptions{})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "gone")

	v, err := adapter.TOML{}.Parse(out)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"z": int64(1), "a": "x"}, v)

	_, err = adapter.TOML{}.Build([]any{1}, adapter.BuildOptions{})
	assert.ErrorIs(t, err, adapter.ErrUnexpectedValue)
}

func TestCBOR(t *testing.T) {
	obj := keyvalue.NewObject()
	obj.Set("name", "x")
	obj.Set("delta", int64(-3))
	obj.Set("tags", []any{"a"})

	out, err := adapter.CBOR{}.Build(obj, adapter.BuildOptions{})
	require.NoError(t, err)

	again, err := adapter.CBOR{}.Build(keyvalue.Plain(obj), adapter.BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, out, again, "encoding is deterministic")

	v, err := adapter.CBOR{}.Parse(out)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "x", "delta": int64(-3), "tags": []any{"a"}}, v)
}

func TestMsgPack(t *testing.T) {
	obj := keyvalue.NewObject()
	obj.Set("name", "x")
	obj.Set("delta", int64(-3))
	obj.Set("tags", []any{"a"})

	out, err := adapter.MsgPack{}.Build(obj, adapter.BuildOptions{})
	require.NoError(t, err)

	again, err := adapter.MsgPack{}.Build(keyvalue.Plain(obj), adapter.BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, out, again, "map keys are sorted")

	v, err := adapter.MsgPack{}.Parse(out)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "x", "delta": int64(-3), "tags": []any{"a"}}, v)

	_, err = adapter.MsgPack{}.Parse([]byte{0xc1})
	require.Error(t, err)
}

func TestXML(t *testing.T) {
	v, err := adapter.XML{}.Parse([]byte(`<a><b>1</b></a>`))
	require.NoError(t, err)

	out, err := adapter.XML{}.Build(v, adapter.BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, `<a><b>1</b></a>`, string(out))

	_, err = adapter.XML{}.Build("text", adapter.BuildOptions{})
	assert.ErrorIs(t, err, adapter.ErrUnexpectedValue)
}

func TestJSONLines_SkipsMalformed(t *testing.T) {
	var logs bytes.Buffer
	r := adapter.JSONLines{Logger: slog.New(slog.NewTextHandler(&logs, nil))}

	docs, err := r.ParseAll([]byte("{\"a\":1}\nnot json\n\n{\"a\":2}\n"))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, map[string]any{"a": int64(2)}, docs[1])
	assert.Contains(t, logs.String(), "skipping malformed json line")
	assert.Contains(t, logs.String(), "line=2")
}

func TestYAMLStream_SkipsMalformed(t *testing.T) {
	var logs bytes.Buffer
	r := adapter.YAMLStream{Logger: slog.New(slog.NewTextHandler(&logs, nil))}

	docs, err := r.ParseAll([]byte("---\na: 1\n---\nb: [1, 2\n---\nc: 3\n"))
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"a": 1}, map[string]any{"c": 3}}, docs)
	assert.Contains(t, logs.String(), "skipping malformed yaml document")
}

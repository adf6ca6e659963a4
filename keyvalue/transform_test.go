package keyvalue_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shapemap/keyvalue"
	"shapemap/mapping"
)

func person() (*mapping.Model, *mapping.Model) {
	address := mapping.NewModel("Address").
		Attribute("city", mapping.String).
		Attribute("zip", mapping.String)

	p := mapping.NewModel("Person").
		Attribute("name", mapping.String).
		Attribute("age", mapping.Integer).
		Attribute("nick", mapping.String).
		Attribute("tags", mapping.String, mapping.CollectionAny()).
		Attribute("address", address).
		Attribute("lang", mapping.String, mapping.Default("en"))

	p.KeyValue().
		Map("name", "name", mapping.Aliases("full_name")).
		Map("age", "age").
		Map("nick", "nick", mapping.RenderNil(mapping.AsNil)).
		Map("tags", "tags", mapping.RenderEmpty(mapping.Omit)).
		Map("address", "address").
		Map("lang", "lang")

	return p, address
}

func TestTransform_RoundTrip(t *testing.T) {
	p, address := person()
	tr := keyvalue.New(nil, mapping.FormatJSON)

	inst := p.MustBuild(map[string]any{
		"name":    "Ann",
		"age":     int64(41),
		"nick":    nil,
		"tags":    []any{"a", "b"},
		"address": address.MustBuild(map[string]any{"city": "Oslo"}),
	})

	data, err := tr.ModelToData(inst, keyvalue.Options{})
	require.NoError(t, err)

	want := map[string]any{
		"name":    "Ann",
		"age":     int64(41),
		"nick":    nil,
		"tags":    []any{"a", "b"},
		"address": map[string]any{"city": "Oslo"},
	}
	assert.Equal(t, want, keyvalue.Plain(data), spew.Sdump(data))

	back, err := tr.DataToModel(data, p, keyvalue.Options{})
	require.NoError(t, err)
	assert.True(t, inst.Equal(back), "round trip changed the instance:\n%s", spew.Sdump(back.Values()))
	assert.True(t, back.UsingDefault("lang"))
}

func TestTransform_OrderFollowsRules(t *testing.T) {
	p, _ := person()
	tr := keyvalue.New(nil, mapping.FormatYAML)

	data, err := tr.ModelToData(p.MustBuild(map[string]any{"age": 3, "name": "Zed"}), keyvalue.Options{})
	require.NoError(t, err)

	obj := data.(*keyvalue.Object)
	var keys []string
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{"name", "age"}, keys)
}

func TestTransform_RenderPolicies(t *testing.T) {
	p, _ := person()
	tr := keyvalue.New(nil, mapping.FormatJSON)

	data, err := tr.ModelToData(p.MustBuild(map[string]any{
		"name": nil,
		"tags": []any{},
	}), keyvalue.Options{})
	require.NoError(t, err)

	got := keyvalue.Plain(data).(map[string]any)
	assert.NotContains(t, got, "name", "nil is omitted by default")
	assert.NotContains(t, got, "tags", "empty omitted by policy")
	assert.NotContains(t, got, "nick", "unset stays omitted")
	assert.NotContains(t, got, "lang", "defaults are not rendered")
}

func TestTransform_ValueMapOverride(t *testing.T) {
	p, _ := person()
	tr := keyvalue.New(nil, mapping.FormatJSON)
	inst := p.MustBuild(map[string]any{"name": nil, "nick": nil})

	tests := []struct {
		name     string
		override *mapping.ValueMap
		want     map[string]any
	}{
		{
			name: "rule policies without override",
			want: map[string]any{"nick": nil},
		},
		{
			name:     "nil omitted for every rule",
			override: &mapping.ValueMap{Export: map[mapping.ValueState]mapping.ValueState{mapping.StateNil: mapping.StateOmitted}},
			want:     map[string]any{},
		},
		{
			name:     "nil rendered for every rule",
			override: &mapping.ValueMap{Export: map[mapping.ValueState]mapping.ValueState{mapping.StateNil: mapping.StateNil}},
			want:     map[string]any{"name": nil, "nick": nil},
		},
		{
			name:     "nil rendered as empty",
			override: &mapping.ValueMap{Export: map[mapping.ValueState]mapping.ValueState{mapping.StateNil: mapping.StateEmpty}},
			want:     map[string]any{"name": "", "nick": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tr.ModelToData(inst, keyvalue.Options{ValueMap: tt.override})
			require.NoError(t, err)
			assert.Equal(t, tt.want, keyvalue.Plain(data))
		})
	}
}

func TestTransform_ValueMapOverrideOnImport(t *testing.T) {
	p, _ := person()
	tr := keyvalue.New(nil, mapping.FormatJSON)
	dropNil := &mapping.ValueMap{Import: map[mapping.ValueState]mapping.ValueState{mapping.StateNil: mapping.StateOmitted}}

	inst, err := tr.DataToModel(map[string]any{"name": "Ann", "nick": nil}, p, keyvalue.Options{ValueMap: dropNil})
	require.NoError(t, err)

	assert.Equal(t, "Ann", inst.Get("name"))
	assert.False(t, inst.IsSet("nick"))
}

func TestTransform_RejectsMisconfiguredModel(t *testing.T) {
	m := mapping.NewModel("Doc").
		Attribute("all", mapping.Any).
		Attribute("title", mapping.String)
	m.KeyValue().MapAll("all").Map("title", "title")
	require.ErrorIs(t, m.Err(), mapping.ErrMapAllConflict)

	tr := keyvalue.New(nil, mapping.FormatJSON)

	_, err := tr.DataToModel(map[string]any{"title": "x"}, m, keyvalue.Options{})
	assert.ErrorIs(t, err, mapping.ErrMapAllConflict)

	_, err = tr.ModelToData(m.MustBuild(map[string]any{"title": "x"}), keyvalue.Options{})
	assert.ErrorIs(t, err, mapping.ErrMapAllConflict)
}

func TestTransform_AliasAndTreat(t *testing.T) {
	p, _ := person()
	tr := keyvalue.New(nil, mapping.FormatJSON)

	inst, err := tr.DataToModel(map[string]any{
		"full_name": "Ann",
		"nick":      nil,
		"tags":      "solo",
	}, p, keyvalue.Options{})
	require.NoError(t, err)

	assert.Equal(t, "Ann", inst.Get("name"))
	assert.True(t, inst.IsSet("nick"))
	assert.Nil(t, inst.Get("nick"))
	assert.Equal(t, []any{"solo"}, inst.Get("tags"), "a single value fills a collection")
	assert.False(t, inst.IsSet("age"))
}

func TestTransform_OnlyExcept(t *testing.T) {
	p, _ := person()
	tr := keyvalue.New(nil, mapping.FormatJSON)
	inst := p.MustBuild(map[string]any{"name": "Ann", "age": 3})

	data, err := tr.ModelToData(inst, keyvalue.Options{Only: []string{"age"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"age": int64(3)}, keyvalue.Plain(data))

	data, err = tr.ModelToData(inst, keyvalue.Options{Except: []string{"age"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Ann"}, keyvalue.Plain(data))
}

func TestTransform_UnknownAttribute(t *testing.T) {
	m := mapping.NewModel("Thing").Attribute("a", mapping.String)
	m.KeyValue().Map("b", "missing")
	tr := keyvalue.New(nil, mapping.FormatJSON)

	_, err := tr.DataToModel(map[string]any{"b": 1}, m, keyvalue.Options{})
	require.Error(t, err)
	assert.Equal(t, "Attribute 'missing' not found in Thing", err.Error())
}

func TestTransform_ScalarRejectsList(t *testing.T) {
	m := mapping.NewModel("Thing").Attribute("a", mapping.String)
	tr := keyvalue.New(nil, mapping.FormatJSON)

	_, err := tr.DataToModel(map[string]any{"a": []any{"x", "y"}}, m, keyvalue.Options{})
	var ctm *mapping.CollectionTrueMissingError
	require.ErrorAs(t, err, &ctm)
	assert.Equal(t, "a", ctm.Attribute)
}

func TestTransform_TitlesAreNotReparsed(t *testing.T) {
	title := mapping.NewModel("Title").Attribute("content", mapping.Any)
	title.KeyValue().MapAll("content")
	titles := mapping.NewModel("Titles").Instances("items", title)

	tr := keyvalue.New(nil, mapping.FormatJSON)
	raw := []any{"Title One", "Title Two", `{"not": "parsed"}`}

	inst, err := tr.DataToModel(raw, titles, keyvalue.Options{})
	require.NoError(t, err)

	items := inst.Get("items").([]any)
	require.Len(t, items, 3)
	assert.Equal(t, "Title One", items[0].(*mapping.Instance).Get("content"))
	assert.Equal(t, `{"not": "parsed"}`, items[2].(*mapping.Instance).Get("content"))

	data, err := tr.ModelToData(inst, keyvalue.Options{})
	require.NoError(t, err)
	assert.Equal(t, raw, data)
}

func TestTransform_InstancesRequireCollection(t *testing.T) {
	m := mapping.NewModel("Bad").Attribute("items", mapping.String)
	m.KeyValue().MapInstances("items")
	tr := keyvalue.New(nil, mapping.FormatJSON)

	_, err := tr.DataToModel([]any{"a"}, m, keyvalue.Options{})
	var ctm *mapping.CollectionTrueMissingError
	assert.ErrorAs(t, err, &ctm)
}

func TestTransform_Polymorphic(t *testing.T) {
	animal := mapping.NewModel("Animal").Attribute("name", mapping.String)
	dog := mapping.NewModel("Dog", mapping.Extends(animal)).Attribute("breed", mapping.String)
	cat := mapping.NewModel("Cat", mapping.Extends(animal))
	zoo := mapping.NewModel("Zoo").
		Attribute("pets", animal, mapping.CollectionAny(), mapping.Polymorphic("Dog", "Cat"))
	zoo.KeyValue().Map("pets", "pets", mapping.PolymorphicBy("_class", map[string]string{
		"dog": "Dog",
		"cat": "Cat",
	}))

	reg := mapping.NewRegistry()
	require.NoError(t, reg.Register(zoo, dog, cat))
	tr := keyvalue.New(reg, mapping.FormatJSON)

	doc := map[string]any{"pets": []any{
		map[string]any{"_class": "dog", "name": "Rex", "breed": "collie"},
		map[string]any{"_class": "cat", "name": "Tom"},
	}}

	inst, err := tr.DataToModel(doc, zoo, keyvalue.Options{})
	require.NoError(t, err)
	pets := inst.Get("pets").([]any)
	require.Len(t, pets, 2)
	assert.Same(t, dog, pets[0].(*mapping.Instance).Model())
	assert.Equal(t, "collie", pets[0].(*mapping.Instance).Get("breed"))
	assert.Same(t, cat, pets[1].(*mapping.Instance).Model())
	require.NoError(t, inst.Validate())

	data, err := tr.ModelToData(inst, keyvalue.Options{})
	require.NoError(t, err)
	assert.Equal(t, doc, keyvalue.Plain(data))

	_, err = tr.DataToModel(map[string]any{"pets": []any{
		map[string]any{"_class": "rabbit"},
	}}, zoo, keyvalue.Options{})
	var pte *mapping.PolymorphicTypeError
	require.ErrorAs(t, err, &pte)
	assert.Equal(t, "rabbit", pte.Value)
}

func TestTransform_ChildMappings(t *testing.T) {
	schema := mapping.NewModel("Schema").
		Attribute("id", mapping.String).
		Attribute("path", mapping.String).
		Attribute("name", mapping.String)
	catalog := mapping.NewModel("Catalog").
		Attribute("schemas", schema, mapping.CollectionAny())
	catalog.KeyValue().Map("schemas", "schemas", mapping.ChildMappings(
		mapping.MapKey("id"),
		mapping.MapPath("path", "path"),
		mapping.MapPath("name", "meta", "name"),
	))

	doc := map[string]any{"schemas": map[string]any{
		"alpha": map[string]any{"path": "/a", "meta": map[string]any{"name": "A"}},
		"beta":  map[string]any{"path": "/b"},
	}}

	tr := keyvalue.New(nil, mapping.FormatYAML)
	inst, err := tr.DataToModel(doc, catalog, keyvalue.Options{})
	require.NoError(t, err)

	items := inst.Get("schemas").([]any)
	require.Len(t, items, 2)
	first := items[0].(*mapping.Instance)
	assert.Equal(t, "alpha", first.Get("id"))
	assert.Equal(t, "/a", first.Get("path"))
	assert.Equal(t, "A", first.Get("name"))

	data, err := tr.ModelToData(inst, keyvalue.Options{})
	require.NoError(t, err)
	assert.Equal(t, doc, keyvalue.Plain(data))
}

func TestTransform_RootMappings(t *testing.T) {
	entry := mapping.NewModel("Entry").
		Attribute("key", mapping.String).
		Attribute("value", mapping.Integer)
	dict := mapping.NewModel("Dict").Attribute("entries", entry, mapping.CollectionAny())
	dict.KeyValue().Map("", "entries", mapping.RootMappings(mapping.MapKey("key"), mapping.MapValue("value")))
	require.NoError(t, dict.Err())

	tr := keyvalue.New(nil, mapping.FormatJSON)
	inst, err := tr.DataToModel(map[string]any{"a": 1, "b": 2}, dict, keyvalue.Options{})
	require.NoError(t, err)
	require.Len(t, inst.Get("entries").([]any), 2)

	data, err := tr.ModelToData(inst, keyvalue.Options{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": int64(1), "b": int64(2)}, keyvalue.Plain(data))
}

func TestTransform_PathAndRoot(t *testing.T) {
	m := mapping.NewModel("Release").
		Attribute("version", mapping.String).
		Attribute("author", mapping.String)
	m.KeyValue().
		Root("release").
		Map("version", "version").
		Map("author", "author", mapping.Path("$.meta.people[0].name"))

	tr := keyvalue.New(nil, mapping.FormatJSON)
	inst, err := tr.DataToModel(map[string]any{"release": map[string]any{
		"version": "1.2",
		"meta":    map[string]any{"people": []any{map[string]any{"name": "Ann"}}},
	}}, m, keyvalue.Options{})
	require.NoError(t, err)
	assert.Equal(t, "Ann", inst.Get("author"))

	data, err := tr.ModelToData(inst, keyvalue.Options{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"release": map[string]any{"version": "1.2"}}, keyvalue.Plain(data),
		"path rules are read only")
}

func TestTransform_CustomMethods(t *testing.T) {
	m := mapping.NewModel("Color").
		Attribute("r", mapping.Integer).
		Attribute("g", mapping.Integer).
		Attribute("b", mapping.Integer)
	m.KeyValue().Map("rgb", "r", mapping.WithMethods(mapping.Methods{
		To: func(inst *mapping.Instance, doc mapping.Document) error {
			parts := []string{}
			for _, c := range []string{"r", "g", "b"} {
				parts = append(parts, fmt.Sprint(inst.Get(c)))
			}
			doc.Set("rgb", strings.Join(parts, ","))
			return nil
		},
		From: func(inst *mapping.Instance, v any) error {
			for i, part := range strings.Split(v.(string), ",") {
				if err := inst.Set([]string{"r", "g", "b"}[i], part); err != nil {
					return err
				}
			}
			return nil
		},
	}))

	tr := keyvalue.New(nil, mapping.FormatJSON)
	inst, err := tr.DataToModel(map[string]any{"rgb": "1,2,3"}, m, keyvalue.Options{})
	require.NoError(t, err)
	assert.Equal(t, "2", inst.Get("g"))

	data, err := tr.ModelToData(inst, keyvalue.Options{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"rgb": "1,2,3"}, keyvalue.Plain(data))
}

func TestTransform_NotObject(t *testing.T) {
	m := mapping.NewModel("M").Attribute("a", mapping.String)
	_, err := keyvalue.New(nil, mapping.FormatJSON).DataToModel("text", m, keyvalue.Options{})
	assert.ErrorIs(t, err, keyvalue.ErrNotObject)
}

package mapping_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shapemap/mapping"
	"shapemap/xmlns"
)

func TestKeyValueMapping_Conflicts(t *testing.T) {
	tests := []struct {
		name  string
		build func(kv *mapping.KeyValueMapping)
		want  error
	}{
		{
			name: "map after map all",
			build: func(kv *mapping.KeyValueMapping) {
				kv.MapAll("raw").Map("a", "a")
			},
			want: mapping.ErrMapAllConflict,
		},
		{
			name: "map all after map",
			build: func(kv *mapping.KeyValueMapping) {
				kv.Map("a", "a").MapAll("raw")
			},
			want: mapping.ErrMapAllConflict,
		},
		{
			name: "two root mappings",
			build: func(kv *mapping.KeyValueMapping) {
				kv.MapInstances("a").MapInstances("b")
			},
			want: mapping.ErrRootMappingConflict,
		},
		{
			name: "root mapping after map",
			build: func(kv *mapping.KeyValueMapping) {
				kv.Map("a", "a").MapInstances("b")
			},
			want: mapping.ErrRootMappingConflict,
		},
		{
			name: "duplicate name",
			build: func(kv *mapping.KeyValueMapping) {
				kv.Map("a", "a").Map("a", "b")
			},
			want: mapping.ErrDuplicateMapping,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mapping.NewModel("M").
				Attribute("a", mapping.String).
				Attribute("b", mapping.String, mapping.CollectionAny()).
				Attribute("raw", mapping.Any)
			tt.build(m.KeyValue())

			err := m.Err()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			reg := mapping.NewRegistry()
			assert.ErrorIs(t, reg.Register(m), tt.want)
		})
	}
}

func TestXMLMapping_Conflicts(t *testing.T) {
	m := mapping.NewModel("M").Attribute("a", mapping.String).Attribute("raw", mapping.Any)
	m.XML().MapElement("a", "a").MapAll("raw")
	assert.ErrorIs(t, m.Err(), mapping.ErrMapAllConflict)

	m = mapping.NewModel("M").Attribute("a", mapping.String)
	m.XML().MapElement("a", "a").MapElement("a", "a")
	assert.ErrorIs(t, m.Err(), mapping.ErrDuplicateMapping)

	// same local name in different namespaces is fine
	m = mapping.NewModel("M").Attribute("a", mapping.String).Attribute("b", mapping.String)
	m.XML().
		MapElement("a", "a", mapping.Namespace(xmlns.New("urn:x", "x"))).
		MapElement("a", "b", mapping.Namespace(xmlns.New("urn:y", "y")))
	assert.NoError(t, m.Err())
}

func TestModel_AttributeErrors(t *testing.T) {
	m := mapping.NewModel("M").
		Attribute("upper", mapping.String, mapping.Collection(mapping.Unbounded, 3)).
		Attribute("inverted", mapping.String, mapping.Collection(4, 2)).
		Attribute("flag", mapping.String, mapping.InitializeEmpty())

	err := m.Err()
	require.Error(t, err)

	var rangeErr *mapping.InvalidCollectionRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, "upper", rangeErr.Attribute)
	assert.Contains(t, err.Error(), "inverted")
	assert.ErrorIs(t, err, mapping.ErrInitializeEmptyRequiresCollection)
}

func TestModel_SortingConflict(t *testing.T) {
	item := mapping.NewModel("Item").Attribute("n", mapping.Integer)
	list := mapping.NewModel("List").Instances("items", item).Sort("n", mapping.Ascending)
	list.XML().Ordered()

	var sortErr *mapping.SortingConfigurationConflictError
	require.ErrorAs(t, list.Err(), &sortErr)
	assert.Equal(t, "List", sortErr.Model)
}

func TestModel_ExtendsCopiesOnDerive(t *testing.T) {
	base := mapping.NewModel("Animal").Attribute("name", mapping.String)
	base.KeyValue().Map("name", "name")
	base.XML().Root("Animal").MapElement("name", "name")

	dog := mapping.NewModel("Dog", mapping.Extends(base)).Attribute("breed", mapping.String)
	dog.KeyValue().Map("breed", "breed")

	_, ok := base.KeyValue().Find("breed")
	assert.False(t, ok, "child rules must not leak into the parent")

	_, ok = dog.KeyValue().Find("name")
	assert.True(t, ok)
	assert.Equal(t, "Dog", dog.XMLMapping().RootName())
	assert.Equal(t, "Animal", base.XMLMapping().RootName())
	assert.True(t, dog.IsA(base))
	assert.False(t, base.IsA(dog))
	assert.Len(t, dog.Attributes(), 2)
	assert.Len(t, base.Attributes(), 1)
}

func TestModel_Import(t *testing.T) {
	stamp := mapping.NewModel("Stamp").
		Attribute("created", mapping.String).
		Attribute("updated", mapping.String)
	stamp.KeyValue().Map("created_at", "created").Map("updated_at", "updated")

	doc := mapping.NewModel("Doc").Attribute("title", mapping.String)
	doc.KeyValue().Map("title", "title")
	doc.Import(stamp)

	require.NoError(t, doc.Err())
	names := make([]string, 0)
	for _, r := range doc.KeyValueMapping(mapping.FormatJSON).Rules() {
		names = append(names, r.Name())
	}
	assert.Equal(t, []string{"title", "created_at", "updated_at"}, names)
	_, ok := doc.Attr("updated")
	assert.True(t, ok)
}

func TestModel_DefaultMappings(t *testing.T) {
	m := mapping.NewModel("Point").
		Attribute("x", mapping.Integer).
		Attribute("y", mapping.Integer)

	kv := m.KeyValueMapping(mapping.FormatYAML)
	require.Len(t, kv.Rules(), 2)
	assert.Equal(t, "x", kv.Rules()[0].Name())

	x := m.XMLMapping()
	assert.Equal(t, "Point", x.RootName())
	assert.Len(t, x.Elements(), 2)

	m.KeyValueFor(mapping.FormatTOML).Map("X", "x")
	assert.Len(t, m.KeyValueMapping(mapping.FormatTOML).Rules(), 1)
	assert.Len(t, m.KeyValueMapping(mapping.FormatJSON).Rules(), 2)
}

func TestInstance_GetSet(t *testing.T) {
	m := mapping.NewModel("M").
		Attribute("name", mapping.String).
		Attribute("tags", mapping.String, mapping.CollectionAny(), mapping.InitializeEmpty()).
		Attribute("lang", mapping.String, mapping.Default("en")).
		Attribute("upper", mapping.String, mapping.Derived(func(i *mapping.Instance) any {
			return "N:" + i.Get("name").(string)
		}))

	inst := m.MustBuild(map[string]any{"name": "x"})

	assert.Equal(t, "x", inst.Get("name"))
	assert.Equal(t, []any{}, inst.Get("tags"))
	assert.True(t, inst.UsingDefault("tags"))
	assert.Equal(t, "en", inst.Get("lang"))
	assert.Equal(t, "N:x", inst.Get("upper"))
	assert.True(t, mapping.IsUninitialized(inst.Get("missing")))

	var unknown *mapping.UnknownAttributeError
	require.ErrorAs(t, inst.Set("nope", 1), &unknown)
	assert.Equal(t, "Attribute 'nope' not found in M", unknown.Error())

	_, err := m.Build(map[string]any{"nope": 1})
	assert.Error(t, err)
}

func TestInstance_Sort(t *testing.T) {
	item := mapping.NewModel("Item").Attribute("n", mapping.Integer)
	list := mapping.NewModel("List").Instances("items", item).Sort("n", mapping.Descending)

	inst := list.MustBuild(map[string]any{"items": []any{
		item.MustBuild(map[string]any{"n": 1}),
		item.MustBuild(map[string]any{"n": 3}),
		item.MustBuild(map[string]any{"n": 2}),
	}})

	var got []any
	for _, it := range inst.Get("items").([]any) {
		got = append(got, it.(*mapping.Instance).Get("n"))
	}
	assert.Equal(t, []any{3, 2, 1}, got)
}

func TestRule_DeserializeOrder(t *testing.T) {
	address := mapping.NewModel("Address").Attribute("city", mapping.String)
	person := mapping.NewModel("Person").
		Attribute("name", mapping.String).
		Attribute("address", address)

	person.KeyValue().
		Map("name", "name", mapping.WithMethods(mapping.Methods{
			From: func(inst *mapping.Instance, v any) error {
				return inst.Set("name", "custom:"+v.(string))
			},
		})).
		Map("city", "city", mapping.Delegate("address"))

	inst := person.New()
	kv := person.KeyValueMapping(mapping.FormatJSON)

	name, _ := kv.Find("name")
	require.NoError(t, name.Deserialize(inst, "Ann", mapping.FormatJSON))
	assert.Equal(t, "custom:Ann", inst.Get("name"))

	city, _ := kv.Find("city")
	require.NoError(t, city.Deserialize(inst, "Oslo", mapping.FormatJSON))
	addr, ok := inst.Get("address").(*mapping.Instance)
	require.True(t, ok, "delegate instance is created on demand")
	assert.Equal(t, "Oslo", addr.Get("city"))
	assert.Equal(t, "Oslo", city.Serialize(inst))
}

func TestRule_DeserializeUnknownTarget(t *testing.T) {
	m := mapping.NewModel("M").Attribute("a", mapping.String)
	m.KeyValue().Map("b", "b")
	r, _ := m.KeyValue().Find("b")

	err := r.Deserialize(m.New(), "x", mapping.FormatJSON)
	var unknown *mapping.UnknownAttributeError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "Attribute 'b' not found in M", err.Error())
}

func TestRegistry(t *testing.T) {
	animal := mapping.NewModel("Animal").Attribute("name", mapping.String)
	dog := mapping.NewModel("Dog", mapping.Extends(animal))
	zoo := mapping.NewModel("Zoo").Attribute("star", animal)

	reg := mapping.NewRegistry()
	require.NoError(t, reg.Register(zoo, dog))

	got, ok := reg.Lookup("Animal")
	require.True(t, ok, "nested models are registered with their owner")
	assert.Same(t, animal, got)
	assert.Equal(t, []string{"Animal", "Dog", "Zoo"}, reg.Names())
	assert.Len(t, reg.Subtypes(animal), 2)

	assert.Error(t, reg.Register(mapping.NewModel("Dog")))
	assert.NoError(t, reg.Register(dog), "re-registering the same model is a no-op")
}

package mapping_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shapemap/mapping"
)

func TestValidate_CollectionRange(t *testing.T) {
	kiln := mapping.NewModel("Kiln").
		Attribute("name", mapping.String).
		Attribute("sensors", mapping.String, mapping.Collection(1, 3)).
		Attribute("operators", mapping.String, mapping.Collection(1, mapping.Unbounded))

	err := kiln.MustBuild(map[string]any{"sensors": []any{}}).Validate()
	require.Error(t, err)

	var verr *mapping.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, err.Error(), "sensors count is 0, must be between 1 and 3")

	var countErr *mapping.CollectionCountOutOfRangeError
	require.ErrorAs(t, err, &countErr)
	assert.Equal(t, "sensors", countErr.Attribute)

	err = kiln.MustBuild(map[string]any{"operators": []any{}}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "operators count is 0, must be at least 1")

	ok := kiln.MustBuild(map[string]any{
		"sensors":   []any{"a", "b"},
		"operators": []any{"x", "y", "z", "w"},
	})
	assert.NoError(t, ok.Validate())
}

func zoo() (animal, dog, cat, rabbit, zooModel *mapping.Model) {
	animal = mapping.NewModel("Animal").Attribute("name", mapping.String)
	dog = mapping.NewModel("Dog", mapping.Extends(animal))
	cat = mapping.NewModel("Cat", mapping.Extends(animal))
	rabbit = mapping.NewModel("Rabbit", mapping.Extends(animal))
	zooModel = mapping.NewModel("Zoo").
		Attribute("pets", animal, mapping.CollectionAny(), mapping.Polymorphic("Dog", "Cat")).
		Attribute("star", animal, mapping.PolymorphicAny())
	return animal, dog, cat, rabbit, zooModel
}

func TestValidate_Polymorphic(t *testing.T) {
	_, dog, cat, rabbit, zooModel := zoo()

	good := zooModel.MustBuild(map[string]any{
		"pets": []any{dog.New(), cat.New()},
		"star": rabbit.New(),
	})
	assert.NoError(t, good.Validate())

	bad := zooModel.MustBuild(map[string]any{
		"pets": []any{dog.New(), rabbit.New()},
	})
	err := bad.Validate()
	require.Error(t, err)

	var polyErr *mapping.PolymorphicError
	require.ErrorAs(t, err, &polyErr)
	assert.Equal(t, "Rabbit", polyErr.Model)
	assert.Equal(t, []string{"Dog", "Cat"}, polyErr.Allowed)

	stranger := mapping.NewModel("Rock")
	bad = zooModel.MustBuild(map[string]any{"star": stranger.New()})
	require.ErrorAs(t, bad.Validate(), &polyErr)
	assert.Equal(t, "Rock", polyErr.Model)
}

func TestValidate_RequiredAndChoice(t *testing.T) {
	contact := mapping.NewModel("Contact").
		Attribute("name", mapping.String, mapping.Required()).
		Attribute("email", mapping.String).
		Attribute("phone", mapping.String).
		Choice(1, 1, "email", "phone")

	require.NoError(t, contact.Err())

	err := contact.New().Validate()
	require.Error(t, err)

	var missing *mapping.RequiredAttributeMissingError
	assert.ErrorAs(t, err, &missing)
	var lower *mapping.ChoiceLowerBoundError
	assert.ErrorAs(t, err, &lower)

	err = contact.MustBuild(map[string]any{
		"name": "Ann", "email": "a@example.com", "phone": "123",
	}).Validate()
	var upper *mapping.ChoiceUpperBoundError
	require.ErrorAs(t, err, &upper)
	assert.Equal(t, 1, upper.Max)

	assert.NoError(t, contact.MustBuild(map[string]any{"name": "Ann", "phone": "123"}).Validate())
}

func TestValidate_Nested(t *testing.T) {
	inner := mapping.NewModel("Inner").Attribute("v", mapping.String, mapping.Required())
	outer := mapping.NewModel("Outer").Attribute("inner", inner)

	err := outer.MustBuild(map[string]any{"inner": inner.New()}).Validate()
	var missing *mapping.RequiredAttributeMissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "Inner", missing.Model)
}

func TestValidate_UnknownChoiceAttribute(t *testing.T) {
	m := mapping.NewModel("M").Attribute("a", mapping.String).Choice(0, 1, "a", "b")

	var unknown *mapping.UnknownAttributeError
	require.ErrorAs(t, m.Err(), &unknown)
	assert.Equal(t, "b", unknown.Attribute)
}

package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewValueMap_Defaults(t *testing.T) {
	vm := NewValueMap(Policies{})

	assert.Equal(t, StateOmitted, vm.Resolve(Export, StateNil))
	assert.Equal(t, StateEmpty, vm.Resolve(Export, StateEmpty))
	assert.Equal(t, StateOmitted, vm.Resolve(Export, StateOmitted))
	assert.Equal(t, StateNil, vm.Resolve(Import, StateNil))
	assert.Equal(t, StateEmpty, vm.Resolve(Import, StateEmpty))
	assert.Equal(t, StateOmitted, vm.Resolve(Import, StateOmitted))
	assert.Equal(t, StatePresent, vm.Resolve(Export, StatePresent))
}

func TestNewValueMap_Policies(t *testing.T) {
	tests := []struct {
		name     string
		policies Policies
		dir      Direction
		in       ValueState
		want     ValueState
	}{
		{"render nil as nil", Policies{RenderNil: AsNil}, Export, StateNil, StateNil},
		{"render nil as empty", Policies{RenderNil: AsEmpty}, Export, StateNil, StateEmpty},
		{"render nil as blank", Policies{RenderNil: AsBlank}, Export, StateNil, StateEmpty},
		{"render empty omitted", Policies{RenderEmpty: Omit}, Export, StateEmpty, StateOmitted},
		{"render empty as nil", Policies{RenderEmpty: AsNil}, Export, StateEmpty, StateNil},
		{"treat nil omitted", Policies{TreatNil: Omit}, Import, StateNil, StateOmitted},
		{"treat empty as nil", Policies{TreatEmpty: AsNil}, Import, StateEmpty, StateNil},
		{"treat omitted as nil", Policies{TreatOmitted: AsNil}, Import, StateOmitted, StateNil},
		{"treat omitted as empty", Policies{TreatOmitted: AsEmpty}, Import, StateOmitted, StateEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewValueMap(tt.policies).Resolve(tt.dir, tt.in))
		})
	}
}

func TestValueMap_Override(t *testing.T) {
	r := &Rule{}
	WithValueMap(ValueMap{Export: map[ValueState]ValueState{StateNil: StateNil}})(r)

	vm := r.ValueMap(nil)
	assert.Equal(t, StateNil, vm.Resolve(Export, StateNil))
	assert.Equal(t, StateEmpty, vm.Resolve(Export, StateEmpty))

	call := &ValueMap{Export: map[ValueState]ValueState{StateEmpty: StateOmitted}}
	vm = r.ValueMap(call)
	assert.Equal(t, StateNil, vm.Resolve(Export, StateNil))
	assert.Equal(t, StateOmitted, vm.Resolve(Export, StateEmpty))

	// the rule's own table is untouched by the call override
	assert.Equal(t, StateEmpty, r.ValueMap(nil).Resolve(Export, StateEmpty))
}

func TestClassify(t *testing.T) {
	var nilSlice []any
	var nilInst *Instance

	assert.Equal(t, StateOmitted, Classify(Uninitialized))
	assert.Equal(t, StateNil, Classify(nil))
	assert.Equal(t, StateNil, Classify(nilSlice))
	assert.Equal(t, StateNil, Classify(nilInst))
	assert.Equal(t, StateEmpty, Classify(""))
	assert.Equal(t, StateEmpty, Classify([]any{}))
	assert.Equal(t, StateEmpty, Classify(map[string]any{}))
	assert.Equal(t, StatePresent, Classify("x"))
	assert.Equal(t, StatePresent, Classify(0))
	assert.Equal(t, StatePresent, Classify(false))
	assert.Equal(t, StatePresent, Classify([]any{1}))
}

func TestRule_RenderAndTreat(t *testing.T) {
	m := NewModel("Doc").
		Attribute("title", String).
		Attribute("lang", String, Default("en"))

	inst := m.New()
	plain := &Rule{names: []string{"title"}, to: "title"}

	assert.False(t, plain.Render(nil, inst, nil), "nil is omitted by default")
	assert.True(t, plain.Render("", inst, nil), "empty renders as empty by default")
	assert.False(t, plain.Render(Uninitialized, inst, nil))
	assert.True(t, plain.Render("Hello", inst, nil))

	asNil := &Rule{names: []string{"title"}, to: "title"}
	RenderNil(AsNil)(asNil)
	assert.True(t, asNil.Render(nil, inst, nil))
	assert.Equal(t, StateNil, asNil.ExportState(nil, nil))

	omitEmpty := &Rule{names: []string{"title"}, to: "title"}
	RenderEmpty(Omit)(omitEmpty)
	assert.False(t, omitEmpty.Render("", inst, nil))

	assert.True(t, plain.Treat(nil, nil))
	assert.True(t, plain.Treat("", nil))
	assert.False(t, plain.Treat(Uninitialized, nil))

	dropNil := &Rule{names: []string{"title"}, to: "title"}
	TreatNil(Omit)(dropNil)
	assert.False(t, dropNil.Treat(nil, nil))
	assert.True(t, dropNil.Treat("x", nil))
}

func TestRule_RenderOverride(t *testing.T) {
	m := NewModel("Doc").Attribute("title", String)
	inst := m.New()

	asNil := &Rule{names: []string{"title"}, to: "title"}
	RenderNil(AsNil)(asNil)
	plain := &Rule{names: []string{"title"}, to: "title"}

	omitNil := &ValueMap{Export: map[ValueState]ValueState{StateNil: StateOmitted}}
	keepNil := &ValueMap{Export: map[ValueState]ValueState{StateNil: StateNil}}

	assert.False(t, asNil.Render(nil, inst, omitNil))
	assert.True(t, plain.Render(nil, inst, keepNil))
	assert.Equal(t, StateNil, plain.ExportState(nil, keepNil))

	dropNil := &ValueMap{Import: map[ValueState]ValueState{StateNil: StateOmitted}}
	assert.False(t, plain.Treat(nil, dropNil))
	assert.Equal(t, StateOmitted, plain.ImportState(nil, dropNil))
}

func TestRule_RenderDefault(t *testing.T) {
	m := NewModel("Doc").Attribute("lang", String, Default("en"))
	inst := m.New()

	quiet := &Rule{names: []string{"lang"}, to: "lang"}
	loud := &Rule{names: []string{"lang"}, to: "lang"}
	RenderDefault()(loud)

	assert.True(t, inst.UsingDefault("lang"))
	assert.False(t, quiet.Render(inst.Get("lang"), inst, nil))
	assert.True(t, loud.Render(inst.Get("lang"), inst, nil))

	inst.MustSet("lang", "en")
	assert.False(t, inst.UsingDefault("lang"))
	assert.True(t, quiet.Render(inst.Get("lang"), inst, nil))
}

package mapping

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tagTransformer struct {
	tag string
}

func (t tagTransformer) To(v any, _ Format) (any, error) {
	return fmt.Sprintf("%v>%s.to", v, t.tag), nil
}

func (t tagTransformer) From(v any, _ Format) (any, error) {
	return fmt.Sprintf("%v>%s.from", v, t.tag), nil
}

type failingTransformer struct{}

func (failingTransformer) To(any, Format) (any, error) { return nil, errors.New("boom") }

func (failingTransformer) From(any, Format) (any, error) { return nil, errors.New("boom") }

func tagFunc(tag string) func(any) any {
	return func(v any) any { return fmt.Sprintf("%v>%s", v, tag) }
}

func orderingFixture() (*Rule, *Attribute) {
	attr := &Attribute{name: "v", typ: String}
	WithAttributeTransform(Transform{
		Class:  tagTransformer{tag: "attrClass"},
		Export: tagFunc("attrExport"),
		Import: tagFunc("attrImport"),
	})(attr)

	rule := &Rule{names: []string{"v"}, to: "v"}
	WithTransform(Transform{
		Class:  tagTransformer{tag: "ruleClass"},
		Export: tagFunc("ruleExport"),
		Import: tagFunc("ruleImport"),
	})(rule)

	return rule, attr
}

func TestExportValue_Order(t *testing.T) {
	rule, attr := orderingFixture()

	got, err := ExportValue("x", rule, attr, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "x>attrClass.to>ruleClass.to>attrExport>ruleExport", got)
}

func TestImportValue_Order(t *testing.T) {
	rule, attr := orderingFixture()

	got, err := ImportValue("x", rule, attr, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "x>ruleClass.from>attrClass.from>ruleImport>attrImport", got)
}

func TestImportValue_OnlyOneSide(t *testing.T) {
	rule := &Rule{to: "v"}
	WithTransform(TransformFuncs(nil, tagFunc("in")))(rule)

	got, err := ExportValue("x", rule, nil, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "x", got)

	got, err = ImportValue("x", rule, nil, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "x>in", got)
}

func TestExportValue_ClassError(t *testing.T) {
	rule := &Rule{to: "v"}
	WithTransform(Transform{Class: failingTransformer{}})(rule)

	_, err := ExportValue("x", rule, nil, FormatJSON)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

package xmlmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shapemap/mapping"
	"shapemap/xmlns"
)

var (
	dcNS    = xmlns.New("http://purl.org/dc/elements/1.1/", "dc")
	booksNS = xmlns.New("http://example.com/books", "bk")
)

func bookModel() *mapping.Model {
	m := mapping.NewModel("Book").
		Attribute("title", mapping.WithNamespace(mapping.String, dcNS)).
		Attribute("lang", mapping.WithNamespace(mapping.String, dcNS)).
		Attribute("isbn", mapping.String)
	m.XML().Root("book").Namespace(booksNS.URI, booksNS.Prefix).
		MapElement("title", "title").
		MapAttribute("lang", "lang").
		MapAttribute("isbn", "isbn")
	return m
}

func TestCollectTypeNamespaces(t *testing.T) {
	m := bookModel()
	refs := CollectTypeNamespaces(m, m.XMLMapping())
	require.Len(t, refs, 2)

	assert.Equal(t, "title", refs[0].Attribute)
	assert.False(t, refs[0].IsAttribute)
	assert.Equal(t, "book", refs[0].Context)
	assert.Equal(t, dcNS.URI, refs[0].Namespace.URI)

	assert.Equal(t, "lang", refs[1].Attribute)
	assert.True(t, refs[1].IsAttribute)
}

func TestCollectTypeNamespaces_SkipsExplicitNamespace(t *testing.T) {
	m := mapping.NewModel("Book").Attribute("title", mapping.WithNamespace(mapping.String, dcNS))
	m.XML().MapElement("title", "title", mapping.Namespace(booksNS))
	assert.Empty(t, CollectTypeNamespaces(m, m.XMLMapping()))
}

func TestResolveReference(t *testing.T) {
	elem := Reference{Namespace: dcNS}
	attr := Reference{Namespace: dcNS, IsAttribute: true}

	assert.False(t, resolveReference(elem, dcNS), "element inherits the enclosing namespace")
	assert.True(t, resolveReference(elem, booksNS))
	assert.True(t, resolveReference(elem, nil))
	assert.True(t, resolveReference(attr, dcNS), "attributes never inherit")
}

func TestPlanner_Plan(t *testing.T) {
	m := bookModel()
	refs := CollectTypeNamespaces(m, m.XMLMapping())

	t.Run("declares once per uri", func(t *testing.T) {
		p := NewPlanner(nil, nil)
		decls := p.Plan(refs)
		require.Len(t, decls, 1)
		assert.Equal(t, "dc", decls[0].Prefix)
		assert.Equal(t, PlacementParent, decls[0].Placement)

		prefix, ok := p.Prefix(dcNS.URI)
		require.True(t, ok)
		assert.Equal(t, "dc", prefix)
	})

	t.Run("existing declaration is reused", func(t *testing.T) {
		p := NewPlanner(map[string]string{dcNS.URI: "purl"}, nil)
		assert.Empty(t, p.Plan(refs))

		prefix, _ := p.Prefix(dcNS.URI)
		assert.Equal(t, "purl", prefix)
	})

	t.Run("taken prefix generates one from the context", func(t *testing.T) {
		p := NewPlanner(map[string]string{"http://example.com/other": "dc"}, nil)
		decls := p.Plan(refs)
		require.Len(t, decls, 1)
		assert.Equal(t, "tnbook1", decls[0].Prefix)
	})

	t.Run("scoped namespace goes to the root", func(t *testing.T) {
		p := NewPlanner(nil, []xmlns.ScopeEntry{{Namespace: dcNS, Mode: xmlns.ScopeAlways}})
		decls := p.Plan(refs)
		require.Len(t, decls, 1)
		assert.Equal(t, PlacementRoot, decls[0].Placement)
	})

	t.Run("attribute reference is declared inline", func(t *testing.T) {
		p := NewPlanner(nil, nil)
		decls := p.Plan(refs[1:])
		require.Len(t, decls, 1)
		assert.Equal(t, PlacementInline, decls[0].Placement)
		assert.Equal(t, "inline", decls[0].Placement.String())
	})
}

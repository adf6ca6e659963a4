package xmlmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shapemap/xmlns"
	"shapemap/xmltree"
)

var (
	nsA = xmlns.New("http://example.com/a", "a")
	nsB = xmlns.New("http://example.com/b", "b")
	nsN = xmlns.New("http://example.com/n", "")
)

func TestResolver_DefaultNamespaces(t *testing.T) {
	root := newElement("root", nsA)
	same := newElement("same", nsA)
	other := newElement("other", nsB)
	root.addChild(same)
	root.addChild(other)

	require.NoError(t, NewResolver(nil, xmlns.Options{}, nil).Resolve(root))

	assert.Equal(t, []xmltree.Decl{{URI: nsA.URI}}, root.node.Decls)
	assert.Empty(t, same.node.Decls)
	assert.Equal(t, "", same.node.Prefix)
	assert.Equal(t, []xmltree.Decl{{URI: nsB.URI}}, other.node.Decls)
}

func TestResolver_PrefixOption(t *testing.T) {
	root := newElement("root", nsA)
	child := newElement("child", nsA)
	root.addChild(child)

	opts := xmlns.Options{Prefix: xmlns.PrefixEnabled(true), AlwaysPrefix: true}
	require.NoError(t, NewResolver(nil, opts, nil).Resolve(root))

	assert.Equal(t, "a", root.node.Prefix)
	assert.Equal(t, []xmltree.Decl{{Prefix: "a", URI: nsA.URI}}, root.node.Decls)
	assert.Equal(t, "a", child.node.Prefix)
	assert.Empty(t, child.node.Decls)
}

func TestResolver_GeneratedPrefix(t *testing.T) {
	root := newElement("root", nsN)

	opts := xmlns.Options{Prefix: xmlns.PrefixEnabled(true), AlwaysPrefix: true}
	require.NoError(t, NewResolver(nil, opts, nil).Resolve(root))

	assert.Equal(t, "ns1", root.node.Prefix)
	assert.Equal(t, []xmltree.Decl{{Prefix: "ns1", URI: nsN.URI}}, root.node.Decls)
}

func TestResolver_NoNamespaceChildResetsDefault(t *testing.T) {
	root := newElement("root", nsA)
	plain := newElement("plain", nil)
	root.addChild(plain)

	require.NoError(t, NewResolver(nil, xmlns.Options{}, nil).Resolve(root))

	assert.Equal(t, []xmltree.Decl{{}}, plain.node.Decls)
}

func TestResolver_QualifiedAttributes(t *testing.T) {
	root := newElement("root", nil)
	root.setAttr("nil", xmlns.XSI, "true")
	root.setAttr("id", nil, "1")

	require.NoError(t, NewResolver(nil, xmlns.Options{}, nil).Resolve(root))

	out, err := xmltree.Build(root.node, xmltree.BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, `<root xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xsi:nil="true" id="1"/>`, string(out))
}

func TestResolver_AttributeUsageForcesPrefix(t *testing.T) {
	root := newElement("root", nsB)
	root.setAttr("ref", nsB, "x")

	require.NoError(t, NewResolver(nil, xmlns.Options{}, nil).Resolve(root))

	assert.Equal(t, "b", root.node.Prefix)
	require.Len(t, root.node.Attrs, 1)
	assert.Equal(t, "b", root.node.Attrs[0].Prefix)
	assert.Equal(t, []xmltree.Decl{{Prefix: "b", URI: nsB.URI}}, root.node.Decls)
}

func TestResolver_ScopeDeclaresOnRoot(t *testing.T) {
	root := newElement("root", nsA)
	child := newElement("child", nsB)
	root.addChild(child)

	opts := xmlns.Options{Scope: []xmlns.ScopeEntry{{Namespace: nsB, Mode: xmlns.ScopeAlways}}}
	require.NoError(t, NewResolver(nil, opts, nil).Resolve(root))

	out, err := xmltree.Build(root.node, xmltree.BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, `<root xmlns:b="http://example.com/b" xmlns="http://example.com/a"><b:child/></root>`, string(out))
}

func TestResolver_NestedSameNamespaceChain(t *testing.T) {
	build := func() (*element, *element, *element) {
		root := newElement("root", nsA)
		child := newElement("child", nsA)
		leaf := newElement("leaf", nsA)
		child.addChild(leaf)
		root.addChild(child)
		return root, child, leaf
	}

	t.Run("default form is declared once", func(t *testing.T) {
		root, child, leaf := build()
		require.NoError(t, NewResolver(nil, xmlns.Options{}, nil).Resolve(root))

		assert.Equal(t, []xmltree.Decl{{URI: nsA.URI}}, root.node.Decls)
		for _, e := range []*element{child, leaf} {
			assert.Equal(t, "", e.node.Prefix)
			assert.Empty(t, e.node.Decls)
		}
	})

	t.Run("prefix form is inherited down the chain", func(t *testing.T) {
		root, child, leaf := build()
		opts := xmlns.Options{Prefix: xmlns.PrefixEnabled(true), AlwaysPrefix: true}
		require.NoError(t, NewResolver(nil, opts, nil).Resolve(root))

		for _, e := range []*element{root, child, leaf} {
			assert.Equal(t, "a", e.node.Prefix)
		}
		assert.Empty(t, child.node.Decls)
		assert.Empty(t, leaf.node.Decls)
	})
}

func TestResolver_PrefixBoundToOtherURIOnElement(t *testing.T) {
	root := newElement("root", nsA)
	root.node.Declare("a", "urn:taken")

	opts := xmlns.Options{Prefix: xmlns.PrefixEnabled(true), AlwaysPrefix: true}
	require.NoError(t, NewResolver(nil, opts, nil).Resolve(root))

	assert.Equal(t, "ns1", root.node.Prefix)
	assert.Equal(t, []xmltree.Decl{{Prefix: "a", URI: "urn:taken"}, {Prefix: "ns1", URI: nsA.URI}}, root.node.Decls)

	uri, ok := root.node.Declared("ns1")
	require.True(t, ok)
	assert.Equal(t, nsA.URI, uri)
}

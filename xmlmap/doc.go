// Package xmlmap transforms model instances to and from XML node trees.
//
// Export runs in two passes. The first builds an element tree from the
// model's XML mapping; every element knows its namespace but not yet its
// prefix. The Resolver then walks the tree top down, asks the xmlns
// decision engine how each element is written, places type namespace
// declarations and emits the xmlns attributes.
//
// Import reads an xmltree node back into an instance, validating element
// sequences and capturing what a faithful round trip needs: namespace
// forms, xsi:schemaLocation and, for ordered mappings, element order.
package xmlmap

// Package inline rewrites a class-annotated HTML subtree into a class-free,
// inline-styled subtree under a chosen theme. The output depends on no
// stylesheet, so the serialized markup survives hosts that strip <style>
// blocks and class attributes.
package inline

import (
	"errors"
	"strings"

	"golang.org/x/net/html"

	"github.com/snippress/snippress/internal/theme"
)

// RootMarker is the single class left on the root element in debug mode. It
// gives a CSS-free fallback a stable hook on "the rendered block".
const RootMarker = "snippet"

// ErrInvalidRoot reports a precondition violation: materialization was asked
// to start from nil or a non-element node.
var ErrInvalidRoot = errors.New("inline: root must be an element node")

// Options control materialization behavior.
type Options struct {
	// KeepClasses retains class attributes alongside the inline styles, for
	// theme-authoring inspection. Never enabled in shipped artifacts.
	KeepClasses bool
}

// Materialize converts root and every element beneath it to inline styling
// under th, mutating the subtree in place.
//
// The root element gets the theme's root style and the RootMarker class; its
// own token classes, if any, are not applied. Every descendant element has
// its inline style cleared, then rebuilt from its token classes in attribute
// order with last-write-wins conflict resolution, then its class attribute
// removed unless Options.KeepClasses is set.
//
// Materialization is idempotent: the per-element reset means running it again
// with the same theme reproduces the identical result, and running it with a
// different theme leaves nothing of the previous one behind.
func Materialize(root *html.Node, th *theme.Theme, opts Options) error {
	if root == nil || root.Type != html.ElementNode {
		return ErrInvalidRoot
	}

	// Collect before mutating so attribute rewrites cannot affect which
	// elements are visited.
	elements := collectElements(root)

	setAttr(root, "class", RootMarker)
	removeAttr(root, "style")
	if css := th.Root.CSS(); css != "" {
		setAttr(root, "style", css)
	}

	for _, el := range elements {
		if el != root {
			applyTokenStyles(el, th)
		}
		if !opts.KeepClasses {
			removeAttr(el, "class")
		}
	}
	return nil
}

// applyTokenStyles resets the element's inline style and rebuilds it from the
// element's token classes. The reset runs on every pass, not only on theme
// change: a fresh tree already guarantees no leakage, but the reset keeps the
// engine safe even if that guarantee is ever violated.
func applyTokenStyles(el *html.Node, th *theme.Theme) {
	removeAttr(el, "style")

	var merged theme.Style
	for _, class := range strings.Fields(attrValue(el, "class")) {
		for _, d := range th.TokenStyle(class) {
			merged = merged.Set(d.Property, d.Value)
		}
	}

	if css := merged.CSS(); css != "" {
		setAttr(el, "style", css)
	}
}

// collectElements walks the subtree depth-first in document order and returns
// every element exactly once, root included.
func collectElements(root *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

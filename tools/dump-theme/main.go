// Package main dumps a theme's resolved style table for theme authoring.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/snippress/snippress/internal/theme"
)

func main() {
	id := "toxic"
	if len(os.Args) > 1 {
		id = os.Args[1]
	}

	reg := theme.Builtin()
	th := reg.Resolve(id)
	if th.Meta.ID != id && id != "" {
		fmt.Fprintf(os.Stderr, "theme %q not found, showing fallback %q\n", id, th.Meta.ID)
	}

	fmt.Printf("# %s (%s)\n", th.Meta.Name, th.Meta.ID)
	fmt.Printf("root   %s\n", th.Root.CSS())
	fmt.Printf("footer %s\n", th.Footer.CSS())

	classes := make([]string, 0, len(th.Tokens))
	for class := range th.Tokens {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	for _, class := range classes {
		fmt.Printf("%-6s %s\n", class, th.Tokens[class].CSS())
	}
}

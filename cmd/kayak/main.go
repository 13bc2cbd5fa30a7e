// Command kayak expands //kayak:rsx markup directives into Go source.
package main

import (
	"fmt"
	"os"

	"github.com/go-drift/kayak/cmd/kayak/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

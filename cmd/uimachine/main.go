// Command uimachine renders widget state graphs and replays event scripts
// against them.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newApp().rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Command filevault runs the file-vault engine: the HTTP download server,
// schema migrations, and operator admin actions.
package main

import (
	"fmt"
	"os"

	"github.com/productinventor/filevault/cmd/filevault/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

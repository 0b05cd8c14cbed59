// Command efmigrate scaffolds migration files. Database commands need the
// migrations compiled in, so projects build their own binary that imports
// their migrations package and calls efmigrate.Execute.
package main

import (
	"os"

	"github.com/shepherrrd/efmigrate"
)

func main() {
	if err := efmigrate.Execute(); err != nil {
		os.Exit(1)
	}
}

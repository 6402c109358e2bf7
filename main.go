// The main package for the supermovie executable.
package main

import (
	"github.com/JakeFAU/supermovie/cmd"
)

func main() {
	cmd.Execute()
}

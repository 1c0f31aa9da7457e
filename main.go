// The main package for the cbosa executable.
package main

import (
	"github.com/pracownik123GWW/CbosaEmailSender/cmd"
)

func main() {
	cmd.Execute()
}

// ./main.go
package main

import (
	"github.com/xkilldash9x/domsvg/cmd"
)

func main() {
	cmd.Execute()
}

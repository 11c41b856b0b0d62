package main

import (
	_ "github.com/KimMachineGun/automemlimit"

	"blairpng/cmd"
)

func main() {
	cmd.Execute()
}

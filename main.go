package main

import (
	"github.com/kestrelsec/kestrel/cmd"
)

func main() {
	cmd.Execute()
}

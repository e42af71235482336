package main

import (
	"github.com/vybium/vybium-stark-verifier/cmd/stark-verifier/cmd"
)

func main() {
	cmd.Execute()
}

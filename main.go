package main

import (
	cmd "github.com/eduintel/grader/cmd/grader"
)

func main() {
	cmd.Execute()
}

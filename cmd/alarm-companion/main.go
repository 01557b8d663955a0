package main

import "github.com/oshokin/alarm-clock/cmd/alarm-companion/cmd"

func main() {
	cmd.Execute()
}

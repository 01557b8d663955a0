package main

import "github.com/oshokin/alarm-clock/cmd/alarm-engine/cmd"

func main() {
	cmd.Execute()
}

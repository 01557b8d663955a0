package main

import "github.com/oshokin/alarm-clock/cmd/alarm-control/cmd"

func main() {
	cmd.Execute()
}

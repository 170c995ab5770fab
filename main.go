package main

import "github.com/neumonitor/triage-api/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/zfogg/formdesk/internal/cli/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/Togather-Foundation/eventdesk/cmd/server/cmd"

func main() {
	cmd.Execute()
}

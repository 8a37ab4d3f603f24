package main

import "github.com/Mohsinsiddi/w3oracle/cmd"

func main() {
	cmd.Execute()
}

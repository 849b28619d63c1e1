package main

import "github.com/ValentinKolb/rfs/cmd"

func main() {
	cmd.Execute()
}

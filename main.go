package main

import "github.com/Manu343726/x86mini/cmd"

func main() {
	cmd.Execute()
}

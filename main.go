package main

import "github.com/shaan-hospital/apiserver/cmd"

func main() {
	cmd.Execute()
}

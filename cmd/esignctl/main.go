package main

import "go.pilab.hu/esign/cmd/esignctl/cmd"

func main() {
	cmd.Execute()
}

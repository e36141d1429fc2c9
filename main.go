package main

import "github.com/Alijeyrad/clinicflow_backend/cmd"

func main() {
	cmd.Execute()
}

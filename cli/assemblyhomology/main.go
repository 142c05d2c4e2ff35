package main

import (
	"os"

	homologycmder "github.com/scanon/AssemblyHomologyService/cmd/assemblyhomology"
)

func main() {
	cmd := homologycmder.NewAssemblyHomologyCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

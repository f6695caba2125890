package main

import "github.com/serroba/shortlink/internal/container"

func main() {
	container.NewCLI(container.RoleGenerator).Run()
}

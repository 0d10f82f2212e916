package main

import "github.com/grunt24/bcas-hrms/internal/app/server"

func main() {
	server.Run()
}

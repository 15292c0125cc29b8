package main

import "chatsaas_backend/internal/app"

func main() {
	app.Run()
}

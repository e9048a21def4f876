package main

import "medimind_backend/internal/app"

func main() {
	app.Run()
}

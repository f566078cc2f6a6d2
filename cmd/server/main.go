package main

import (
	"github.com/acadmate/livechat/internal/server"
)

func main() {
	s := server.NewServer()
	s.Run()
}

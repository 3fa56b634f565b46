package main

import (
	"context"

	"github.com/riclovato/furia-chatbot/cmd/furiactl/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}

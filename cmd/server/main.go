package main

import (
	"errors"
	"log"
	"os"

	"github.com/spf13/pflag"

	"postboard/internal/transport/http"
)

func main() {
	flags := pflag.NewFlagSet("postboard", pflag.ContinueOnError)
	envFile := flags.String("env-file", ".env", "dotenv file loaded before reading the environment")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("Invalid arguments: %v", err)
	}

	if err := http.Run(*envFile); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// main is the entry point for the firewatch CLI.
package main

import (
	"github.com/huangsam/firewatch/cmd"
	"github.com/huangsam/firewatch/internal/contract"
	"github.com/huangsam/firewatch/internal/store"
)

func main() {
	err := cmd.Execute()
	store.CloseStore()
	if err != nil {
		contract.LogFatal("Command failed", err)
	}
}

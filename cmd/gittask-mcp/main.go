// Command gittask-mcp exposes the task operations as JSON-RPC tools over
// stdin/stdout, one message per line, for editor and agent integrations.
package main

import (
	"fmt"
	"os"

	"github.com/entrhq/gittask/pkg/mcp"
)

func main() {
	workDir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "gittask-mcp: %v\n", err)
		os.Exit(1)
	}
	server := mcp.NewServer(os.Stdin, os.Stdout, workDir)
	if err := server.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "gittask-mcp: %v\n", err)
		os.Exit(1)
	}
}

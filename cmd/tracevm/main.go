// cmd/tracevm/main.go
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"tracevm/internal/httpapi"
	"tracevm/internal/replshell"
	"tracevm/internal/session"
	"tracevm/internal/trace"
)

const VERSION = "0.1.0"

var commandAliases = map[string]string{
	"s": "serve",
	"r": "repl",
	"t": "trace",
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		return
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	switch cmd {
	case "--help", "-h", "help":
		showUsage()
	case "--version", "-v", "version":
		showVersion()
	case "serve":
		runServe()
	case "repl":
		runRepl(args[1:])
	case "trace":
		runTrace(args[1:])
	default:
		fmt.Printf("unknown command: %s\n\n", args[0])
		showUsage()
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println("tracevm - C/C++ execution-trace engine")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  tracevm serve              Start the HTTP debug façade        (alias: s)")
	fmt.Println("  tracevm repl <file.cpp>    Step through a source file         (alias: r)")
	fmt.Println("  tracevm trace <file.cpp>   Print the traced state array as JSON (alias: t)")
	fmt.Println()
	fmt.Println("  tracevm --version          Show version")
	fmt.Println("  tracevm --help             Show this message")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  PORT                       HTTP port for 'serve' (default 5001)")
	fmt.Println("  TRACEVM_CXX                C++17 compiler binary (default g++)")
}

func showVersion() {
	fmt.Printf("tracevm v%s\n", VERSION)
}

func runServe() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "5001"
	}
	registry := session.NewRegistry()
	server := httpapi.NewServer(registry)
	mux := http.NewServeMux()
	server.Routes(mux)

	addr := ":" + port
	log.Printf("tracevm: listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("tracevm: serve failed: %v", err)
	}
}

func runRepl(args []string) {
	if len(args) < 1 {
		fmt.Println("usage: tracevm repl <file.cpp>")
		os.Exit(1)
	}
	source, err := os.ReadFile(args[0])
	if err != nil {
		log.Fatalf("tracevm: %v", err)
	}
	replshell.Start(string(source))
}

func runTrace(args []string) {
	if len(args) < 1 {
		fmt.Println("usage: tracevm trace <file.cpp>")
		os.Exit(1)
	}
	source, err := os.ReadFile(args[0])
	if err != nil {
		log.Fatalf("tracevm: %v", err)
	}
	states := trace.Run(string(source))
	wire := make([]httpapi.WireState, 0, len(states))
	for _, st := range states {
		wire = append(wire, httpapi.ToWireState(st))
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(wire); err != nil {
		log.Fatalf("tracevm: encode failed: %v", err)
	}
}

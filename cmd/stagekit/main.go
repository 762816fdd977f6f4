// Command stagekit is a thin client for inspecting a running stagekitd.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	addr := os.Getenv("STAGEKIT_ADDR")
	if addr == "" {
		addr = "http://127.0.0.1:8080"
	}

	var err error
	switch os.Args[1] {
	case "health":
		err = cmdGet(addr + "/v1/health")
	case "tracks":
		err = cmdGet(addr + "/v1/tracks")
	case "levels":
		if len(os.Args) < 3 {
			err = fmt.Errorf("usage: stagekit levels <track>")
		} else {
			err = cmdGet(addr + "/v1/tracks/" + os.Args[2] + "/levels")
		}
	case "attempts":
		if len(os.Args) < 4 {
			err = fmt.Errorf("usage: stagekit attempts <track> <level>")
		} else {
			err = cmdGet(addr + "/v1/tracks/" + os.Args[2] + "/levels/" + os.Args[3] + "/attempts")
		}
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Printf("stagekit %s\n", Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func cmdGet(url string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("is stagekitd running? %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var pretty json.RawMessage = body
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		fmt.Println(string(body))
		return nil
	}
	fmt.Println(string(out))
	return nil
}

func printUsage() {
	fmt.Println(`stagekit - block exercise daemon client

Usage:
  stagekit health           Check daemon health
  stagekit tracks           List loaded tracks
  stagekit levels <track>   List levels in a track
  stagekit attempts <track> <level>
                            List recorded attempts for a level
  stagekit version          Print version

Environment:
  STAGEKIT_ADDR             Daemon address (default http://127.0.0.1:8080)`)
}

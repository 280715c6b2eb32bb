// Command cli talks to a running pagesci server: it submits push events
// and checks run status and history integrity.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"pagesci/internal/core"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  cli event  -server <url> -branch <name> [-commit <sha>] [-repo <path>]")
	fmt.Println("  cli run    -server <url> -id <run-id>")
	fmt.Println("  cli verify -server <url>")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "event":
		fs := flag.NewFlagSet("event", flag.ExitOnError)
		server := fs.String("server", "http://localhost:8080", "server URL")
		branch := fs.String("branch", "", "branch of the push event")
		commit := fs.String("commit", "", "commit of the push event")
		repo := fs.String("repo", ".", "source tree path")
		fs.Parse(os.Args[2:])

		if *branch == "" {
			fmt.Fprintln(os.Stderr, "event: -branch is required")
			os.Exit(2)
		}

		body, err := json.Marshal(core.Event{
			Type:     core.EventPush,
			Branch:   *branch,
			Commit:   *commit,
			RepoPath: *repo,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "event:", err)
			os.Exit(1)
		}

		resp, err := http.Post(*server+"/events", "application/json", bytes.NewReader(body))
		if err != nil {
			fmt.Fprintln(os.Stderr, "event: request failed:", err)
			os.Exit(1)
		}
		printResponse(resp)

	case "run":
		fs := flag.NewFlagSet("run", flag.ExitOnError)
		server := fs.String("server", "http://localhost:8080", "server URL")
		id := fs.String("id", "", "run id")
		fs.Parse(os.Args[2:])

		if *id == "" {
			fmt.Fprintln(os.Stderr, "run: -id is required")
			os.Exit(2)
		}
		resp, err := http.Get(*server + "/runs/" + *id)
		if err != nil {
			fmt.Fprintln(os.Stderr, "run: request failed:", err)
			os.Exit(1)
		}
		printResponse(resp)

	case "verify":
		fs := flag.NewFlagSet("verify", flag.ExitOnError)
		server := fs.String("server", "http://localhost:8080", "server URL")
		fs.Parse(os.Args[2:])

		resp, err := http.Get(*server + "/history/verify")
		if err != nil {
			fmt.Fprintln(os.Stderr, "verify: request failed:", err)
			os.Exit(1)
		}
		printResponse(resp)

	default:
		usage()
	}
}

func printResponse(resp *http.Response) {
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("%s %s\n", resp.Status, string(body))
	if resp.StatusCode >= 400 {
		os.Exit(1)
	}
}

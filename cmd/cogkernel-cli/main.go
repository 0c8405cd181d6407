package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "cogkernel server URL")
	flag.Parse()

	fmt.Println("cogkernel CLI")
	fmt.Printf("Server: %s\n", *server)
	fmt.Println("Type text to ingest it. Type '/status' for a snapshot, 'exit' or 'quit' to leave.")
	fmt.Println("---")

	fetchStatus(*server)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("Bye!")
			return
		}
		if input == "/status" {
			fetchStatus(*server)
			continue
		}

		sendInput(*server, input)
	}
}

func fetchStatus(server string) {
	resp, err := http.Get(server + "/status")
	if err != nil {
		printError("Failed to fetch status: %v", err)
		return
	}
	defer resp.Body.Close()

	var status statusRecord
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		printError("Failed to parse status: %v", err)
		return
	}
	printStatus(status)
}

func sendInput(server, text string) {
	body, _ := json.Marshal(map[string]string{"text": text})

	client := &http.Client{Timeout: 35 * time.Second}
	resp, err := client.Post(server+"/input", "application/json", bytes.NewReader(body))
	if err != nil {
		printError("Request failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		printError("Server error (%d): %s", resp.StatusCode, string(data))
		return
	}

	var status statusRecord
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		printError("Failed to parse response: %v", err)
		return
	}
	printStatus(status)
}

type statusRecord struct {
	Tick          int     `json:"Tick"`
	Mode          float64 `json:"Mode"`
	TopNodeID     string  `json:"TopNodeID"`
	TopActivation float64 `json:"TopActivation"`
	ActiveCount   int     `json:"ActiveCount"`
}

func printStatus(s statusRecord) {
	top := s.TopNodeID
	if top == "" {
		top = "-"
	}
	fmt.Printf("mode=%.2f top=%s(%.2f) active=%d\n", s.Mode, top, s.TopActivation, s.ActiveCount)
}

func printError(format string, args ...interface{}) {
	fmt.Printf("\033[31m"+format+"\033[0m\n", args...)
}

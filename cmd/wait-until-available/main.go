package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Usage example on the command line:
// > go run main.go -url=http://localhost:8080/contacts/ -timeout=2m
func main() {
	url := flag.String("url", "http://localhost:8080/contacts/", "the endpoint that has to answer with 200")
	timeout := flag.Duration("timeout", 5*time.Minute, "how long to wait at most")
	flag.Parse()

	totalWaitTime := 0
	deadline := time.Now().Add(*timeout)
	for {
		res, err := http.Get(*url)
		if err == nil {
			res.Body.Close()
			if res.StatusCode == http.StatusOK {
				fmt.Println(res.Status)
				break
			}
			fmt.Println(res.Status)
		} else {
			fmt.Println(err)
		}
		if time.Now().After(deadline) {
			fmt.Println("service did not become available in time")
			os.Exit(1)
		}
		totalWaitTime += 5
		fmt.Printf("Waiting %d seconds", totalWaitTime)
		fmt.Println()
		time.Sleep(5 * time.Second)
	}
}

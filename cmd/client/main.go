package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"gitlab.com/dirk.krummacker/contacts-api/internal/randomgen"
	"gitlab.com/dirk.krummacker/contacts-api/pkg/model"
)

// Usage example on the command line:
// > go run main.go -base=http://localhost:8080
func main() {
	base := flag.String("base", "http://localhost:8080", "the base URL of the contacts service")
	flag.Parse()

	fmt.Println()
	fmt.Println("  Elements      POST       PUT       GET    DELETE ")
	fmt.Println("---------------------------------------------------")
	sizes := []int{1000, 5000, 10000, 50000, 100000}
	for _, loops := range sizes {
		ids := make([]int64, 0, loops)
		fmt.Printf("%10d", loops)
		{
			// POST requests
			var duration int64
			for i := 0; i < loops; i++ {
				id, d := sendPostRequest(*base, randomContact())
				ids = append(ids, id)
				duration += d
			}
			fmt.Printf("%10d", duration/int64(loops*1000))
		}
		{
			// PUT requests
			f := func(id int64) int64 {
				body := fmt.Sprintf(`{"last_name": %q}`, randomgen.LastName())
				return sendPutGetDeleteRequest(*base, id, http.MethodPut, bytes.NewReader([]byte(body)))
			}
			callInLoop(ids, f)
		}
		{
			// GET requests
			f := func(id int64) int64 {
				return sendPutGetDeleteRequest(*base, id, http.MethodGet, nil)
			}
			callInLoop(ids, f)
		}
		{
			// DELETE requests
			f := func(id int64) int64 {
				return sendPutGetDeleteRequest(*base, id, http.MethodDelete, nil)
			}
			callInLoop(ids, f)
		}
		fmt.Println()
	}
}

// randomContact builds a contact whose email and phone number are not in the database yet.
func randomContact() model.Contact {
	birthday := randomgen.Birthday().Format(time.DateOnly)
	return model.Contact{
		FirstName:   randomgen.FirstName(),
		LastName:    randomgen.LastName(),
		Email:       randomgen.Email(),
		PhoneNumber: randomgen.PhoneNumber(),
		Birthday:    &birthday,
	}
}

func callInLoop(ids []int64, f func(id int64) int64) {
	shuffled := append([]int64(nil), ids...)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	var duration int64
	for _, id := range shuffled {
		duration += f(id)
	}
	fmt.Printf("%10d", duration/int64(len(ids)*1000))
}

func sendPostRequest(base string, contact model.Contact) (int64, int64) {
	jsonBody, err := json.Marshal(contact)
	if err != nil {
		fmt.Println("could not marshal JSON", err)
		panic(err)
	}
	resBody, duration := sendRequest(http.MethodPost, base+"/contacts/", bytes.NewReader(jsonBody))
	var created model.Contact
	if err := json.Unmarshal(resBody, &created); err != nil {
		fmt.Println("could not unmarshal JSON", err)
		panic(err)
	}
	return created.Id, duration
}

func sendPutGetDeleteRequest(base string, id int64, method string, bodyReader io.Reader) int64 {
	requestURL := fmt.Sprintf("%s/contacts/%d", base, id)
	_, duration := sendRequest(method, requestURL, bodyReader)
	return duration
}

func sendRequest(method string, requestURL string, bodyReader io.Reader) ([]byte, int64) {
	req, err := http.NewRequest(method, requestURL, bodyReader)
	if err != nil {
		fmt.Println("could not create request", err)
		panic(err)
	}
	req.Header.Set("Content-Type", "application/json")
	before := time.Now().UnixNano()
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Println("error making http request", err)
		panic(err)
	}
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		fmt.Println("could not read response body", err)
		panic(err)
	}
	after := time.Now().UnixNano()
	return resBody, after - before
}

package randomgen

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var firstNames = []string{"Erika", "Rudi", "Julius", "Marc", "Pavla", "Adam", "David", "Hans", "Jana", "Petra"}

var lastNames = []string{"Mustermann", "Völler", "Cäsar", "Anton", "Novak", "Smith", "Wurst", "Dvořák"}

// sequence makes phone numbers unique within one process.
var sequence atomic.Uint64

// FirstName returns a random first name.
func FirstName() string {
	return firstNames[rand.IntN(len(firstNames))]
}

// LastName returns a random last name.
func LastName() string {
	return lastNames[rand.IntN(len(lastNames))]
}

// Email returns an email address that is unique across processes.
func Email() string {
	return fmt.Sprintf("%s@example.com", strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// PhoneNumber returns a phone number that is unique within this process and very likely unique
// across processes.
func PhoneNumber() string {
	return fmt.Sprintf("+420 %09d %04d", rand.IntN(1_000_000_000), sequence.Add(1)%10_000)
}

// Birthday returns a random date between 1930 and the end of 2019.
func Birthday() time.Time {
	start := time.Date(1930, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start.AddDate(0, 0, rand.IntN(90*365))
}

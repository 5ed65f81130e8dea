package types

import (
	"fmt"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/teris-io/shortid"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex inv_0ujsswThIGTUYm2K8FjOOfXtY1K
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

var (
	sidGenerator *shortid.Shortid
	once         sync.Once
)

func initializeSID() {
	var err error
	sidGenerator, err = shortid.New(1, shortid.DefaultABC, 2342)
	if err != nil {
		panic("failed to initialize shortid generator: " + err.Error())
	}
}

// GenerateShortIDWithPrefix returns a short ID with a prefix,
// used for human-facing identifiers like receipt numbers.
func GenerateShortIDWithPrefix(prefix string) string {
	once.Do(initializeSID)
	id, err := sidGenerator.Generate()
	if err != nil {
		// fall back to a ULID if shortid generation ever fails
		return GenerateUUIDWithPrefix(prefix)
	}
	id = strings.ReplaceAll(id, "-", "")
	if prefix == "" {
		return id
	}
	return fmt.Sprintf("%s-%s", strings.ToUpper(prefix), strings.ToUpper(id))
}

const (
	UUID_PREFIX_SHOP          = "shop"
	UUID_PREFIX_INVOICE       = "inv"
	UUID_PREFIX_LEDGER_RECORD = "ledg"
	UUID_PREFIX_PAYMENT       = "pay"

	SHORT_ID_PREFIX_RECEIPT = "rcpt"
)

package parsers

import (
	"io"

	"github.com/username/bitgains/backend/src/models"
)

// Parser turns an uploaded statement into transactions that already carry
// their type and exchange rate, so they skip classification and enrichment
// and feed the lot engine directly.
type Parser interface {
	Parse(file io.Reader) ([]models.Transaction, error)
}

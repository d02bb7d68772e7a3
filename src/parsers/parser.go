// backend/src/parsers/parser.go
package parsers

import (
	"io"

	"github.com/username/clubtreso/backend/src/models"
)

// Parser reads one uploaded statement file into raw bank lines.
type Parser interface {
	Parse(file io.Reader) ([]models.RawBankLine, error)
}

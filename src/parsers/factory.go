// backend/src/parsers/factory.go
package parsers

import (
	"fmt"

	"github.com/username/clubtreso/backend/src/parsers/statementcsv"
	"github.com/username/clubtreso/backend/src/parsers/statementxlsx"
)

func GetParser(source string) (Parser, error) {
	switch source {
	case "csv":
		return statementcsv.NewParser(), nil
	case "xlsx":
		return statementxlsx.NewParser(), nil
	default:
		return nil, fmt.Errorf("no parser available for source: %s", source)
	}
}

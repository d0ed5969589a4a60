package reader

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cognicore/termex/pkg/termex/internalerr"
)

// parseXLIFF returns the text of every <source> element in document order,
// separated by blank lines. Inline markup inside a source keeps its text.
func parseXLIFF(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		blocks []string
		cur    strings.Builder
		depth  int // nesting inside the current <source>, 0 when outside
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: parse xliff: %v", internalerr.ErrInvalidInput, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth > 0 {
				depth++
			} else if t.Name.Local == "source" {
				depth = 1
				cur.Reset()
			}
		case xml.EndElement:
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				blocks = append(blocks, cur.String())
			}
		case xml.CharData:
			if depth > 0 {
				cur.Write(t)
			}
		}
	}
	return joinBlocks(blocks), nil
}

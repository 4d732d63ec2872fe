package acroform

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/text/encoding/unicode"
)

var literalEscaper = strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)

// EncodeTitle encodes a field name as a PDF text string suitable for a /T
// entry. Printable ASCII names become escaped literal strings; anything
// else is written as UTF-16BE with a byte order mark in a hex string.
func EncodeTitle(name string) (types.Object, error) {
	if isPrintableASCII(name) {
		return types.StringLiteral(literalEscaper.Replace(name)), nil
	}

	encoded, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder().String(name)
	if err != nil {
		return nil, fmt.Errorf("cannot encode %q as UTF-16: %w", name, err)
	}

	return types.HexLiteral(strings.ToUpper(hex.EncodeToString([]byte(encoded)))), nil
}

func isPrintableASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return false
		}
	}
	return true
}

package render

import (
	"fmt"
	"strings"
	"time"
)

// Filename names an export Invoice_<invoiceNumber>_<YYYYMMDD>.<ext> after the export date
func Filename(invoiceNumber string, at time.Time, ext string) string {
	return fmt.Sprintf("Invoice_%s_%s.%s", sanitize(invoiceNumber), at.Format("20060102"), ext)
}

// sanitize keeps user-edited invoice numbers from producing path separators
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, s)
}

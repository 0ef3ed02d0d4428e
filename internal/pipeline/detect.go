package pipeline

import (
	"bytes"
	"strings"
)

type Format string

var utf8BOM = []byte("\xef\xbb\xbf")

const (
	FormatHTML  Format = "html"
	FormatMHTML Format = "mhtml"
	FormatJSON  Format = "json"
)

// DetectFormat sniffs the first bytes of raw. Anything that is neither a JSON object
// nor a MIME archive is treated as HTML, which the HTML reader accepts leniently.
func DetectFormat(raw []byte) Format {
	head := bytes.TrimPrefix(raw, utf8BOM)
	head = bytes.TrimLeft(head, " \t\r\n")
	if len(head) > 0 && (head[0] == '{' || head[0] == '[') {
		return FormatJSON
	}
	if len(head) > 2048 {
		head = head[:2048]
	}
	lower := strings.ToLower(string(head))
	if strings.HasPrefix(lower, "mime-version:") ||
		(strings.HasPrefix(lower, "from:") && strings.Contains(lower, "mime-version:")) ||
		strings.Contains(lower, "content-type: multipart/related") {
		return FormatMHTML
	}
	return FormatHTML
}

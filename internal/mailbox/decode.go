package mailbox

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/emersion/go-message/mail"
)

// parseMIMEBody parses a raw RFC 5322 message using go-message and extracts
// the text/plain and text/html bodies. Attachments are skipped. If the
// message cannot be parsed as MIME at all, the whole payload is returned as
// plain text.
func parseMIMEBody(raw []byte) (textBody, htmlBody string) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return string(raw), ""
	}
	defer mr.Close()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, _ := h.ContentType()
		body, readErr := io.ReadAll(part.Body)
		if readErr != nil {
			continue
		}

		switch {
		case strings.HasPrefix(contentType, "text/plain"):
			textBody += string(body)
		case strings.HasPrefix(contentType, "text/html"):
			htmlBody += string(body)
		}
	}

	return textBody, htmlBody
}

// normalizeBody picks the plain-text rendering of a message: the text/plain
// part when present, otherwise the HTML part with markup stripped.
func normalizeBody(textBody, htmlBody string) string {
	if strings.TrimSpace(textBody) != "" {
		return strings.TrimSpace(textBody)
	}
	return stripHTML(htmlBody)
}

// htmlTagPattern matches HTML tags for stripping.
var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// stripHTML removes HTML tags from a string and decodes common entities,
// providing a basic plain-text rendering.
func stripHTML(html string) string {
	if html == "" {
		return ""
	}

	result := html
	for _, tag := range []string{
		"<br>", "<br/>", "<br />", "</p>", "</div>", "</li>",
	} {
		result = strings.ReplaceAll(result, tag, "\n")
	}

	result = htmlTagPattern.ReplaceAllString(result, "")

	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	result = replacer.Replace(result)

	for strings.Contains(result, "\n\n\n") {
		result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(result)
}

// formatAddress renders a name/address pair the way it appears in a From
// header, so classifier patterns can match either part.
func formatAddress(name, addr string) string {
	if name == "" {
		return addr
	}
	if addr == "" {
		return name
	}
	return name + " <" + addr + ">"
}

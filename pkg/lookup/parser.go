package lookup

import "regexp"

// DefaultTickerPattern matches replies such as "The ticker symbol for Apple
// is AAPL". The phrase is matched case-insensitively, the captured ticker
// must be 1-5 uppercase letters standing alone.
var DefaultTickerPattern = regexp.MustCompile(`(?i:ticker\s+(?:symbol\s+)?(?:for\s+[\w\s]+\s+)?is)\s+([A-Z]{1,5})\b`)

// TickerParser extracts a ticker from a free-text reply.
type TickerParser interface {
	ParseTicker(reply string) (string, bool)
}

// RegexpParser is a TickerParser whose first capture group is the ticker.
type RegexpParser struct {
	Pattern *regexp.Regexp
}

// DefaultParser returns a RegexpParser over DefaultTickerPattern.
func DefaultParser() RegexpParser {
	return RegexpParser{Pattern: DefaultTickerPattern}
}

func (p RegexpParser) ParseTicker(reply string) (string, bool) {
	m := p.Pattern.FindStringSubmatch(reply)
	if len(m) < 2 || m[1] == "" {
		return "", false
	}
	return m[1], true
}

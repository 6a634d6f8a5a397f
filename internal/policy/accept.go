package policy

import (
	"strconv"
	"strings"
)

// ParseAccept splits an HTTP Accept header into lower-cased media types.
// Parameters are dropped and entries explicitly refused with q=0 are left
// out. Wildcards are returned verbatim; NegotiateFormat only honours formats
// a client names explicitly.
func ParseAccept(header string) []string {
	if header == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(header, ",") {
		fields := strings.Split(part, ";")
		media := strings.ToLower(strings.TrimSpace(fields[0]))
		if media == "" {
			continue
		}
		refused := false
		for _, param := range fields[1:] {
			k, v, ok := strings.Cut(strings.TrimSpace(param), "=")
			if !ok || strings.ToLower(strings.TrimSpace(k)) != "q" {
				continue
			}
			if q, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && q <= 0 {
				refused = true
			}
		}
		if !refused {
			out = append(out, media)
		}
	}
	return out
}

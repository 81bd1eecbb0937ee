package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ethereum-optimism/infra/op-describe/types"
)

// ParseTags builds a Filter from command-line tag expressions.
//
//	focus          include examples tagged focus=true
//	speed=fast     include examples tagged speed="fast"
//	~slow          exclude examples tagged slow=true
//	~env=/^prod/   exclude examples whose env tag matches the regexp
func ParseTags(exprs []string) (Filter, error) {
	var f Filter
	for _, expr := range exprs {
		key, value, exclude, err := ParseTag(expr)
		if err != nil {
			return Filter{}, err
		}
		target := &f.Inclusion
		if exclude {
			target = &f.Exclusion
		}
		if *target == nil {
			*target = make(types.Metadata)
		}
		(*target)[key] = value
	}
	return f, nil
}

// ParseTag parses one tag expression into its key, predicate value and polarity.
func ParseTag(expr string) (key string, value any, exclude bool, err error) {
	expr = strings.TrimSpace(expr)
	if strings.HasPrefix(expr, "~") {
		exclude = true
		expr = expr[1:]
	}
	key, raw, hasValue := strings.Cut(expr, "=")
	key = strings.TrimSpace(key)
	if key == "" {
		return "", nil, false, fmt.Errorf("empty tag name in %q", expr)
	}
	if !hasValue {
		return key, true, exclude, nil
	}
	value, err = parseValue(strings.TrimSpace(raw))
	if err != nil {
		return "", nil, false, fmt.Errorf("tag %q: %w", key, err)
	}
	return key, value, exclude, nil
}

func parseValue(raw string) (any, error) {
	if len(raw) >= 2 && strings.HasPrefix(raw, "/") && strings.HasSuffix(raw, "/") {
		re, err := regexp.Compile(raw[1 : len(raw)-1])
		if err != nil {
			return nil, fmt.Errorf("invalid pattern: %w", err)
		}
		return re, nil
	}
	if b, err := strconv.ParseBool(raw); err == nil && (raw == "true" || raw == "false") {
		return b, nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	return raw, nil
}

package manifest

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"go.trai.ch/kiln/internal/core/domain"
)

// Platform is the target a recipe is read for.
type Platform struct {
	GOOS   string
	GOARCH string
}

var selectorRe = regexp.MustCompile(`^(.*?)\s*#\s*\[([^\[\]]+)\]\s*$`)

// namespace returns the identifiers a selector may use.
func namespace(p Platform, v domain.Variant) map[string]bool {
	ns := map[string]bool{
		"linux":   p.GOOS == "linux",
		"osx":     p.GOOS == "darwin",
		"win":     p.GOOS == "windows",
		"unix":    p.GOOS != "windows",
		"x86":     p.GOARCH == "386",
		"x86_64":  p.GOARCH == "amd64",
		"aarch64": p.GOARCH == "arm64" && p.GOOS == "linux",
		"arm64":   p.GOARCH == "arm64",
	}
	ns["win32"] = ns["win"] && ns["x86"]
	ns["win64"] = ns["win"] && ns["x86_64"]
	ns["linux32"] = ns["linux"] && ns["x86"]
	ns["linux64"] = ns["linux"] && ns["x86_64"]

	if av, ok := v.Get(domain.AxisPython); ok {
		ns["py"+av.Encoded] = true
		ns["py2k"] = strings.HasPrefix(av.Encoded, "2")
		ns["py3k"] = strings.HasPrefix(av.Encoded, "3")
	}
	if av, ok := v.Get(domain.AxisNumpy); ok {
		ns["np"+av.Encoded] = true
	}
	return ns
}

// applySelectors drops the lines whose selector is false and strips the
// selector comment from the rest.
func applySelectors(data []byte, ns map[string]bool) ([]byte, error) {
	lines := strings.Split(string(data), "\n")
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		m := selectorRe.FindStringSubmatch(line)
		if m == nil || strings.TrimSpace(m[1]) == "" {
			out = append(out, line)
			continue
		}
		keep, err := evalSelector(m[2], ns)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		if keep {
			out = append(out, m[1])
		}
	}
	return []byte(strings.Join(out, "\n")), nil
}

// evalSelector evaluates identifiers combined with not, and, or and parentheses.
// Unknown identifiers are false.
func evalSelector(expr string, ns map[string]bool) (bool, error) {
	p := &selectorParser{tokens: tokenize(expr), ns: ns}
	v, err := p.or()
	if err != nil {
		return false, err
	}
	if p.pos != len(p.tokens) {
		return false, fmt.Errorf("unexpected %q in selector [%s]", p.tokens[p.pos], expr)
	}
	return v, nil
}

func tokenize(expr string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range expr {
		switch {
		case r == '(' || r == ')':
			flush()
			tokens = append(tokens, string(r))
		case unicode.IsSpace(r):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

type selectorParser struct {
	tokens []string
	pos    int
	ns     map[string]bool
}

func (p *selectorParser) peek() string {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return ""
}

func (p *selectorParser) or() (bool, error) {
	left, err := p.and()
	if err != nil {
		return false, err
	}
	for p.peek() == "or" {
		p.pos++
		right, err := p.and()
		if err != nil {
			return false, err
		}
		left = left || right
	}
	return left, nil
}

func (p *selectorParser) and() (bool, error) {
	left, err := p.unary()
	if err != nil {
		return false, err
	}
	for p.peek() == "and" {
		p.pos++
		right, err := p.unary()
		if err != nil {
			return false, err
		}
		left = left && right
	}
	return left, nil
}

func (p *selectorParser) unary() (bool, error) {
	tok := p.peek()
	switch tok {
	case "":
		return false, fmt.Errorf("incomplete selector")
	case "not":
		p.pos++
		v, err := p.unary()
		return !v, err
	case "(":
		p.pos++
		v, err := p.or()
		if err != nil {
			return false, err
		}
		if p.peek() != ")" {
			return false, fmt.Errorf("missing ) in selector")
		}
		p.pos++
		return v, nil
	case ")", "and", "or":
		return false, fmt.Errorf("unexpected %q in selector", tok)
	}

	for _, r := range tok {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false, fmt.Errorf("unsupported selector term %q", tok)
		}
	}
	p.pos++
	return p.ns[tok], nil
}

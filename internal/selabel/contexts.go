package selabel

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Rule maps a path regular expression to a security label.
type Rule struct {
	Pattern *regexp.Regexp
	Label   string
}

// Contexts is an ordered rule table. As with SELinux file_contexts, the last
// matching rule wins.
type Contexts struct {
	rules []Rule
}

// LoadContexts parses a file_contexts-style file: one "regex label" pair per
// line, '#' comments, blank lines ignored.
func LoadContexts(path string) (*Contexts, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file_contexts: %w", err)
	}
	defer file.Close()

	var rules []Rule
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("file_contexts line %d: expected \"regex label\", got %q", line, text)
		}
		pattern, err := regexp.Compile("^" + fields[0] + "$")
		if err != nil {
			return nil, fmt.Errorf("file_contexts line %d: %w", line, err)
		}
		rules = append(rules, Rule{Pattern: pattern, Label: fields[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read file_contexts: %w", err)
	}
	return &Contexts{rules: rules}, nil
}

// NewContexts wraps an already-built rule list, in file order.
func NewContexts(rules []Rule) *Contexts {
	return &Contexts{rules: rules}
}

// Lookup returns the label for a path, or "" when no rule matches.
func (c *Contexts) Lookup(path string) string {
	label := ""
	for _, rule := range c.rules {
		if rule.Pattern.MatchString(path) {
			label = rule.Label
		}
	}
	return label
}

// Len returns the number of rules in the table.
func (c *Contexts) Len() int {
	return len(c.rules)
}

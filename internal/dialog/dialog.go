// Package dialog is the rule-based chat bot. Select maps a role and free
// text to a node of that role's flow table. It is pure and deterministic.
package dialog

import (
	_ "embed"
	"fmt"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"giving-hand-api-server/internal/models"
)

// Reserved node keys every role table defines.
const (
	KeyGreeting = "mainGreeting"
	KeyMenu     = "mainMenu"
	KeyMoreHelp = "moreHelp"
	KeyFallback = "fallback"
)

//go:embed flows.yaml
var flowsYAML []byte

// Localized holds one text per supported language.
type Localized struct {
	En string `yaml:"en" json:"en"`
	Ar string `yaml:"ar" json:"ar"`
}

// In returns the text for lang, falling back to English.
func (l Localized) In(lang string) string {
	if strings.HasPrefix(strings.ToLower(lang), "ar") && l.Ar != "" {
		return l.Ar
	}
	return l.En
}

type Node struct {
	Key     string    `yaml:"key" json:"key"`
	Aliases []string  `yaml:"aliases,omitempty" json:"-"`
	Text    Localized `yaml:"text" json:"text"`
	Options []string  `yaml:"options" json:"options"`
}

// Reply is the node chosen for an input.
type Reply struct {
	Role    models.Role `json:"role"`
	Key     string      `json:"key"`
	Text    Localized   `json:"text"`
	Options []string    `json:"options"`
}

type keywords struct {
	Greeting    []string `yaml:"greeting"`
	Back        []string `yaml:"back"`
	Affirmative []string `yaml:"affirmative"`
}

type flowFile struct {
	Keywords keywords               `yaml:"keywords"`
	Roles    map[models.Role][]Node `yaml:"roles"`
}

type table struct {
	nodes []Node
	byKey map[string]*Node
}

type Bot struct {
	keywords keywords
	tables   map[models.Role]*table
}

// Load builds a Bot from the embedded flow tables.
func Load() (*Bot, error) {
	return Parse(flowsYAML)
}

// Parse builds a Bot from YAML flow tables. Every role must define the
// reserved nodes, and the guest table must exist.
func Parse(src []byte) (*Bot, error) {
	var f flowFile
	if err := yaml.Unmarshal(src, &f); err != nil {
		return nil, fmt.Errorf("parse flows: %w", err)
	}
	b := &Bot{keywords: f.Keywords, tables: map[models.Role]*table{}}
	for role, nodes := range f.Roles {
		if _, err := models.AsRole(string(role)); err != nil {
			return nil, fmt.Errorf("flows: %w", err)
		}
		t := &table{nodes: nodes, byKey: map[string]*Node{}}
		for i := range t.nodes {
			n := &t.nodes[i]
			if _, dup := t.byKey[n.Key]; dup {
				return nil, fmt.Errorf("flows: %s: duplicate node %q", role, n.Key)
			}
			t.byKey[n.Key] = n
		}
		for _, k := range []string{KeyGreeting, KeyMenu, KeyMoreHelp, KeyFallback} {
			if _, ok := t.byKey[k]; !ok {
				return nil, fmt.Errorf("flows: %s: missing node %q", role, k)
			}
		}
		for _, n := range t.nodes {
			for _, o := range n.Options {
				if _, ok := t.byKey[o]; !ok {
					return nil, fmt.Errorf("flows: %s: node %q offers unknown node %q", role, n.Key, o)
				}
			}
		}
		b.tables[role] = t
	}
	if _, ok := b.tables[models.RoleGuest]; !ok {
		return nil, fmt.Errorf("flows: guest table is required")
	}
	return b, nil
}

// MustLoad is Load for package initialization.
func MustLoad() *Bot {
	b, err := Load()
	if err != nil {
		panic(err)
	}
	return b
}

// Select picks the reply for input. Keyword classes are tried in a fixed
// order: greeting, back/menu, affirmative. Then the first node whose key or
// alias occurs in the input wins, else the fallback node. Roles without a
// table use the guest table.
func (b *Bot) Select(role models.Role, input string) Reply {
	t, ok := b.tables[role]
	if !ok {
		role = models.RoleGuest
		t = b.tables[role]
	}

	text := strings.ToLower(strings.TrimSpace(input))
	words := tokenize(text)

	key := KeyFallback
	switch {
	case text == "":
	case matchesAny(words, b.keywords.Greeting):
		key = KeyGreeting
	case matchesAny(words, b.keywords.Back):
		key = KeyMenu
	case matchesAny(words, b.keywords.Affirmative):
		key = KeyMoreHelp
	default:
		if n := t.find(text); n != nil {
			key = n.Key
		}
	}

	n := t.byKey[key]
	return Reply{Role: role, Key: n.Key, Text: n.Text, Options: append([]string{}, n.Options...)}
}

// Node returns the node key of role's table, if any.
func (b *Bot) Node(role models.Role, key string) (Node, bool) {
	t, ok := b.tables[role]
	if !ok {
		return Node{}, false
	}
	n, ok := t.byKey[key]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

func (t *table) find(text string) *Node {
	for i := range t.nodes {
		n := &t.nodes[i]
		if strings.Contains(text, strings.ToLower(n.Key)) {
			return n
		}
		for _, a := range n.Aliases {
			if strings.Contains(text, strings.ToLower(a)) {
				return n
			}
		}
	}
	return nil
}

// tokenize splits s into runs of letters and digits.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// matchesAny reports whether any keyword occurs in words as a whole word or,
// for multi-word keywords, as a run of consecutive words.
func matchesAny(words []string, keywords []string) bool {
	for _, k := range keywords {
		kw := tokenize(strings.ToLower(k))
		if len(kw) == 0 || len(kw) > len(words) {
			continue
		}
	scan:
		for i := 0; i+len(kw) <= len(words); i++ {
			for j := range kw {
				if words[i+j] != kw[j] {
					continue scan
				}
			}
			return true
		}
	}
	return false
}

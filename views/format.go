package views

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"
)

// Plural liefert "1 donor" bzw. "N donors".
func Plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// Number formatiert eine Zahl ohne Exponent und ohne überflüssige Nachkommastellen (1, 0.5, 1.04).
func Number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func capitalize(v any) string {
	s := fmt.Sprint(v)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

type submitButton struct {
	Loading bool
	Label   string
}

type resultActions struct {
	Operation      string
	HasResult      bool
	ArchiveEnabled bool
}

// funcs sind die Template-Funktionen aller Seiten.
var funcs = template.FuncMap{
	"plural": Plural,
	"num":    Number,
	"title":  capitalize,
	"submit": func(loading bool, label string) submitButton {
		return submitButton{Loading: loading, Label: label}
	},
	"actions": func(op string, hasResult, archive bool) resultActions {
		return resultActions{Operation: op, HasResult: hasResult, ArchiveEnabled: archive}
	},
}

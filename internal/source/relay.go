package source

import (
	"fmt"
	"net/url"
)

// Relay turns an upstream target URL into the URL actually requested.
// Relays only route around network blocking; they never change what a
// strategy parses.
type Relay interface {
	Name() string
	Wrap(target string) string
}

// Direct requests the target as is.
type Direct struct{}

func (Direct) Name() string              { return "direct" }
func (Direct) Wrap(target string) string { return target }

// Proxy routes a request through a public URL-passthrough service. Template
// holds a single %s for the target; Escape query-escapes the target first.
type Proxy struct {
	Label    string
	Template string
	Escape   bool
}

func (p Proxy) Name() string { return p.Label }

func (p Proxy) Wrap(target string) string {
	if p.Escape {
		target = url.QueryEscape(target)
	}
	return fmt.Sprintf(p.Template, target)
}

var (
	// CodeTabs passes the raw target in its quest parameter.
	CodeTabs = Proxy{Label: "codetabs", Template: "https://api.codetabs.com/v1/proxy?quest=%s"}

	// AllOrigins expects an escaped target and returns the raw body.
	AllOrigins = Proxy{Label: "allorigins", Template: "https://api.allorigins.win/raw?url=%s", Escape: true}
)

package source

import (
	"errors"
	"fmt"
	"strings"
)

// Upstream pages.
const (
	OfficialURL = "https://api.taiwanlottery.com/TLCAPIWeB/Lottery/BingoResult"
	PilioURL    = "https://www.pilio.idv.tw/bingo/list.asp"
)

var ErrUnknownStrategy = errors.New("source: unknown strategy")

// DefaultStrategies returns the standard sweep, highest priority first.
func DefaultStrategies() []Strategy {
	official := JSONParser{}
	pilio := HTMLParser{Charset: "big5"}

	return []Strategy{
		{Name: "codetabs-official", Target: OfficialURL, Relay: CodeTabs, Parser: official},
		{Name: "codetabs-pilio", Target: PilioURL, Relay: CodeTabs, Parser: pilio},
		{Name: "official", Target: OfficialURL, Relay: Direct{}, Parser: official},
		{Name: "allorigins-pilio", Target: PilioURL, Relay: AllOrigins, Parser: pilio},
	}
}

// Select returns the named default strategies in the order given. An empty
// list selects all of them.
func Select(names []string) ([]Strategy, error) {
	all := DefaultStrategies()
	if len(names) == 0 {
		return all, nil
	}

	byName := make(map[string]Strategy, len(all))
	for _, s := range all {
		byName[s.Name] = s
	}

	out := make([]Strategy, 0, len(names))
	for _, name := range names {
		s, ok := byName[strings.TrimSpace(name)]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
		}
		out = append(out, s)
	}
	return out, nil
}

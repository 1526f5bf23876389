package source

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/net/html"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/atmx/bingo-engine/internal/drawid"
	"github.com/atmx/bingo-engine/internal/model"
)

var (
	ErrMalformedJSON   = errors.New("source: malformed JSON")
	ErrNoDrawArray     = errors.New("source: no draw array in response")
	ErrNoValidDraws    = errors.New("source: no valid draws in response")
	ErrUnknownEncoding = errors.New("source: unknown character encoding")
)

// Parser turns a response body into draw records. Rows that break the
// DrawRecord invariant are dropped; a body that yields none is an error.
type Parser interface {
	Kind() string
	Parse(body []byte) ([]model.DrawRecord, error)
}

// DefaultJSONPaths are tried in order to locate the array of draws.
var DefaultJSONPaths = []string{"content", "content.bingoQueryResult", "@this"}

// JSONParser reads an array of {period, openTime, drawNumberSize[]} objects.
type JSONParser struct {
	Paths []string
	Limit int // 0 keeps every valid draw
}

func (p JSONParser) Kind() string { return "json" }

func (p JSONParser) Parse(body []byte) ([]model.DrawRecord, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrMalformedJSON
	}
	root := gjson.ParseBytes(body)

	paths := p.Paths
	if len(paths) == 0 {
		paths = DefaultJSONPaths
	}
	var items gjson.Result
	for _, path := range paths {
		if r := root.Get(path); r.IsArray() {
			items = r
			break
		}
	}
	if !items.Exists() {
		return nil, ErrNoDrawArray
	}

	var (
		records []model.DrawRecord
		dropped int
	)
	items.ForEach(func(_, item gjson.Result) bool {
		rec := model.DrawRecord{
			DrawID:  strings.TrimSpace(item.Get("period").String()),
			DrawnAt: openTime(item.Get("openTime").String()),
		}
		for _, n := range item.Get("drawNumberSize").Array() {
			rec.Numbers = append(rec.Numbers, int(n.Int()))
		}
		if !acceptable(rec) {
			dropped++
			return true
		}
		records = append(records, rec)
		return p.Limit <= 0 || len(records) < p.Limit
	})

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %d rows dropped", ErrNoValidDraws, dropped)
	}
	return records, nil
}

// openTime keeps "YYYY-MM-DDTHH:MM" precision and drops the T.
func openTime(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.DrawnPlaceholder
	}
	if len(raw) > 16 {
		raw = raw[:16]
	}
	return strings.Replace(raw, "T", " ", 1)
}

var (
	numberRegex = regexp.MustCompile(`\d+`)

	// DefaultIDPattern matches nine-digit ids of the 110-119 ROC years.
	DefaultIDPattern = regexp.MustCompile(`11[0-9]{7}`)
)

// DefaultMarker is the period character that marks a draw row.
const DefaultMarker = "期"

// HTMLParser scrapes table rows. A <tr> is a candidate when its text holds
// Marker; its integers in 1..80 are collected in order and the row is kept
// once it has at least 20 of them plus an id matching IDPattern. Only the
// first 20 numbers are kept, which discards stray serials and dates.
type HTMLParser struct {
	Charset   string // htmlindex label, e.g. "big5"; empty means UTF-8
	Marker    string
	IDPattern *regexp.Regexp
}

func (p HTMLParser) Kind() string {
	if p.Charset == "" {
		return "html"
	}
	return "html_" + strings.ToLower(p.Charset)
}

func (p HTMLParser) Parse(body []byte) ([]model.DrawRecord, error) {
	decoded, err := decode(body, p.Charset)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(bytes.NewReader(decoded))
	if err != nil {
		return nil, fmt.Errorf("source: parse html: %w", err)
	}

	marker := p.Marker
	if marker == "" {
		marker = DefaultMarker
	}
	idPattern := p.IDPattern
	if idPattern == nil {
		idPattern = DefaultIDPattern
	}

	var (
		records []model.DrawRecord
		seen    = make(map[string]bool)
		rows    int
	)
	for _, text := range rowTexts(doc) {
		if !strings.Contains(text, marker) {
			continue
		}
		rows++
		rec, ok := parseRow(text, idPattern)
		if !ok || seen[rec.DrawID] {
			continue
		}
		seen[rec.DrawID] = true
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %d candidate rows", ErrNoValidDraws, rows)
	}
	return records, nil
}

func parseRow(text string, idPattern *regexp.Regexp) (model.DrawRecord, bool) {
	id := idPattern.FindString(text)
	if id == "" {
		return model.DrawRecord{}, false
	}

	var numbers []int
	for _, tok := range numberRegex.FindAllString(text, -1) {
		n, err := strconv.Atoi(tok)
		if err != nil || n < model.MinNumber || n > model.MaxNumber {
			continue
		}
		numbers = append(numbers, n)
	}
	if len(numbers) < model.NumbersPerDraw {
		return model.DrawRecord{}, false
	}

	rec := model.DrawRecord{
		DrawID:  id,
		DrawnAt: model.DrawnPlaceholder,
		Numbers: numbers[:model.NumbersPerDraw:model.NumbersPerDraw],
	}
	return rec, acceptable(rec)
}

func acceptable(rec model.DrawRecord) bool {
	if _, err := drawid.Parse(rec.DrawID); err != nil {
		return false
	}
	return rec.Validate() == nil
}

func decode(body []byte, charset string) ([]byte, error) {
	if charset == "" || strings.EqualFold(charset, "utf-8") {
		return body, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEncoding, charset)
	}
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return nil, fmt.Errorf("source: decode %s: %w", charset, err)
	}
	return out, nil
}

// rowTexts returns the text of every <tr>, in document order, with text
// nodes separated by spaces so adjacent cells never merge into one number.
func rowTexts(doc *html.Node) []string {
	var rows []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var sb strings.Builder
			collectText(n, &sb)
			rows = append(rows, sb.String())
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return rows
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		sb.WriteByte(' ')
		return
	}
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}

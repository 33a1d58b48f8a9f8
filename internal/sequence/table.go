package sequence

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/yourusername/mediaget-go/internal/domain"
)

// ErrTemplate is returned when a template cannot be applied
var ErrTemplate = errors.New("while replacing sequences")

// DefaultValue stands in for token values that are empty or unavailable
const DefaultValue = "default"

// Sequences recognized in name and command templates
const (
	SeqTitle        = "%t"
	SeqMediaID      = "%i"
	SeqStreamURL    = "%u"
	SeqStreamID     = "%I"
	SeqDuration     = "%d"
	SeqStartTime    = "%s"
	SeqThumbnailURL = "%T"
	SeqFileExt      = "%e"
	SeqFilePath     = "%f"
)

// Entry is one token and its value
type Entry struct {
	Token string
	Value string
}

// TableInput holds everything a sequence table is built from
type TableInput struct {
	Media  *domain.Media
	Stream domain.StreamDescriptor

	// FileExt and FilePath are only added to the table when set
	FileExt  string
	FilePath string

	Rules []Rule
}

// Table maps sequences to their values for one transfer
type Table struct {
	values map[string]string
	tokens []string // longest first
}

// NewTable builds the sequence table of a media item and its selected
// stream. Rules keyed by a sequence are applied to its value in order.
func NewTable(in TableInput) *Table {
	media := in.Media
	if media == nil {
		media = &domain.Media{}
	}

	entries := []Entry{
		{SeqStartTime, formatNumber(media.StartTimeMs)},
		{SeqThumbnailURL, orDefault(media.ThumbnailURL)},
		{SeqDuration, formatNumber(media.DurationMs)},
		{SeqStreamURL, orDefault(in.Stream.URL)},
		{SeqStreamID, orDefault(in.Stream.ID)},
		{SeqTitle, orDefault(media.Title)},
		{SeqMediaID, orDefault(media.ID)},
	}
	if in.FileExt != "" {
		entries = append(entries, Entry{SeqFileExt, in.FileExt})
	}
	if in.FilePath != "" {
		entries = append(entries, Entry{SeqFilePath, in.FilePath})
	}

	return NewTableFromEntries(entries, in.Rules)
}

// NewTableFromEntries builds a table from arbitrary entries. Empty values are
// replaced with DefaultValue before the rules are applied.
func NewTableFromEntries(entries []Entry, rules []Rule) *Table {
	t := &Table{values: make(map[string]string, len(entries))}

	for _, e := range entries {
		value := orDefault(e.Value)
		for _, r := range rules {
			if r.Token() == e.Token {
				value = r.Apply(value)
			}
		}
		if _, exists := t.values[e.Token]; !exists {
			t.tokens = append(t.tokens, e.Token)
		}
		t.values[e.Token] = value
	}

	sort.SliceStable(t.tokens, func(i, j int) bool {
		return len(t.tokens[i]) > len(t.tokens[j])
	})
	return t
}

// Value returns the value of a token
func (t *Table) Value(token string) (string, bool) {
	v, ok := t.values[token]
	return v, ok
}

// Apply replaces every known sequence in template with its value in a single
// left to right pass. Substituted text is not scanned again and unknown
// sequences are kept verbatim.
func (t *Table) Apply(template string) (string, error) {
	for _, token := range t.tokens {
		if token == "" || !strings.HasPrefix(token, "%") {
			return "", fmt.Errorf("%w: malformed sequence %q", ErrTemplate, token)
		}
	}

	var b strings.Builder
	b.Grow(len(template))

	for i := 0; i < len(template); {
		if template[i] == '%' {
			if token, ok := t.longestAt(template[i:]); ok {
				b.WriteString(t.values[token])
				i += len(token)
				continue
			}
		}
		b.WriteByte(template[i])
		i++
	}
	return b.String(), nil
}

func (t *Table) longestAt(s string) (string, bool) {
	for _, token := range t.tokens {
		if strings.HasPrefix(s, token) {
			return token, true
		}
	}
	return "", false
}

func orDefault(s string) string {
	if s == "" {
		return DefaultValue
	}
	return s
}

func formatNumber(f float64) string {
	return fmt.Sprintf("%.0f", f)
}

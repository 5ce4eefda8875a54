// Package cli handles cmd line input and ranked matches for DBG and testing the scorer
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bastiangx/pickserve/internal/utils"
	"github.com/bastiangx/pickserve/pkg/catalog"
	"github.com/bastiangx/pickserve/pkg/match"
	"github.com/bastiangx/pickserve/pkg/option"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var highlightStyle = lipgloss.NewStyle().Bold(true).
	Foreground(lipgloss.AdaptiveColor{Light: "#d7827e", Dark: "#ea9a97"})

var valueStyle = lipgloss.NewStyle().Faint(true)

func highlight(s string) string { return highlightStyle.Render(s) }

var tierStyle = lipgloss.NewStyle().
	Foreground(lipgloss.AdaptiveColor{Light: "#286983", Dark: "#9ccfd8"})

// InputHandler reads queries from stdin and prints the ranked catalog
// matches with their highlighted spans.
type InputHandler struct {
	catalog        *catalog.Catalog
	minQueryLength int
	maxQueryLength int
	limit          int
	language       string
	noFilter       bool
	requestCount   int
}

// NewInputHandler handles initialization of the InputHandler with basic parameters
func NewInputHandler(cat *catalog.Catalog, minLength, maxLength, limit int, language string, noFilter bool) *InputHandler {
	return &InputHandler{
		catalog:        cat,
		minQueryLength: minLength,
		maxQueryLength: maxLength,
		limit:          limit,
		language:       language,
		noFilter:       noFilter,
	}
}

// Start begins the interface loop on stdin.
func (h *InputHandler) Start() error {
	log.Print("PickServe CLI [BETA]")
	log.Print("type a query and press Enter to see the matches (Ctrl+C to exit):")
	return h.Run(os.Stdin)
}

// Run prompts for queries read from r until it is exhausted.
func (h *InputHandler) Run(r io.Reader) error {
	reader := bufio.NewReader(r)
	for {
		log.Print("> ")
		query, err := reader.ReadString('\n')
		if query = strings.TrimSpace(query); query != "" {
			h.handleInput(query)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// handleInput validates a single query, ranks the catalog and prints the result.
func (h *InputHandler) handleInput(query string) {
	h.requestCount++

	if !utils.IsValidQuery(query, h.minQueryLength, h.maxQueryLength) {
		log.Errorf("Query length out of bounds [%d, %d]: %s", h.minQueryLength, h.maxQueryLength, query)
		return
	}

	// input filtering by default (unless --no-filter flag is used)
	if !h.noFilter && !utils.HasWordContent(query) {
		log.Infof("No results found for query: '%s'", query)
		return
	} else if h.noFilter {
		log.Debug("Input filtering disabled - scoring raw query")
	}

	start := time.Now()
	matches := h.catalog.Search(query, h.limit, h.language)
	log.Debugf("Took [ %v ] for query '%s' (#%d)", time.Since(start), query, h.requestCount)

	if len(matches) == 0 {
		log.Warnf("No matches found for query: '%s'", query)
		return
	}

	log.Printf("Found %d matches for query '%s':", len(matches), query)
	for _, line := range formatMatches(matches) {
		log.Print(line)
	}
}

// formatMatches renders one line per match: rank, highlighted label, value
// and the tier that matched.
func formatMatches(matches []option.Match) []string {
	ranks := utils.CreateRankList(len(matches))
	lines := make([]string, len(matches))
	for i, m := range matches {
		// Pad first: spans index the start of the label, escapes would skew widths.
		label, value := utils.PadRight(m.Label, 40), m.Value
		switch m.Matched {
		case option.TargetLabel:
			label = match.Highlight(label, m.Slices, highlight)
		case option.TargetValue:
			value = match.Highlight(value, m.Slices, highlight)
		}
		lines[i] = fmt.Sprintf("%2d. %s %s %s", ranks[i], label, valueStyle.Render("("+value+")"), tierStyle.Render(tierName(m.Score)))
	}
	return lines
}

func tierName(score float64) string {
	switch {
	case score >= option.ScoreExact:
		return "exact"
	case score >= option.ScoreCaseInsensitive:
		return "case"
	case score >= option.ScoreAccentInsensitive:
		return "accent"
	case score >= option.ScorePrefix:
		return "prefix"
	case score > 0:
		return fmt.Sprintf("overlap %.2f", score)
	}
	return "none"
}

package capture

import (
	"sort"
	"strings"
	"time"
)

// TabContext identifies one physical surface (tab/window) in a
// workflow. Every event embeds a copy of the owning TabContext at
// creation time so downstream grouping never has to join against
// mutable tab state.
type TabContext struct {
	TabID string `json:"tabId"`
	Index int    `json:"tabIndex"`
	Type  string `json:"tabType"`
	URL   string `json:"currentUrl"`
	Title string `json:"currentTitle"`
}

// TabSequenceEntry is one step in the strictly time-ordered surface
// sequence: the causal record that survives even when per-tab relative
// clocks disagree.
type TabSequenceEntry struct {
	At         time.Time `json:"at"`
	RelativeMs int64     `json:"relativeTime"`
	Action     string    `json:"action"` // registered | activated | created | closed
	TabID      string    `json:"tabId"`
	Index      int       `json:"tabIndex"`
	URL        string    `json:"url,omitempty"`
}

// tabState is the correlator's per-surface record.
type tabState struct {
	ctx      TabContext
	eventIDs []string
}

// tabSeqEntryLocked stamps one surface-lifecycle step. Callers hold e.mu
// with an active session.
func (e *Engine) tabSeqEntryLocked(action string, ctx TabContext) TabSequenceEntry {
	now := e.clock.Now()
	return TabSequenceEntry{
		At:         now,
		RelativeMs: now.Sub(e.sess.startedAt).Milliseconds(),
		Action:     action,
		TabID:      ctx.TabID,
		Index:      ctx.Index,
		URL:        ctx.URL,
	}
}

// classifyTabType infers a coarse surface type from its address.
func classifyTabType(url string) string {
	u := strings.ToLower(url)
	switch {
	case strings.Contains(u, "/marketplace/create"):
		return "listingCreation"
	case strings.Contains(u, "/marketplace/you"):
		return "listingManagement"
	case strings.Contains(u, "/marketplace"):
		return "marketplace"
	case strings.Contains(u, "/messages"), strings.Contains(u, "/messenger"), strings.Contains(u, "/t/"):
		return "messaging"
	case strings.Contains(u, "/login"), strings.Contains(u, "/checkpoint"):
		return "authentication"
	case strings.Contains(u, "/groups"):
		return "groups"
	case u == "":
		return "unknown"
	default:
		return "general"
	}
}

// classifyNavigationIntent maps an address transition to a coarse
// intent label for the navigation event.
func classifyNavigationIntent(toURL string) string {
	u := strings.ToLower(toURL)
	switch {
	case strings.Contains(u, "/marketplace/create"):
		return "createListing"
	case strings.Contains(u, "/marketplace/you"):
		return "manageListings"
	case strings.Contains(u, "/marketplace/item"):
		return "viewListing"
	case strings.Contains(u, "/marketplace"):
		return "browseMarketplace"
	case strings.Contains(u, "/messages"), strings.Contains(u, "/messenger"), strings.Contains(u, "/t/"):
		return "messaging"
	case strings.Contains(u, "/login"), strings.Contains(u, "/checkpoint"):
		return "authentication"
	case strings.Contains(u, "/groups"):
		return "groupActivity"
	default:
		return "general"
	}
}

// TabSummary aggregates one surface's share of the timeline for the
// finalized artifact.
type TabSummary struct {
	Tab        TabContext   `json:"tab"`
	EventCount int          `json:"eventCount"`
	EventIDs   []string     `json:"eventIds"`
	Kinds      map[Kind]int `json:"kinds"`
}

// summarizeTabs builds per-surface groupings from the frozen timeline.
func summarizeTabs(tabs map[string]*tabState, order []string, events []Event) []TabSummary {
	byID := make(map[string][]Event)
	for _, e := range events {
		if e.Tab.TabID == "" {
			continue
		}
		byID[e.Tab.TabID] = append(byID[e.Tab.TabID], e)
	}

	ids := make([]string, 0, len(tabs))
	seen := make(map[string]bool)
	for _, id := range order {
		if !seen[id] {
			ids = append(ids, id)
			seen[id] = true
		}
	}
	// Tabs that only ever appeared on events, defensively.
	var rest []string
	for id := range byID {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	ids = append(ids, rest...)

	out := make([]TabSummary, 0, len(ids))
	for _, id := range ids {
		var ctx TabContext
		if ts, ok := tabs[id]; ok {
			ctx = ts.ctx
		} else {
			ctx = TabContext{TabID: id}
		}
		kinds := make(map[Kind]int)
		var eventIDs []string
		for _, e := range byID[id] {
			kinds[e.Kind]++
			eventIDs = append(eventIDs, e.ID)
		}
		out = append(out, TabSummary{
			Tab:        ctx,
			EventCount: len(eventIDs),
			EventIDs:   eventIDs,
			Kinds:      kinds,
		})
	}
	return out
}

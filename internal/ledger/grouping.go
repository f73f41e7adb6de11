package ledger

import (
	"sort"
	"time"

	"github.com/julio3266/finance-control-app-sub000/internal/model"
)

// SectionDateFormat is the fixed display format for date section titles.
const SectionDateFormat = "02/01/2006"

// Section is one renderable block of the transaction list: a title (a
// formatted calendar day, or empty when grouping is suppressed) and its
// ordered records.
type Section struct {
	Title string
	Date  time.Time
	Items []model.TransactionRecord
}

// ProjectSections produces the renderable sections for the current filter
// state. Three tiers, in priority order:
//
//  1. No date-range filter: grouping is suppressed and every record becomes
//     its own untitled section (month-scoped infinite lists show no date
//     headers).
//  2. Date range active and the server supplied groups: use them, re-keyed
//     to the display format, validated, and sorted newest first.
//  3. Date range active but the response was flat: group client-side by
//     local calendar day with the same sort rules.
//
// The same endpoint answers in either flat or pre-grouped form depending on
// query shape, so the engine must not assume one.
func ProjectSections(records []model.TransactionRecord, filters FilterSet, serverGroups []model.DateGroup) []Section {
	if !filters.DateRangeActive() {
		sections := make([]Section, 0, len(records))
		for _, rec := range records {
			sections = append(sections, Section{Items: []model.TransactionRecord{rec}})
		}
		return sections
	}

	if len(serverGroups) > 0 {
		return sectionsFromGroups(serverGroups)
	}

	return sectionsFromGroups(groupByCalendarDay(records))
}

// sectionsFromGroups validates, sorts, and re-keys date groups for display.
// Records missing an id, timestamp, or description are excluded; groups left
// empty are dropped.
func sectionsFromGroups(groups []model.DateGroup) []Section {
	sections := make([]Section, 0, len(groups))
	for _, group := range groups {
		items := make([]model.TransactionRecord, 0, len(group.Transactions))
		for _, rec := range group.Transactions {
			if rec.Validate() != nil {
				continue
			}
			items = append(items, rec)
		}
		if len(items) == 0 {
			continue
		}

		sort.SliceStable(items, func(i, j int) bool {
			return items[i].OccurredAt.After(items[j].OccurredAt)
		})

		sections = append(sections, Section{
			Title: group.Date.Format(SectionDateFormat),
			Date:  group.Date,
			Items: items,
		})
	}

	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].Date.After(sections[j].Date)
	})

	return sections
}

// groupByCalendarDay buckets a flat record list by local calendar day.
func groupByCalendarDay(records []model.TransactionRecord) []model.DateGroup {
	buckets := make(map[time.Time][]model.TransactionRecord)
	for _, rec := range records {
		day := rec.CalendarDay()
		buckets[day] = append(buckets[day], rec)
	}

	groups := make([]model.DateGroup, 0, len(buckets))
	for day, items := range buckets {
		groups = append(groups, model.DateGroup{Date: day, Transactions: items})
	}
	return groups
}

// GroupsFromSections converts rendered sections back into date groups. The
// extract exporter uses it to hand the exact on-screen grouping to writers.
func GroupsFromSections(sections []Section) []model.DateGroup {
	groups := make([]model.DateGroup, 0, len(sections))
	for _, s := range sections {
		groups = append(groups, model.DateGroup{Date: s.Date, Transactions: s.Items})
	}
	return groups
}

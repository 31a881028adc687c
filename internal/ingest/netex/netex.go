// Package netex parses a NeTEx ServiceCalendar XML fragment into
// calendar.Mask validity patterns using github.com/antchfx/xmlquery and
// github.com/antchfx/xpath for DOM traversal, the same pair the NeTEx
// validator in the reference stack uses to walk a parsed document
// (xmlquery.Parse + xmlquery.Find/FindOne over XPath strings) rather than
// a generated XSD binding.
package netex

import (
	"io"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"

	"github.com/antigravity/transitcore/internal/calendar"
	"github.com/antigravity/transitcore/internal/errs"
)

// DayType is one <DayType> element's resolved validity: the service id it
// governs and the 366-bit mask built from its referenced <OperatingPeriod>
// and its <DaysOfWeek> property.
type DayType struct {
	ID   string
	Mask calendar.Mask
}

// ParseServiceCalendar reads a <ServiceCalendar> fragment and returns one
// DayType per <dayTypes><DayType> element, each paired with the operating
// days its <OperatingPeriodRef>/<DaysOfWeek> resolve to. A mask starts at
// the period's FromDate and covers the full 366-day horizon; ToDate is
// parsed for validity only and does not end the mask. A DayType with no
// OperatingPeriodRef gets an empty mask.
func ParseServiceCalendar(r io.Reader) ([]DayType, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, errs.Wrap(err, "parsing NeTEx ServiceCalendar")
	}

	periods := make(map[string]period)
	for _, node := range xmlquery.Find(doc, "//ServiceCalendar//OperatingPeriod") {
		id := xmlquery.FindOne(node, "./@id")
		from := xmlquery.FindOne(node, "./FromDate")
		to := xmlquery.FindOne(node, "./ToDate")
		if id == nil || from == nil || to == nil {
			continue
		}
		p, err := parsePeriod(from.InnerText(), to.InnerText())
		if err != nil {
			return nil, errs.Invalid("OperatingPeriod %s: %v", id.InnerText(), err)
		}
		periods[id.InnerText()] = p
	}

	var out []DayType
	for _, node := range xmlquery.Find(doc, "//ServiceCalendar//dayTypes/DayType") {
		idNode := xmlquery.FindOne(node, "./@id")
		if idNode == nil {
			continue
		}
		id := idNode.InnerText()

		weekdays := parseWeekdays(xmlquery.FindOne(node, "./properties/PropertyOfDay/DaysOfWeek"))

		var mask calendar.Mask
		refNode := xmlquery.FindOne(node, "./OperatingPeriodRef/@ref")
		if refNode != nil {
			p, ok := periods[refNode.InnerText()]
			if !ok {
				return nil, errs.Invalid("DayType %s references unknown OperatingPeriod %s", id, refNode.InnerText())
			}
			mask = p.mask(weekdays)
		}
		out = append(out, DayType{ID: id, Mask: mask})
	}
	return out, nil
}

type period struct {
	from time.Time
}

func parsePeriod(fromStr, toStr string) (period, error) {
	from, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(fromStr)[:10], time.UTC)
	if err != nil {
		return period{}, err
	}
	if _, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(toStr)[:10], time.UTC); err != nil {
		return period{}, err
	}
	return period{from: from}, nil
}

// mask marks every day in [0, calendar.Days) whose weekday (relative to
// p.from as day index 0) is in active.
func (p period) mask(active map[time.Weekday]bool) calendar.Mask {
	var m calendar.Mask
	for day := 0; day < calendar.Days; day++ {
		if active[p.from.AddDate(0, 0, day).Weekday()] {
			m[day] = true
		}
	}
	return m
}

// parseWeekdays reads a NeTEx <DaysOfWeek> element's space-separated
// weekday name list (e.g. "Monday Tuesday Wednesday"); a nil node means
// every day is active, mirroring NeTEx's "absence means Everyday" default.
func parseWeekdays(node *xmlquery.Node) map[time.Weekday]bool {
	names := map[string]time.Weekday{
		"Monday": time.Monday, "Tuesday": time.Tuesday, "Wednesday": time.Wednesday,
		"Thursday": time.Thursday, "Friday": time.Friday, "Saturday": time.Saturday, "Sunday": time.Sunday,
	}
	if node == nil {
		active := make(map[time.Weekday]bool, 7)
		for _, wd := range names {
			active[wd] = true
		}
		return active
	}
	active := make(map[time.Weekday]bool, 7)
	for _, tok := range strings.Fields(node.InnerText()) {
		if tok == "Everyday" {
			for _, wd := range names {
				active[wd] = true
			}
			continue
		}
		if wd, ok := names[tok]; ok {
			active[wd] = true
		}
	}
	return active
}

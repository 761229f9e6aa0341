// Package recurrence expands RFC 5545 recurrence rules into the dates of a
// recurring meeting. Only whole days are generated; the time of day comes
// from the grid window.
package recurrence

import (
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	errs "github.com/hrygo/meetgrid/server/internal/errors"
)

// MaxDates caps rules without COUNT or UNTIL.
const MaxDates = 366

// Rule is a parsed recurrence rule without a start date.
type Rule struct {
	opt rrule.ROption
}

// Parse parses a rule such as "FREQ=WEEKLY;BYDAY=MO,WE;COUNT=6". An
// "RRULE:" prefix is accepted. Rules repeating more often than daily are
// rejected.
func Parse(s string) (*Rule, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "RRULE:")
	if !strings.Contains(strings.ToUpper(s), "FREQ=") {
		return nil, errs.InvalidArgument("recurrence rule needs FREQ")
	}

	opt, err := rrule.StrToROption(s)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrCodeInvalidArgument, "invalid recurrence rule").
			WithContext("rule", s)
	}
	if opt.Freq > rrule.DAILY {
		return nil, errs.InvalidArgument("recurrence rule must repeat daily or less often")
	}
	if opt.Interval < 0 || opt.Count < 0 {
		return nil, errs.InvalidArgument("INTERVAL and COUNT must not be negative")
	}
	return &Rule{opt: *opt}, nil
}

// Dates returns the local midnights the rule selects, beginning with the
// date of start in start's location. UNTIL is inclusive by calendar date.
func (r *Rule) Dates(start time.Time) []time.Time {
	loc := start.Location()
	y, m, d := start.Date()

	opt := r.opt
	opt.Dtstart = time.Date(y, m, d, 0, 0, 0, 0, loc)
	if !opt.Until.IsZero() {
		uy, um, ud := opt.Until.Date()
		opt.Until = time.Date(uy, um, ud, 23, 59, 59, 0, loc)
	}
	if opt.Count == 0 && opt.Until.IsZero() {
		opt.Count = MaxDates
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		// Parse already validated the options.
		return nil
	}
	dates := rule.All()
	if len(dates) > MaxDates {
		dates = dates[:MaxDates]
	}
	return dates
}

// String returns the RRULE string representation.
func (r *Rule) String() string {
	return r.opt.RRuleString()
}

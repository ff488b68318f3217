package tasks

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"taskgateway/internal/apperr"
	"taskgateway/internal/operation"
)

// dateLayouts are tried in order; the first layout that parses wins.
var dateLayouts = []string{
	"2006-1-2",
	"Jan 2, 2006",
	"2-Jan-2006",
	"2006/1/2 15:04:05",
	"2006-1-2 15:04:05",
	"2006/1/2",
	"Jan 2, 2006 15:04:05",
	"2-Jan-2006 15:04:05",
	"Jan-2-2006",
}

var weekdays = func() map[string]time.Weekday {
	m := make(map[string]time.Weekday, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		m[strings.ToLower(d.String())] = d
	}
	return m
}()

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// countWeekday counts lines that parse to day. Lines matching no layout are
// skipped.
func countWeekday(content []byte, day time.Weekday) int {
	n := 0
	for _, line := range bytes.Split(content, []byte("\n")) {
		if t, ok := parseDate(string(line)); ok && t.Weekday() == day {
			n++
		}
	}
	return n
}

type countSpecificDay struct{ host Host }

func newCountSpecificDay(h Host) *countSpecificDay { return &countSpecificDay{host: h} }

func (o *countSpecificDay) Spec() operation.Spec {
	return operation.Spec{
		Name:        "count_specific_day",
		Description: "Count occurrences of a specific day in a list of dates",
		Params: []operation.Param{
			pathParam("input_file_path", "Path to input dates file"),
			outputParam("output_file_path", "Path to output count file"),
			{
				Name:        "day_to_count",
				Type:        operation.TypeString,
				Description: "Name of the day to count (e.g., 'Monday', 'Tuesday', etc.)",
				Required:    true,
				Enum:        []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"},
			},
		},
	}
}

func (o *countSpecificDay) Call(ctx context.Context, args operation.Args) (*operation.Result, error) {
	in, err := args.RequireString("input_file_path")
	if err != nil {
		return nil, err
	}
	out, err := args.RequireString("output_file_path")
	if err != nil {
		return nil, err
	}
	dayName, err := args.RequireString("day_to_count")
	if err != nil {
		return nil, apperr.Invalid("Bad Request response: Invalid day")
	}
	day, ok := weekdays[strings.ToLower(dayName)]
	if !ok {
		return nil, apperr.Invalid("Bad Request response: Invalid day")
	}
	if _, err := o.host.FS.Resolve(in); err != nil {
		return nil, err
	}
	if _, err := o.host.FS.CheckTarget(out); err != nil {
		return nil, err
	}

	content, err := o.host.FS.SafeReadFile(in)
	if err != nil {
		return nil, err
	}
	n := countWeekday(content, day)
	if err := o.host.FS.SafeWriteFile(out, []byte(strconv.Itoa(n))); err != nil {
		return nil, err
	}
	o.host.logger().Debug("counted weekday", zap.String("day", day.String()), zap.Int("count", n))
	return operation.FileCreated(out), nil
}

package feed

import (
	"fmt"
	"io"
	"time"
)

// Gap kinds.
const (
	GapMinor      = "minor"
	GapSuspicious = "suspicious"
	GapWeekend    = "weekend"
)

// Gap is a run of missing bars.
type Gap struct {
	Start time.Time // open time of the first missing bar
	Bars  int
	Kind  string
}

// Stats summarizes the coverage of a feed at a fixed timeframe.
type Stats struct {
	Timeframe  int64
	First      time.Time
	Last       time.Time
	Expected   int
	Present    int
	Missing    int
	Gaps       []Gap
	Weekend    int
	Suspicious int
	Longest    Gap
}

// Scan drains f and reports the gaps between consecutive candles at
// timeframe tf seconds. f is closed.
func Scan(f Feed, tf int64) (Stats, error) {
	defer f.Close()

	s := Stats{Timeframe: tf}
	prev := int64(-1)
	for {
		c, ok, err := f.Next()
		if err != nil {
			return s, err
		}
		if !ok {
			break
		}
		if prev < 0 {
			s.First = c.Time()
		} else if missing := int((c.Timestamp-prev)/tf) - 1; missing > 0 {
			s.addGap(Gap{
				Start: time.Unix(prev+tf, 0).UTC(),
				Bars:  missing,
				Kind:  classifyGap(prev+tf, int64(missing)*tf),
			})
		}
		prev = c.Timestamp
		s.Present++
	}
	if prev >= 0 {
		s.Last = time.Unix(prev, 0).UTC()
		s.Expected = s.Present + s.Missing
	}
	return s, nil
}

func (s *Stats) addGap(g Gap) {
	s.Gaps = append(s.Gaps, g)
	s.Missing += g.Bars
	switch g.Kind {
	case GapWeekend:
		s.Weekend++
	case GapSuspicious:
		s.Suspicious++
	}
	if g.Bars > s.Longest.Bars {
		s.Longest = g
	}
}

// classifyGap labels a gap starting at unix second start that lasts
// seconds. Day-long gaps starting Friday through Sunday (UTC) are
// weekends; other gaps of ten minutes or more are suspicious.
func classifyGap(start, seconds int64) string {
	wd := time.Unix(start, 0).UTC().Weekday()
	minutes := seconds / 60

	if minutes >= 60*24 {
		if wd == time.Friday || wd == time.Saturday || wd == time.Sunday {
			return GapWeekend
		}
		return GapSuspicious
	}
	if minutes >= 10 {
		return GapSuspicious
	}
	return GapMinor
}

// Print writes a human readable report of s.
func (s Stats) Print(w io.Writer) {
	tf, err := FormatTimeframe(s.Timeframe)
	if err != nil {
		tf = fmt.Sprintf("%ds", s.Timeframe)
	}
	fmt.Fprintf(w, "---- Feed Stats (%s) ----\n", tf)
	if s.Present == 0 {
		fmt.Fprintln(w, "no candles")
		return
	}
	fmt.Fprintf(w, "Range: %s → %s\n", s.First.Format(time.RFC3339), s.Last.Format(time.RFC3339))
	fmt.Fprintf(w, "  Expected Bars: %d\n", s.Expected)
	fmt.Fprintf(w, "   Present Bars: %d\n", s.Present)
	fmt.Fprintf(w, "   Missing Bars: %d\n", s.Missing)
	fmt.Fprintf(w, "     Total Gaps: %d\n", len(s.Gaps))
	fmt.Fprintf(w, "   Weekend Gaps: %d\n", s.Weekend)
	fmt.Fprintf(w, "Suspicious Gaps: %d\n", s.Suspicious)
	if s.Longest.Bars > 0 {
		fmt.Fprintf(w, "Longest Gap: %d bars at %s (%s)\n", s.Longest.Bars, s.Longest.Start.Format(time.RFC3339), s.Longest.Kind)
	}
}

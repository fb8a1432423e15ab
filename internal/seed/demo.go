package seed

import (
	"bytes"
	_ "embed"
	"time"
)

//go:embed demo.yaml
var demoYAML []byte

// demoElapsed is how far into the demo contest DemoAt places now. The active
// demo battles end on day 30 and the contest on day 90.
const demoElapsed = 20 * 24 * time.Hour

// Demo returns the built-in demo dataset: four agents competing in the
// "Q1 2024 Sales Blitz" contest with three approved deals and three battles.
// Its dates are the fixed 2024 ones.
func Demo() Dataset {
	ds, err := Parse(bytes.NewReader(demoYAML))
	if err != nil {
		panic("seed: embedded demo dataset is invalid: " + err.Error())
	}
	return ds
}

// DemoAt returns the demo dataset moved so that now falls on day 20 of the
// contest, keeping its contest and active battles running.
func DemoAt(now time.Time) Dataset {
	ds := Demo()
	if len(ds.Contests) == 0 {
		return ds
	}
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return ds.Shift(today.Add(-demoElapsed).Sub(ds.Contests[0].StartDate))
}

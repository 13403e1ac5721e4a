////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package measure records timestamped events of a computation round trip.
package measure

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Metrics holds the list of events measured for one computation. The
// RWMutex prevents two threads from writing to the list at the same time.
type Metrics struct {
	Events []Metric
	sync.RWMutex
}

// Metric holds a single measurement: a tag and the time it was taken.
type Metric struct {
	Tag       string
	Timestamp time.Time
}

// Measure appends a Metric for tag stamped with the current time and
// returns the timestamp.
func (ms *Metrics) Measure(tag string) time.Time {
	metric := Metric{
		Tag:       tag,
		Timestamp: time.Now(),
	}

	ms.Lock()
	ms.Events = append(ms.Events, metric)
	ms.Unlock()

	return metric.Timestamp
}

// GetEvents returns a copy of the Events array.
func (ms *Metrics) GetEvents() []Metric {
	ms.RLock()
	defer ms.RUnlock()

	events := make([]Metric, len(ms.Events))
	copy(events, ms.Events)
	return events
}

// Elapsed returns the time between the first events tagged from and to. It
// returns false if either was not measured.
func (ms *Metrics) Elapsed(from, to string) (time.Duration, bool) {
	ms.RLock()
	defer ms.RUnlock()

	var start, end *time.Time
	for i := range ms.Events {
		switch ms.Events[i].Tag {
		case from:
			if start == nil {
				start = &ms.Events[i].Timestamp
			}
		case to:
			if end == nil {
				end = &ms.Events[i].Timestamp
			}
		}
	}
	if start == nil || end == nil {
		return 0, false
	}
	return end.Sub(*start), true
}

// String lists every event with its delay from the first one
func (ms *Metrics) String() string {
	events := ms.GetEvents()
	if len(events) == 0 {
		return "no events"
	}

	parts := make([]string, len(events))
	for i, e := range events {
		parts[i] = fmt.Sprintf("%s +%s", e.Tag,
			e.Timestamp.Sub(events[0].Timestamp))
	}
	return strings.Join(parts, ", ")
}

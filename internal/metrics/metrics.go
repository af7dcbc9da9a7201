// Package metrics records dashboard activity.
package metrics

// Recorder receives dashboard events worth counting.
type Recorder interface {
	CountdownTick()
	SampleGenerated(source string)
	SampleFailed(source string)
	ToggleApplied(kind string, found bool)
	TipsServed(outcome string)
	ViewOpened(view string)
	ViewClosed(view string)
}

// Nop discards everything.
type Nop struct{}

func (Nop) CountdownTick()             {}
func (Nop) SampleGenerated(string)     {}
func (Nop) SampleFailed(string)        {}
func (Nop) ToggleApplied(string, bool) {}
func (Nop) TipsServed(string)          {}
func (Nop) ViewOpened(string)          {}
func (Nop) ViewClosed(string)          {}

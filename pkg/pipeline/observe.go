package pipeline

import "time"

type nopObserver struct{}

func (nopObserver) FileScanned()                {}
func (nopObserver) Violation(_, _ string)       {}
func (nopObserver) FileRepaired()               {}
func (nopObserver) FileFailed(_ string)         {}
func (nopObserver) ObserveScan(_ time.Duration) {}

func observe(o Observer) Observer {
	if o == nil {
		return nopObserver{}
	}
	return o
}

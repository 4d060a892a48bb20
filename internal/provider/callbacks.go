package provider

import "sync"

// Guarded returns a copy of cb that delivers at most one outcome in
// total: whichever of success, exit, or failure fires first wins and
// every later call is dropped.
func (cb Callbacks) Guarded() Callbacks {
	var once sync.Once

	return Callbacks{
		OnSuccess: func(auth Authorization) {
			once.Do(func() {
				if cb.OnSuccess != nil {
					cb.OnSuccess(auth)
				}
			})
		},
		OnExit: func() {
			once.Do(func() {
				if cb.OnExit != nil {
					cb.OnExit()
				}
			})
		},
		OnFailure: func(err error) {
			once.Do(func() {
				if cb.OnFailure != nil {
					cb.OnFailure(err)
				}
			})
		},
	}
}

package notify

import "sync"

// Recorder is a Surface that keeps toasts in memory.  The CLI prints from
// it and tests assert on it.
type Recorder struct {
	mu      sync.Mutex
	toasts  []Toast
	leaving map[ID]bool
	history []Toast
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder { return &Recorder{leaving: make(map[ID]bool)} }

func (r *Recorder) Append(t Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, t)
	r.history = append(r.history, t)
}

func (r *Recorder) Exit(id ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaving[id] = true
}

func (r *Recorder) Remove(id ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, t := range r.toasts {
		if t.ID == id {
			r.toasts = append(r.toasts[:i], r.toasts[i+1:]...)
			break
		}
	}
	delete(r.leaving, id)
}

// Visible returns the toasts currently on screen, oldest first.
func (r *Recorder) Visible() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Toast(nil), r.toasts...)
}

// History returns every toast ever appended.
func (r *Recorder) History() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Toast(nil), r.history...)
}

// Leaving reports whether id is in its exit transition.
func (r *Recorder) Leaving(id ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaving[id]
}

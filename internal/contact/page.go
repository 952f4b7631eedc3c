package contact

import "sync"

// View is the output surface a Controller drives. Each controller owns
// exactly one View and nothing else writes to it.
type View interface {
	// ClearErrors empties and hides every error slot. Safe to call when no
	// errors are displayed.
	ClearErrors()
	// ShowError writes msg into field's slot and makes the slot visible.
	ShowError(field Field, msg string)
	// SetValues stores the values to display back in the inputs.
	SetValues(raw Fields)
	// ResetValues clears every input.
	ResetValues()
	SetFormVisible(visible bool)
	SetSuccessVisible(visible bool)
}

// Slot is the error display region of one field.
type Slot struct {
	ID      string
	Text    string
	Visible bool
}

// Page is the in-memory view model of a contact form, rendered by the site
// templates. The zero value is not usable; use NewPage.
type Page struct {
	mu             sync.RWMutex
	values         Fields
	slots          map[Field]Slot
	formVisible    bool
	successVisible bool
}

// NewPage returns a page in its initial state: empty inputs, hidden error
// slots, form shown and success message hidden.
func NewPage() *Page {
	p := &Page{
		slots:       make(map[Field]Slot, len(AllFields)),
		formVisible: true,
	}
	for _, f := range AllFields {
		p.slots[f] = Slot{ID: f.SlotID()}
	}
	return p
}

func (p *Page) ClearErrors() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, f := range AllFields {
		p.slots[f] = Slot{ID: f.SlotID()}
	}
}

func (p *Page) ShowError(field Field, msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.slots[field] = Slot{ID: field.SlotID(), Text: msg, Visible: true}
}

func (p *Page) SetValues(raw Fields) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values = raw
}

func (p *Page) ResetValues() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values = Fields{}
}

func (p *Page) SetFormVisible(visible bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.formVisible = visible
}

func (p *Page) SetSuccessVisible(visible bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.successVisible = visible
}

// Snapshot is an immutable copy of a Page used for rendering.
type Snapshot struct {
	Values         Fields
	Slots          map[Field]Slot
	FormVisible    bool
	SuccessVisible bool
}

// Snapshot copies the current page state.
func (p *Page) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	slots := make(map[Field]Slot, len(p.slots))
	for f, s := range p.slots {
		slots[f] = s
	}
	return Snapshot{
		Values:         p.values,
		Slots:          slots,
		FormVisible:    p.formVisible,
		SuccessVisible: p.successVisible,
	}
}

// Slot returns the error slot of the named field; templates call it as
// {{ (.Form.Slot "email").Text }}.
func (s Snapshot) Slot(name string) Slot {
	f := Field(name)
	if slot, ok := s.Slots[f]; ok {
		return slot
	}
	return Slot{ID: f.SlotID()}
}

// Value returns the displayed value of the named field.
func (s Snapshot) Value(name string) string {
	return s.Values.Value(Field(name))
}

// HasErrors reports whether any slot is visible.
func (s Snapshot) HasErrors() bool {
	for _, slot := range s.Slots {
		if slot.Visible {
			return true
		}
	}
	return false
}

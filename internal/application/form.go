package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ericfisherdev/folio/internal/domain/model"
)

// DefaultSuccessDelay is how long a form shows its success indicator before
// it closes.
const DefaultSuccessDelay = 1500 * time.Millisecond

var (
	// ErrInvalidForm is returned by Submit when at least one field fails validation.
	ErrInvalidForm = errors.New("form has invalid fields")

	// ErrFormBusy is returned by Submit while a previous submission is pending
	// or its success indicator is still showing.
	ErrFormBusy = errors.New("form submission already in progress")
)

// FormStatus is the lifecycle state of a Form.
type FormStatus int

const (
	FormIdle FormStatus = iota
	FormSubmitting
	FormSucceeded
	FormClosed
)

// String returns a lower-case name for the status.
func (s FormStatus) String() string {
	switch s {
	case FormSubmitting:
		return "submitting"
	case FormSucceeded:
		return "succeeded"
	case FormClosed:
		return "closed"
	default:
		return "idle"
	}
}

// SubmitFunc receives the full flat value map of a valid form. File values
// are passed as-is.
type SubmitFunc func(ctx context.Context, values model.Values) error

// FormOption configures a Form.
type FormOption func(*Form)

// WithSuccessDelay overrides DefaultSuccessDelay.
func WithSuccessDelay(d time.Duration) FormOption {
	return func(f *Form) { f.successDelay = d }
}

// WithOnClose sets the callback run when the form closes, either through
// Cancel or after a successful submission.
func WithOnClose(fn func()) FormOption {
	return func(f *Form) { f.onClose = fn }
}

// WithScheduler replaces time.AfterFunc for the delayed close. Tests use it to
// control the clock.
func WithScheduler(fn func(d time.Duration, f func())) FormOption {
	return func(f *Form) { f.schedule = fn }
}

// Form is an editable, validated working copy of a record snapshot. It is safe
// for concurrent use.
type Form struct {
	mu sync.Mutex

	fields  []model.Field
	initial model.Values
	values  model.Values
	errors  map[string]string
	touched map[string]bool
	status  FormStatus

	successDelay time.Duration
	onClose      func()
	schedule     func(d time.Duration, f func())
}

// NewForm creates a form for fields whose working copy starts from initial.
// A nil initial snapshot means a new record.
func NewForm(fields []model.Field, initial model.Values, opts ...FormOption) *Form {
	f := &Form{
		fields:       fields,
		successDelay: DefaultSuccessDelay,
		schedule: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	f.reset(initial)
	return f
}

func (f *Form) reset(initial model.Values) {
	if initial == nil {
		initial = model.Values{}
	}
	f.initial = initial.Clone()
	f.values = initial.Clone()
	f.errors = map[string]string{}
	f.touched = map[string]bool{}

	// A pending submission or a scheduled close outlives the new snapshot.
	if f.status != FormSubmitting && f.status != FormSucceeded {
		f.status = FormIdle
	}
}

// Reset re-initialises the form from snapshot, but only when its content
// differs from the snapshot the form currently holds. Passing an equal map
// under a new identity keeps in-progress edits. It reports whether the form
// was reset. Reset never changes a submitting or succeeded status.
func (f *Form) Reset(snapshot model.Values) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if snapshot == nil {
		snapshot = model.Values{}
	}
	if cmp.Equal(f.initial, snapshot) {
		return false
	}

	f.reset(snapshot)
	return true
}

// Change sets the value of a field. The field is revalidated only if it has
// already been touched.
func (f *Form) Change(name string, value any) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.values[name] = value
	if f.touched[name] {
		f.validateLocked(name)
	}
}

// SetFile stores a pending upload for an image field, marks it touched and
// validates it.
func (f *Form) SetFile(name string, file *model.File) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if file == nil {
		return
	}
	f.values[name] = file
	f.touched[name] = true
	f.validateLocked(name)
}

// Blur marks a field touched and validates it.
func (f *Form) Blur(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.touched[name] = true
	f.validateLocked(name)
}

func (f *Form) validateLocked(name string) {
	field, ok := f.field(name)
	if !ok {
		return
	}

	if msg := ValidateField(field, f.values[name], f.initial[name]); msg != "" {
		f.errors[name] = msg
	} else {
		delete(f.errors, name)
	}
}

func (f *Form) field(name string) (model.Field, bool) {
	for _, fl := range f.fields {
		if fl.Name == name {
			return fl, true
		}
	}
	return model.Field{}, false
}

// Submit marks every field touched and validates all of them. If any field
// fails, it returns ErrInvalidForm without calling submit. Otherwise the form
// enters the submitting state and calls submit with a copy of the values.
// On success the form shows its success state and closes after the success
// delay; on failure it returns to idle with its values intact and the error
// is returned.
func (f *Form) Submit(ctx context.Context, submit SubmitFunc) error {
	f.mu.Lock()
	if f.status == FormSubmitting || f.status == FormSucceeded {
		f.mu.Unlock()
		return ErrFormBusy
	}

	f.errors = map[string]string{}
	for _, field := range f.fields {
		f.touched[field.Name] = true
		if msg := ValidateField(field, f.values[field.Name], f.initial[field.Name]); msg != "" {
			f.errors[field.Name] = msg
		}
	}
	if len(f.errors) > 0 {
		f.mu.Unlock()
		return ErrInvalidForm
	}

	f.status = FormSubmitting
	values := f.values.Clone()
	f.mu.Unlock()

	if err := submit(ctx, values); err != nil {
		f.mu.Lock()
		f.status = FormIdle
		f.mu.Unlock()
		return err
	}

	f.mu.Lock()
	f.status = FormSucceeded
	delay := f.successDelay
	f.mu.Unlock()

	f.schedule(delay, f.closeAfterSuccess)
	return nil
}

func (f *Form) closeAfterSuccess() {
	f.mu.Lock()
	if f.status != FormSucceeded {
		f.mu.Unlock()
		return
	}
	f.status = FormClosed
	onClose := f.onClose
	f.mu.Unlock()

	if onClose != nil {
		onClose()
	}
}

// Cancel closes the form. It has no effect and returns false while a
// submission is pending.
func (f *Form) Cancel() bool {
	f.mu.Lock()
	if f.status == FormSubmitting {
		f.mu.Unlock()
		return false
	}
	f.status = FormClosed
	onClose := f.onClose
	f.mu.Unlock()

	if onClose != nil {
		onClose()
	}
	return true
}

// Status returns the lifecycle state.
func (f *Form) Status() FormStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// CanSubmit reports whether the submit control is enabled.
func (f *Form) CanSubmit() bool {
	return f.Status() == FormIdle
}

// CanCancel reports whether the cancel control is enabled.
func (f *Form) CanCancel() bool {
	return f.Status() != FormSubmitting
}

// SuccessDelay returns how long the success indicator is shown.
func (f *Form) SuccessDelay() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.successDelay
}

// Fields returns the field descriptors.
func (f *Form) Fields() []model.Field {
	return f.fields
}

// Values returns a copy of the working values.
func (f *Form) Values() model.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values.Clone()
}

// Value returns the working value of one field.
func (f *Form) Value(name string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[name]
}

// Initial returns the snapshot value of one field.
func (f *Form) Initial(name string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initial[name]
}

// Touched reports whether the field has been blurred or submitted.
func (f *Form) Touched(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.touched[name]
}

// Error returns the current validation error of a field, touched or not.
func (f *Form) Error(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errors[name]
}

// VisibleError returns the error to show for a field: its validation error if
// the field has been touched, otherwise "".
func (f *Form) VisibleError(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.touched[name] {
		return ""
	}
	return f.errors[name]
}

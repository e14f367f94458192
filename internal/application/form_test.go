package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/folio/internal/domain/model"
)

// fakeScheduler captures the delayed close instead of arming a timer.
type fakeScheduler struct {
	delay time.Duration
	fn    func()
}

func (s *fakeScheduler) schedule(d time.Duration, fn func()) {
	s.delay = d
	s.fn = fn
}

func (s *fakeScheduler) fire(t *testing.T) {
	t.Helper()
	require.NotNil(t, s.fn, "no close was scheduled")
	s.fn()
}

var awardFields = []model.Field{
	{Name: "title", Label: "Title", Kind: model.FieldText, Required: true, MinLength: intPtr(3)},
	{Name: "year", Label: "Year", Kind: model.FieldNumber, Min: floatPtr(1900)},
}

func TestForm_ErrorsHiddenUntilTouched(t *testing.T) {
	form := NewForm(awardFields, nil)

	form.Change("title", "ab")
	assert.Equal(t, "", form.VisibleError("title"))
	assert.False(t, form.Touched("title"))

	form.Blur("title")
	assert.True(t, form.Touched("title"))
	assert.Equal(t, "Title must be at least 3 characters", form.VisibleError("title"))

	form.Change("title", "abc")
	assert.Equal(t, "", form.VisibleError("title"))
}

func TestForm_SubmitBlockedByRequiredField(t *testing.T) {
	form := NewForm(awardFields, nil)
	calls := 0

	err := form.Submit(context.Background(), func(context.Context, model.Values) error {
		calls++
		return nil
	})

	require.ErrorIs(t, err, ErrInvalidForm)
	assert.Equal(t, 0, calls)
	assert.Equal(t, "Title is required", form.VisibleError("title"))
	assert.Equal(t, "", form.VisibleError("year"))
	assert.True(t, form.Touched("year"))
	assert.Equal(t, FormIdle, form.Status())
}

func TestForm_SubmitSuccessClosesAfterDelay(t *testing.T) {
	sched := &fakeScheduler{}
	closed := 0
	form := NewForm(awardFields, nil,
		WithScheduler(sched.schedule),
		WithOnClose(func() { closed++ }),
	)

	form.Change("title", "Best Faculty")
	form.Change("year", "2021")

	var got []model.Values
	err := form.Submit(context.Background(), func(_ context.Context, values model.Values) error {
		got = append(got, values)
		return nil
	})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.Values{"title": "Best Faculty", "year": "2021"}, got[0])
	assert.Equal(t, FormSucceeded, form.Status())
	assert.False(t, form.CanSubmit())
	assert.Equal(t, DefaultSuccessDelay, sched.delay)
	assert.Equal(t, 0, closed)

	sched.fire(t)

	assert.Equal(t, FormClosed, form.Status())
	assert.Equal(t, 1, closed)
}

func TestForm_SubmitFailureKeepsValues(t *testing.T) {
	form := NewForm(awardFields, model.Values{"title": "Original"})
	form.Change("title", "Edited")

	err := form.Submit(context.Background(), func(context.Context, model.Values) error {
		return errors.New("permission denied")
	})

	require.EqualError(t, err, "permission denied")
	assert.Equal(t, FormIdle, form.Status())
	assert.Equal(t, "Edited", form.Value("title"))
	assert.True(t, form.CanSubmit())
}

func TestForm_BusyWhileSubmitting(t *testing.T) {
	form := NewForm(awardFields, model.Values{"title": "Original"})

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- form.Submit(context.Background(), func(context.Context, model.Values) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	assert.Equal(t, FormSubmitting, form.Status())
	assert.False(t, form.CanCancel())
	assert.False(t, form.Cancel())
	assert.ErrorIs(t, form.Submit(context.Background(), func(context.Context, model.Values) error { return nil }), ErrFormBusy)

	close(release)
	require.NoError(t, <-done)
}

func TestForm_ResetWhileSubmittingStaysBusy(t *testing.T) {
	form := NewForm(awardFields, model.Values{"title": "Original"})

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- form.Submit(context.Background(), func(context.Context, model.Values) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	require.True(t, form.Reset(model.Values{"title": "Replaced"}))
	assert.Equal(t, FormSubmitting, form.Status())
	assert.False(t, form.CanSubmit())
	assert.False(t, form.CanCancel())
	assert.Equal(t, "Replaced", form.Value("title"))
	assert.ErrorIs(t, form.Submit(context.Background(), func(context.Context, model.Values) error { return nil }), ErrFormBusy)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, FormSucceeded, form.Status())
}

func TestForm_ResetDuringSuccessStillCloses(t *testing.T) {
	sched := &fakeScheduler{}
	closed := false
	form := NewForm(awardFields, model.Values{"title": "Original"},
		WithScheduler(sched.schedule),
		WithOnClose(func() { closed = true }),
	)

	require.NoError(t, form.Submit(context.Background(), func(context.Context, model.Values) error { return nil }))
	require.True(t, form.Reset(model.Values{"title": "Saved"}))
	assert.Equal(t, FormSucceeded, form.Status())

	sched.fire(t)
	assert.True(t, closed)
	assert.Equal(t, FormClosed, form.Status())
}

func TestForm_ResetAfterCloseReturnsToIdle(t *testing.T) {
	form := NewForm(awardFields, model.Values{"title": "Original"})
	require.True(t, form.Cancel())

	require.True(t, form.Reset(model.Values{"title": "Next"}))
	assert.Equal(t, FormIdle, form.Status())
	assert.True(t, form.CanSubmit())
}

func TestForm_SubmitAfterSuccessIsBusy(t *testing.T) {
	form := NewForm(awardFields, model.Values{"title": "Original"}, WithScheduler(func(time.Duration, func()) {}))
	submit := func(context.Context, model.Values) error { return nil }

	require.NoError(t, form.Submit(context.Background(), submit))
	assert.ErrorIs(t, form.Submit(context.Background(), submit), ErrFormBusy)
}

func TestForm_CancelRunsOnClose(t *testing.T) {
	closed := false
	form := NewForm(awardFields, nil, WithOnClose(func() { closed = true }))

	assert.True(t, form.CanCancel())
	assert.True(t, form.Cancel())
	assert.True(t, closed)
	assert.Equal(t, FormClosed, form.Status())
}

func TestForm_ResetWithEqualSnapshotKeepsEdits(t *testing.T) {
	snapshot := model.Values{"title": "Original", "year": 2020.0}
	form := NewForm(awardFields, snapshot)
	form.Change("title", "Edited")
	form.Blur("title")

	same := model.Values{"title": "Original", "year": 2020.0}
	assert.False(t, form.Reset(same))
	assert.Equal(t, "Edited", form.Value("title"))
	assert.True(t, form.Touched("title"))

	other := model.Values{"title": "Different", "year": 2020.0}
	assert.True(t, form.Reset(other))
	assert.Equal(t, "Different", form.Value("title"))
	assert.False(t, form.Touched("title"))
}

func TestForm_ImageEditKeepsSnapshotURL(t *testing.T) {
	fields := []model.Field{
		{Name: "title", Label: "Title", Kind: model.FieldText, Required: true},
		{Name: "image_url", Label: "Image", Kind: model.FieldImage, Required: true},
	}
	form := NewForm(fields, model.Values{
		"title":     "Interview",
		"image_url": "https://cdn.example.test/media/a.png",
	}, WithScheduler(func(time.Duration, func()) {}))

	var got model.Values
	err := form.Submit(context.Background(), func(_ context.Context, values model.Values) error {
		got = values
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.test/media/a.png", got["image_url"])
}

func TestForm_SetFileValidates(t *testing.T) {
	fields := []model.Field{{Name: "image_url", Label: "Image", Kind: model.FieldImage, Required: true}}
	form := NewForm(fields, nil)

	form.Blur("image_url")
	assert.Equal(t, "Image is required", form.VisibleError("image_url"))

	form.SetFile("image_url", &model.File{Name: "photo.jpg", ContentType: "image/jpeg", Data: []byte{0xff}})
	assert.Equal(t, "", form.VisibleError("image_url"))
}

func TestFormStatus_String(t *testing.T) {
	assert.Equal(t, "idle", FormIdle.String())
	assert.Equal(t, "submitting", FormSubmitting.String())
	assert.Equal(t, "succeeded", FormSucceeded.String())
	assert.Equal(t, "closed", FormClosed.String())
}

package visit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsales/crm-comercios/internal/metrics"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestSubmitReschedule(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 11, 0, 0, 0, time.Local)

	var mirrored []*Record
	mirror := MirrorFunc(func(ctx context.Context, rec *Record) error {
		mirrored = append(mirrored, rec)
		return nil
	})
	svc := NewService(repo, mirror, WithClock(fixedClock(now)))

	res, err := svc.Submit(ctx, Submission{
		RepresentativeID: "55032",
		MerchantName:     "Kiosco Sur",
		Channel:          ChannelInPerson,
		Outcome:          OutcomeNotReached,
		Response:         "no estaba el dueño",
		RescheduleDate:   "2024-05-10",
	})
	require.NoError(t, err)
	require.NoError(t, res.MirrorErr)

	require.NotNil(t, res.Record.RescheduleDate)
	assert.Equal(t, "2024-05-10", *res.Record.RescheduleDate)
	assert.True(t, res.Record.CreatedAt.Equal(now))
	require.Len(t, mirrored, 1)
	assert.Equal(t, res.Record.ID, mirrored[0].ID)

	stored, err := repo.ListByRepresentative(ctx, "55032")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.NotNil(t, stored[0].RescheduleDate)
	assert.Equal(t, "2024-05-10", *stored[0].RescheduleDate)
}

func TestSubmitDropsRescheduleUnlessNotReached(t *testing.T) {
	svc := NewService(testRepo(t), nil)

	res, err := svc.Submit(context.Background(), Submission{
		RepresentativeID: "55032",
		MerchantName:     "Kiosco Sur",
		Channel:          ChannelPhone,
		Outcome:          OutcomeReached,
		Response:         "compra la semana que viene",
		RescheduleDate:   "2024-05-10",
	})
	require.NoError(t, err)
	assert.Nil(t, res.Record.RescheduleDate)
}

func TestSubmitRejectsDuplicateSameDay(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	m := metrics.New()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)
	clock := now
	svc := NewService(repo, nil, WithMetrics(m), WithClock(func() time.Time { return clock }))

	sub := Submission{
		RepresentativeID: "55032",
		MerchantName:     "Kiosco Sur",
		Channel:          ChannelPhone,
		Outcome:          OutcomeReached,
		Response:         "ok",
	}

	_, err := svc.Submit(ctx, sub)
	require.NoError(t, err)

	clock = now.Add(5 * time.Hour)
	_, err = svc.Submit(ctx, sub)
	require.ErrorIs(t, err, ErrDuplicateToday)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "second submission must not add a row")

	clock = now.AddDate(0, 0, 1)
	_, err = svc.Submit(ctx, sub)
	require.NoError(t, err, "a new calendar day accepts the same merchant again")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.VisitsSaved))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VisitsRejected.WithLabelValues(metrics.ReasonDuplicate)))
}

func TestSubmitValidation(t *testing.T) {
	valid := Submission{
		RepresentativeID: "55032",
		MerchantName:     "Kiosco Sur",
		Channel:          ChannelMixed,
		Outcome:          OutcomeNotReached,
		Response:         "ok",
	}

	tests := []struct {
		name    string
		mutate  func(s *Submission)
		wantErr error
	}{
		{"blank response", func(s *Submission) { s.Response = "   " }, ErrResponseRequired},
		{"bad channel", func(s *Submission) { s.Channel = "email" }, ErrInvalidChannel},
		{"bad outcome", func(s *Submission) { s.Outcome = "tal vez" }, ErrInvalidOutcome},
		{"bad date", func(s *Submission) { s.RescheduleDate = "10/05/2024" }, ErrInvalidDate},
		{"missing merchant", func(s *Submission) { s.MerchantName = "" }, ErrInvalidRecord},
	}

	repo := testRepo(t)
	m := metrics.New()
	svc := NewService(repo, nil, WithMetrics(m))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := valid
			tt.mutate(&sub)
			_, err := svc.Submit(context.Background(), sub)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VisitsRejected.WithLabelValues(metrics.ReasonMissingResponse)))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.VisitsRejected.WithLabelValues(metrics.ReasonInvalid)))
}

func TestSubmitMirrorFailureKeepsLocalRecord(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	m := metrics.New()

	mirror := MirrorFunc(func(ctx context.Context, rec *Record) error {
		return errors.New("quota exceeded")
	})
	svc := NewService(repo, mirror, WithMetrics(m))

	res, err := svc.Submit(ctx, Submission{
		RepresentativeID: "55032",
		MerchantName:     "Kiosco Sur",
		Channel:          ChannelInPerson,
		Outcome:          OutcomeClosed,
		Response:         "Local cerrada definitivamente",
	})
	require.NoError(t, err)
	require.Error(t, res.MirrorErr)
	assert.Contains(t, res.MirrorErr.Error(), "quota exceeded")

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MirrorFailures))
}

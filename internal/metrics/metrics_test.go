package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordRedirect(t *testing.T) {
	before := testutil.ToFloat64(RedirectsTotal.WithLabelValues(OutcomeNotFound))
	RecordRedirect(OutcomeNotFound)
	assert.Equal(t, before+1, testutil.ToFloat64(RedirectsTotal.WithLabelValues(OutcomeNotFound)))
}

func TestRecordClickWrite(t *testing.T) {
	okBefore := testutil.ToFloat64(ClickWritesTotal.WithLabelValues(ResultOK))
	errBefore := testutil.ToFloat64(ClickWritesTotal.WithLabelValues(ResultError))

	RecordClickWrite(nil)
	RecordClickWrite(errors.New("boom"))
	RecordClickWrite(errors.New("boom"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ClickWritesTotal.WithLabelValues(ResultOK)))
	assert.Equal(t, errBefore+2, testutil.ToFloat64(ClickWritesTotal.WithLabelValues(ResultError)))
}

func TestObserveQuery_CountsErrors(t *testing.T) {
	before := testutil.ToFloat64(DatabaseErrorsTotal.WithLabelValues("test_op"))

	ObserveQuery("test_op", time.Now(), nil)
	ObserveQuery("test_op", time.Now(), errors.New("down"))

	assert.Equal(t, before+1, testutil.ToFloat64(DatabaseErrorsTotal.WithLabelValues("test_op")))
}

package metrics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordSink struct {
	runs, triggers int
	err            error
}

func (r *recordSink) RecordRun(RunRecord) error {
	r.runs++
	return r.err
}

func (r *recordSink) RecordSkippedTrigger(TriggerEvent) error {
	r.triggers++
	return nil
}

type runOnly struct{ runs int }

func (r *runOnly) RecordRun(RunRecord) error {
	r.runs++
	return nil
}

func TestMultiSinkForwardsToAll(t *testing.T) {
	failing := &recordSink{err: errors.New("down")}
	s2 := &recordSink{}
	s3 := &runOnly{}
	m := NewMultiSink(failing, s2, s3)

	assert.Error(t, m.RecordRun(RunRecord{}))
	assert.NoError(t, m.RecordSkippedTrigger(TriggerEvent{Source: "fs"}))

	assert.Equal(t, 1, failing.runs)
	assert.Equal(t, 1, s2.runs, "a failing sink must not starve the others")
	assert.Equal(t, 1, s3.runs)
	assert.Equal(t, 1, s2.triggers)
}

package oracle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScripted_ReplaysInOrder(t *testing.T) {
	s := NewScripted(
		Delegate{Target: "worker"},
		Text{Content: "done"},
	)

	d, err := s.Decide(context.Background(), Request{Agent: "root"})
	require.NoError(t, err)
	assert.Equal(t, Delegate{Target: "worker"}, d)

	d, err = s.Decide(context.Background(), Request{Agent: "worker"})
	require.NoError(t, err)
	assert.Equal(t, Text{Content: "done"}, d)

	_, err = s.Decide(context.Background(), Request{})
	assert.Error(t, err, "an exhausted script is an error")

	assert.Equal(t, 3, s.Steps())
	reqs := s.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, "root", reqs[0].Agent)
	assert.Equal(t, "worker", reqs[1].Agent)
}

func TestScripted_FailAt(t *testing.T) {
	boom := errors.New("boom")
	s := NewScripted(Text{Content: "a"}, Text{Content: "b"}).FailAt(1, boom)

	_, err := s.Decide(context.Background(), Request{})
	require.NoError(t, err)

	_, err = s.Decide(context.Background(), Request{})
	assert.ErrorIs(t, err, boom)
}

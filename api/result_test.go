package api_test

import (
	"errors"
	"testing"

	"code.hybscloud.com/iox"
	"github.com/containerd/errdefs"
	"gotest.tools/v3/assert"

	"github.com/momentics/hioload-udp/api"
)

func TestResult_ThreeOutcomes(t *testing.T) {
	ok := api.Ok(3)
	assert.Equal(t, ok.Status(), api.StatusReady)
	assert.Check(t, ok.IsReady() && !ok.WouldBlock() && !ok.Failed())
	assert.NilError(t, ok.Err())
	v, ready, err := ok.Get()
	assert.Equal(t, v, 3)
	assert.Check(t, ready)
	assert.NilError(t, err)

	nr := api.NotReady[int]()
	assert.Equal(t, nr.Status(), api.StatusNotReady)
	assert.Check(t, nr.WouldBlock())
	assert.Check(t, iox.IsWouldBlock(nr.Err()))
	v, ready, err = nr.Get()
	assert.Equal(t, v, 0)
	assert.Check(t, !ready)
	assert.NilError(t, err)

	boom := errors.New("boom")
	f := api.Fail[int](boom)
	assert.Equal(t, f.Status(), api.StatusFailed)
	assert.Check(t, f.Failed())
	assert.Check(t, errors.Is(f.Err(), boom))
	assert.Check(t, !iox.IsWouldBlock(f.Err()))
	_, ready, err = f.Get()
	assert.Check(t, !ready)
	assert.Check(t, errors.Is(err, boom))
}

func TestResult_ZeroLengthSuccessDiffersFromNotReady(t *testing.T) {
	zero := api.Ok(0)
	assert.Check(t, zero.IsReady())
	assert.Check(t, zero.Status() != api.NotReady[int]().Status())
}

func TestFail_NilErrorStillFails(t *testing.T) {
	f := api.Fail[string](nil)
	assert.Check(t, f.Failed())
	assert.Check(t, errdefs.IsInvalidArgument(f.Err()))
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, api.StatusReady.String(), "ready")
	assert.Equal(t, api.StatusNotReady.String(), "not-ready")
	assert.Equal(t, api.StatusFailed.String(), "failed")
	assert.Equal(t, api.Status(9).String(), "unknown")
}

func TestError_WrapsSentinel(t *testing.T) {
	err := api.NewError(api.ErrCodeAlreadyRegistered, "socket already registered").
		WithContext("fd", 3).
		Wrap(api.ErrAlreadyRegistered)

	assert.Check(t, errors.Is(err, api.ErrAlreadyRegistered))
	assert.Check(t, errdefs.IsConflict(err))
	assert.ErrorContains(t, err, "socket already registered (context: map[fd:3])")

	plain := api.NewError(api.ErrCodeOK, "internal")
	assert.Equal(t, plain.Error(), "internal")
	assert.Check(t, errors.Unwrap(plain) == nil)
}

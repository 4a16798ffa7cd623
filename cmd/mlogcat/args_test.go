package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_SplitMultiValueArgsJoinsBareTokens(t *testing.T) {
	in := []string{"mylog.mlog", "--order", "100", "200", "--category", "3", "5"}
	out := splitMultiValueArgs(in)
	assert.Equal(t, []string{"mylog.mlog", "--order=100,200", "--category=3,5"}, out)
}

func Test_SplitMultiValueArgsCapsOrderAtTwoTokens(t *testing.T) {
	in := []string{"--order", "1", "2", "3", "mylog.mlog"}
	out := splitMultiValueArgs(in)
	assert.Equal(t, []string{"--order=1,2", "3", "mylog.mlog"}, out)
}

func Test_SplitMultiValueArgsStopsUnlimitedListAtNonNumericToken(t *testing.T) {
	in := []string{"--category", "3", "5", "mylog.mlog"}
	out := splitMultiValueArgs(in)
	assert.Equal(t, []string{"--category=3,5", "mylog.mlog"}, out)
}

func Test_SplitMultiValueArgsStopsAtNextFlag(t *testing.T) {
	in := []string{"--pid", "1", "2", "--verbose"}
	out := splitMultiValueArgs(in)
	assert.Equal(t, []string{"--pid=1,2", "--verbose"}, out)
}

func Test_SplitMultiValueArgsLeavesUnrelatedFlagsAlone(t *testing.T) {
	in := []string{"mylog.mlog", "--clear", "--show-level"}
	out := splitMultiValueArgs(in)
	assert.Equal(t, in, out)
}

func Test_SplitMultiValueArgsLeavesAlreadyEqualsFormAlone(t *testing.T) {
	in := []string{"--category=3,5", "mylog.mlog"}
	out := splitMultiValueArgs(in)
	assert.Equal(t, in, out)
}

func Test_SplitMultiValueArgsHandlesShorthand(t *testing.T) {
	in := []string{"-s", "100", "200", "-c", "3", "5"}
	out := splitMultiValueArgs(in)
	assert.Equal(t, []string{"--order=100,200", "--category=3,5"}, out)
}

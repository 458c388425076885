package comparator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harminx/harminx/pkg/harconfig"
	"github.com/harminx/harminx/pkg/harmodel"
)

func snapshot(status int, body string) harmodel.ResponseSnapshot {
	s := status
	b := body
	return harmodel.ResponseSnapshot{StatusCode: &s, Body: &b}
}

func TestDefaultRuleIsStatusOnly(t *testing.T) {
	c, err := New(harconfig.ComparatorConfig{})
	require.NoError(t, err)

	baseline := snapshot(200, "hello")
	require.True(t, c.Equivalent(baseline, snapshot(200, "totally different")))
	require.False(t, c.Equivalent(baseline, snapshot(404, "hello")))
}

func TestCandidateNotOKNeverEquivalent(t *testing.T) {
	c, err := New(harconfig.ComparatorConfig{})
	require.NoError(t, err)

	baseline := snapshot(200, "hello")
	failed := harmodel.ResponseSnapshot{Error: "connection refused"}
	require.False(t, c.Equivalent(baseline, failed))
}

func TestLengthTolerance(t *testing.T) {
	c, err := New(harconfig.ComparatorConfig{LengthCheck: true, LengthTolerance: 0})
	require.NoError(t, err)

	baseline := snapshot(200, "12345")
	require.True(t, c.Equivalent(baseline, snapshot(200, "67890")))
	require.False(t, c.Equivalent(baseline, snapshot(200, "123456")))
}

func TestNeedAllAndNeedAny(t *testing.T) {
	c, err := New(harconfig.ComparatorConfig{
		NeedAll: []string{"ok"},
		NeedAny: []string{"foo", "bar"},
	})
	require.NoError(t, err)

	baseline := snapshot(200, "")
	require.True(t, c.Equivalent(baseline, snapshot(200, "ok foo")))
	require.False(t, c.Equivalent(baseline, snapshot(200, "ok baz")))
	require.False(t, c.Equivalent(baseline, snapshot(200, "foo only")))
}

func TestRegexLogic(t *testing.T) {
	and, err := New(harconfig.ComparatorConfig{Regex: []string{"^a", "b$"}, Logic: "AND"})
	require.NoError(t, err)
	or, err := New(harconfig.ComparatorConfig{Regex: []string{"^a", "^z"}, Logic: "OR"})
	require.NoError(t, err)

	baseline := snapshot(200, "")
	require.True(t, and.Equivalent(baseline, snapshot(200, "ab")))
	require.False(t, and.Equivalent(baseline, snapshot(200, "ac")))
	require.True(t, or.Equivalent(baseline, snapshot(200, "ac")))
	require.False(t, or.Equivalent(baseline, snapshot(200, "bc")))
}

func TestEmptyNeedListsTriviallySatisfied(t *testing.T) {
	c, err := New(harconfig.ComparatorConfig{NeedAll: nil, NeedAny: nil, StatusCode: true})
	require.NoError(t, err)

	baseline := snapshot(200, "anything")
	require.True(t, c.Equivalent(baseline, snapshot(200, "anything else")))
}

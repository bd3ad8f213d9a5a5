package utils_test

import (
	"testing"

	"github.com/jrsteele09/go-hr-portal/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestPtr(t *testing.T) {
	v := 5
	p := utils.Ptr(v)
	*p = 6
	require.Equal(t, 5, v)
	require.Equal(t, 6, *p)
}

func TestListeners(t *testing.T) {
	var l utils.Listeners[string]
	var got []string

	removeA := l.Add(func(v string) { got = append(got, "a:"+v) })
	l.Add(func(v string) { got = append(got, "b:"+v) })
	require.Equal(t, 2, l.Len())

	l.Notify("x")
	require.Equal(t, []string{"a:x", "b:x"}, got)

	removeA()
	removeA()
	got = nil
	l.Notify("y")
	require.Equal(t, []string{"b:y"}, got)
	require.Equal(t, 1, l.Len())
}

func TestListeners_CallbackMayUnsubscribe(t *testing.T) {
	var l utils.Listeners[int]
	calls := 0
	var remove func()
	remove = l.Add(func(int) {
		calls++
		remove()
	})

	l.Notify(1)
	l.Notify(2)
	require.Equal(t, 1, calls)
}

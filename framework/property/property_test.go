package property_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-beans/framework/property"
)

type person struct {
	Age      int
	Nick     string `bean:"nickname"`
	Friend   *person
	hidden   string
	setCalls int
	name     string
}

func (p *person) SetName(v string) { p.name = v; p.setCalls++ }

func (p *person) SetLevel(v int) error {
	if v < 0 {
		return errors.New("negative level")
	}
	return nil
}

func (p *person) SetMood(string) { panic("moody") }

func TestReflective_Type(t *testing.T) {
	t.Parallel()
	var acc property.Reflective
	p := &person{}

	cases := map[string]reflect.Type{
		"name":     reflect.TypeOf(""),
		"level":    reflect.TypeOf(0),
		"age":      reflect.TypeOf(0),
		"nickname": reflect.TypeOf(""),
		"friend":   reflect.TypeOf(&person{}),
	}
	for name, want := range cases {
		got, err := acc.Type(p, name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	for _, name := range []string{"hidden", "missing"} {
		_, err := acc.Type(p, name)
		assert.ErrorIs(t, err, property.ErrNoSuchProperty, name)
	}
}

func TestReflective_SetPrefersSetter(t *testing.T) {
	t.Parallel()
	var acc property.Reflective
	p := &person{}

	require.NoError(t, acc.Set(p, "name", reflect.ValueOf("bob")))
	assert.Equal(t, "bob", p.name)
	assert.Equal(t, 1, p.setCalls)
}

func TestReflective_SetField(t *testing.T) {
	t.Parallel()
	var acc property.Reflective
	p, friend := &person{}, &person{}

	require.NoError(t, acc.Set(p, "age", reflect.ValueOf(31)))
	require.NoError(t, acc.Set(p, "nickname", reflect.ValueOf("bobby")))
	require.NoError(t, acc.Set(p, "friend", reflect.ValueOf(friend)))

	assert.Equal(t, 31, p.Age)
	assert.Equal(t, "bobby", p.Nick)
	assert.Same(t, friend, p.Friend)
}

func TestReflective_SetterError(t *testing.T) {
	t.Parallel()
	var acc property.Reflective

	err := acc.Set(&person{}, "level", reflect.ValueOf(-1))
	assert.ErrorContains(t, err, "negative level")
}

func TestReflective_SetterPanicIsError(t *testing.T) {
	t.Parallel()
	var acc property.Reflective

	var err error
	require.NotPanics(t, func() { err = acc.Set(&person{}, "mood", reflect.ValueOf("grim")) })
	assert.ErrorIs(t, err, property.ErrPanic)
	assert.ErrorContains(t, err, "moody")
}

func TestReflective_NonPointerHasNoFields(t *testing.T) {
	t.Parallel()
	var acc property.Reflective

	_, err := acc.Type(person{}, "age")
	assert.ErrorIs(t, err, property.ErrNoSuchProperty)
}

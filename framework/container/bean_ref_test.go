package container_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/km-arc/go-async-ioc/framework/container"
)

func TestBeanRef_EqualityIgnoresQualifierOrderAndRepetition(t *testing.T) {
	t.Parallel()

	a := container.RefOf[*engine]("@b", "@a", "@a")
	b := container.RefOf[*engine]("@a", "@b")

	assert.Equal(t, a, b)
	assert.Equal(t, []container.Qualifier{"@a", "@b"}, a.Qualifiers())

	wired := map[container.BeanRef]string{a: "first"}
	assert.Equal(t, "first", wired[b])
}

func TestBeanRef_DifferentTypeOrQualifiersAreDistinct(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		left  container.BeanRef
		right container.BeanRef
	}{
		{"type", container.RefOf[*engine](), container.RefOf[*wheel]()},
		{"qualifier", container.RefOf[*engine](), container.RefOf[*engine]("@turbo")},
		{"subset", container.RefOf[*engine]("@a"), container.RefOf[*engine]("@a", "@b")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.NotEqual(t, tc.left, tc.right)
		})
	}
}

func TestBeanRef_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "*container_test.engine", container.RefOf[*engine]().String())
	assert.Equal(t, "*container_test.engine[@Named(v8) @turbo]",
		container.RefOf[*engine]("@turbo", container.Named("v8")).String())
	assert.Equal(t, "<nil>", container.BeanRef{}.String())
}

func TestBeanRef_TypeAndZero(t *testing.T) {
	t.Parallel()

	ref := container.NewBeanRef(reflect.TypeFor[*engine]())
	assert.Equal(t, reflect.TypeFor[*engine](), ref.Type())
	assert.Nil(t, ref.Qualifiers())
	assert.False(t, ref.IsZero())
	assert.True(t, container.BeanRef{}.IsZero())
}

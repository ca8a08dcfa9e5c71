package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIntValue(t *testing.T) {
	var i int

	ivar := NewInt(&i, 11)

	require.Equal(t, "11", ivar.String())
	require.Equal(t, nil, ivar.Validate())
	require.Equal(t, false, ivar.IsEmpty())

	i = 42

	require.Equal(t, "42", ivar.String())

	require.NoError(t, ivar.Set("77"))
	require.Equal(t, int(77), i)

	require.Error(t, ivar.Set("seventy"))
}

func TestPositiveIntValue(t *testing.T) {
	var i int

	ivar := NewPositiveInt(&i, 3)
	require.NoError(t, ivar.Validate())

	require.NoError(t, ivar.Set("-1"))
	require.Error(t, ivar.Validate())
}

func TestStringListValue(t *testing.T) {
	var x []string

	val := NewStringList(&x, []string{"foobar"}, ",")

	require.Equal(t, "foobar", val.String())
	require.Equal(t, false, val.IsEmpty())

	val.Set("relay, fetch,,")

	require.Equal(t, []string{"relay", "fetch"}, x)

	val.Set("")
	require.Equal(t, "(empty)", val.String())
}

func TestEnumValue(t *testing.T) {
	var x string

	val := NewEnum(&x, "disk", []string{"disk", "mem", "s3"})
	require.NoError(t, val.Validate())

	val.Set(" S3 ")
	require.Equal(t, "s3", x)
	require.NoError(t, val.Validate())

	val.Set("ftp")
	require.Error(t, val.Validate())
}

func TestBoolValue(t *testing.T) {
	var b bool

	val := NewBool(&b, true)
	require.Equal(t, "true", val.String())

	require.NoError(t, val.Set("0"))
	require.False(t, b)
	require.True(t, val.IsEmpty())

	require.Error(t, val.Set("maybe"))
}

func TestURLValue(t *testing.T) {
	var u string

	val := NewURL(&u, "")
	require.NoError(t, val.Validate())

	val.Set("https://api.example.com/logs/1234_5678/")
	require.NoError(t, val.Validate())

	val.Set("api.example.com")
	require.Error(t, val.Validate())

	val.Set("ftp://api.example.com")
	require.Error(t, val.Validate())
}

func TestAddressValue(t *testing.T) {
	var a string

	val := NewAddress(&a, ":8090")
	require.NoError(t, val.Validate())

	val.Set("9000")
	require.Equal(t, ":9000", a)
	require.NoError(t, val.Validate())

	val.Set("localhost:http")
	require.Error(t, val.Validate())
}

func TestCronValue(t *testing.T) {
	var c string

	val := NewCron(&c, "")
	require.NoError(t, val.Validate())
	require.True(t, val.IsEmpty())

	val.Set("*/5 * * * *")
	require.NoError(t, val.Validate())

	val.Set("every five minutes")
	require.Error(t, val.Validate())
}

func TestDirValue(t *testing.T) {
	var d string

	val := NewDir(&d, t.TempDir())
	require.NoError(t, val.Validate())

	val.Set(t.TempDir() + "/not/yet")
	require.NoError(t, val.Validate())
}

type testdata struct {
	value1 int
	value2 int
}

func TestCopyStruct(t *testing.T) {
	data1 := testdata{}

	NewInt(&data1.value1, 1)
	NewInt(&data1.value2, 2)

	data2 := testdata{}

	val21 := NewInt(&data2.value1, 3)
	val22 := NewInt(&data2.value2, 4)

	require.Equal(t, int(3), data2.value1)
	require.Equal(t, int(4), data2.value2)

	data2 = data1

	require.Equal(t, "1", val21.String())
	require.Equal(t, "2", val22.String())
}

func TestKeyValue(t *testing.T) {
	var k string

	kvar := NewKey(&k, "")
	require.True(t, kvar.IsEmpty())
	require.Equal(t, "", kvar.Masked())

	require.NoError(t, kvar.Set("0f1e-AB9x-yz"))
	require.Equal(t, "0f1e-AB9x-yz", k)
	require.Equal(t, "0f1e-AB9x-yz", kvar.String())
	require.Equal(t, "XXXX-XXXX-yz", kvar.Masked())

	var m Value = kvar
	_, ok := m.(Masker)
	require.True(t, ok)
}

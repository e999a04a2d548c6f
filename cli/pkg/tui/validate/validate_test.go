package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithinLen(t *testing.T) {
	v := WithinLen(3, 5, "username")

	assert.NoError(t, v("ada"))
	assert.NoError(t, v("ñandú"))
	assert.EqualError(t, v("al"), "username must be between 3 and 5 characters")
	assert.Error(t, v("grace h"))
}

func TestNotEmpty(t *testing.T) {
	assert.EqualError(t, NotEmpty("name")("   "), "name cannot be empty")
	assert.NoError(t, NotEmpty("name")("x"))
}

func TestMatchesReadsAtCallTime(t *testing.T) {
	password := "first"
	v := Matches(func() string { return password }, "password confirmation")

	assert.NoError(t, v("first"))

	password = "second"
	assert.EqualError(t, v("first"), "password confirmation does not match")
}

func TestComposeStopsAtFirstError(t *testing.T) {
	v := Compose(NotEmpty("name"), MaxLen(4, "name"))

	assert.EqualError(t, v(""), "name cannot be empty")
	assert.EqualError(t, v("general"), "name must be at most 4 characters")
	assert.NoError(t, v("dev"))
}

func TestOptional(t *testing.T) {
	v := Optional(MinLen(6, "new password"))

	assert.NoError(t, v(""))
	assert.EqualError(t, v("abc"), "new password must be at least 6 characters")
	assert.NoError(t, v("secret"))
}

package utils

import (
	"net/url"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilterFromQuery(t *testing.T) {
	values, err := url.ParseQuery("search=+HP+&sort[created_at]=ASC&sort[code]=bogus&filter[location]=Curitiba&status=shipped&limit=10&page=3")
	require.NoError(t, err)

	filter := ParseFilterFromQuery(values)
	assert.Equal(t, "HP", filter.Search)
	assert.Equal(t, "asc", filter.Sort["created_at"])
	assert.Equal(t, "desc", filter.Sort["code"])
	assert.Equal(t, "Curitiba", filter.Filter["location"])
	assert.Equal(t, "shipped", filter.Filter["status"])
	assert.Equal(t, 10, filter.Limit)
	assert.Equal(t, 20, filter.Offset)
	assert.True(t, filter.WithPagination)
}

func TestParseFilterFromQuery_Defaults(t *testing.T) {
	filter := ParseFilterFromQuery(url.Values{"limit": {"100000"}, "withPagination": {"false"}})
	assert.Equal(t, MaxLimit, filter.Limit)
	assert.Equal(t, 0, filter.Offset)
	assert.False(t, filter.WithPagination)

	filter = ParseFilterFromQuery(url.Values{"limit": {"-1"}, "page": {"abc"}})
	assert.Equal(t, DefaultLimit, filter.Limit)
	assert.Equal(t, 1, filter.Page)
}

func TestParseFlexibleDate(t *testing.T) {
	expected := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{"2024-03-15", "15/03/2024", " 2024-03-15 ", "2024-03-15T00:00:00Z"} {
		parsed, err := ParseFlexibleDate(raw)
		require.NoError(t, err, raw)
		assert.True(t, expected.Equal(parsed), raw)
	}

	_, err := ParseFlexibleDate("15 de março")
	assert.Error(t, err)
}

func TestOptionalHelpers(t *testing.T) {
	date, err := OptionalDate(null.StringFrom("   "))
	require.NoError(t, err)
	assert.Nil(t, date)

	date, err = OptionalDate(null.String{})
	require.NoError(t, err)
	assert.Nil(t, date)

	_, err = OptionalDate(null.StringFrom("ontem"))
	assert.Error(t, err)

	assert.Nil(t, OptionalString(null.StringFrom("  ")))
	assert.Equal(t, "Correios", *OptionalString(null.StringFrom(" Correios ")))
	assert.Equal(t, "", StringValue(nil))
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("admin123")
	require.NoError(t, err)
	assert.NotEqual(t, "admin123", hash)
	assert.NoError(t, ComparePasswords(hash, "admin123"))
	assert.Error(t, ComparePasswords(hash, "admin124"))
}

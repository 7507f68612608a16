package oracle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bracefix/internal/bracket"
	"bracefix/internal/repair"
)

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		v, err := Lookup(name, bracket.DefaultPairs())
		require.NoError(t, err, name)
		assert.NotNil(t, v, name)
		desc, ok := Describe(name)
		assert.True(t, ok)
		assert.NotEmpty(t, desc)
	}

	_, err := Lookup("  XPath ", bracket.DefaultPairs())
	require.NoError(t, err, "lookup should ignore case and spaces")

	_, err = Lookup("sql", bracket.DefaultPairs())
	require.ErrorIs(t, err, ErrUnknownOracle)
	assert.Contains(t, err.Error(), "balanced, json, regexp, xpath")
}

func TestBalanced(t *testing.T) {
	v := Balanced{}
	require.NoError(t, v.Validate("f(a[1])"))
	require.ErrorIs(t, v.Validate("f(a[1)"), repair.ErrSyntax)

	angle, err := bracket.ParsePairs("<>")
	require.NoError(t, err)
	v = Balanced{Pairs: angle}
	require.NoError(t, v.Validate("<a>(("), "only configured pairs count")
}

func TestRegexp(t *testing.T) {
	require.NoError(t, Regexp{}.Validate(`a(b|c)+[0-9]{2}`))
	require.ErrorIs(t, Regexp{}.Validate(`a(b`), repair.ErrSyntax)
}

func TestJSON(t *testing.T) {
	require.NoError(t, JSON{}.Validate(`{"a": [1, 2]}`))
	err := JSON{}.Validate(`{"a": [1, 2}`)
	require.ErrorIs(t, err, repair.ErrSyntax)
	assert.Contains(t, err.Error(), "json:")
}

func TestJSON_Repair(t *testing.T) {
	res, err := repair.Repair(context.Background(), `{"a": [1, 2}`, repair.DefaultConfig(JSON{}))
	require.NoError(t, err)
	assert.Equal(t, `{"a": [1, 2]}`, res.Output)
	assert.Equal(t, 1, res.Depth)
}

const goodXPath = ".//*[contains(text(), 'xyz')]//span[@value = '123']/b"

func TestXPath_Valid(t *testing.T) {
	require.NoError(t, XPath{}.Validate(goodXPath))

	res, err := repair.Repair(context.Background(), goodXPath, repair.DefaultConfig(XPath{}))
	require.NoError(t, err)
	assert.Equal(t, goodXPath, res.Output, "valid input must come back unchanged")
	assert.Zero(t, res.Depth)
}

func TestXPath_RepairsMissingBrackets(t *testing.T) {
	broken := []string{
		".//*[contains(text(), 'xyz')//span[@value = '123']/b",
		".//*[contains(text(, 'xyz')]//span[@value = '123']/b",
		".//*[contains(text(), 'xyz']//span[@value = '123']/b",
		".//*[contains(text(), 'xyz')//span[@value = '123'/b",
		"(.//*[contains(text(), 'xyz']//span[@value = '123']/b)1]",
	}
	for _, expr := range broken {
		t.Run(expr, func(t *testing.T) {
			require.Error(t, XPath{}.Validate(expr))

			res, err := repair.Repair(context.Background(), expr, repair.DefaultConfig(XPath{}))
			require.NoError(t, err)
			assert.NotEqual(t, expr, res.Output)
			assert.NoError(t, XPath{}.Validate(res.Output))
			assert.True(t, bracket.Balanced(res.Output, bracket.DefaultPairs()))
		})
	}
}

func TestXPath_RejectionWrapsSyntax(t *testing.T) {
	err := XPath{}.Validate("//a[")
	require.ErrorIs(t, err, repair.ErrSyntax)
	assert.Contains(t, err.Error(), "xpath:")
}

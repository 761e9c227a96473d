package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompositeKey_NormalizesCaseAndWhitespace(t *testing.T) {
	base := CompositeKey("parts", "Widget Assembly", "A1")

	assert.Equal(t, base, CompositeKey("PARTS", "widget assembly", "a1"))
	assert.Equal(t, base, CompositeKey("  parts  ", "Widget   Assembly", " A1 "))
	assert.Equal(t, base, CompositeKey("parts", "Widget\tAssembly", "A1"))
}

func TestCompositeKey_ComponentsStayDistinct(t *testing.T) {
	a := CompositeKey("parts", "Widget Assembly", "A1")
	b := CompositeKey("parts", "Widget Assembly v2", "A1")
	c := CompositeKey("labor", "Widget Assembly", "A1")

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, b, c)
}

func TestCompositeKey_DescriptionCannotBleedIntoNumber(t *testing.T) {
	// "ab"+"c" and "a"+"bc" must produce different keys despite
	// identical concatenation.
	a := CompositeKey("parts", "ab", "c")
	b := CompositeKey("parts", "a", "bc")
	assert.NotEqual(t, a, b)
}

func TestNormalizeComponent_StripsControlChars(t *testing.T) {
	assert.Equal(t, "line one", NormalizeComponent("line\x00one"))
	assert.Equal(t, "a b", NormalizeComponent("a\x1fb"))
	assert.Equal(t, "", NormalizeComponent("  \r\n "))
}

func TestCompositeKey_EmptyComponents(t *testing.T) {
	key := CompositeKey("", "", "A1")
	assert.Equal(t, 2, strings.Count(key, "\x1f"))
	assert.True(t, strings.HasSuffix(key, "a1"))
}

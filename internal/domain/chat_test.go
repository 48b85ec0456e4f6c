package domain

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestDeriveTitle(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, time.March, 5, 14, 30, 0, 0, time.UTC)

	t.Run("long prompt truncated to 30 runes", func(t *testing.T) {
		t.Parallel()

		title := DeriveTitle("Explain recursion in simple terms covering edge cases", day)
		assert.Equal(t, "Explain recursion in simple te - Mar 05, 2024", title)

		head := title[:len(title)-len(" - Mar 05, 2024")]
		assert.Equal(t, 30, utf8.RuneCountInString(head))
	})

	t.Run("short prompt kept whole", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "Hi - Mar 05, 2024", DeriveTitle("Hi", day))
	})

	t.Run("multibyte runes not split", func(t *testing.T) {
		t.Parallel()

		prompt := "日本語のとても長い質問をしてみますがどうなるでしょうか"
		title := DeriveTitle(prompt, day)
		assert.True(t, utf8.ValidString(title))
	})

	t.Run("deterministic", func(t *testing.T) {
		t.Parallel()

		a := DeriveTitle("same prompt", day)
		b := DeriveTitle("same prompt", day)
		assert.Equal(t, a, b)
	})
}

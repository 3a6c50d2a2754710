package cleaner

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "Dr. Jane Smith", "Dr. Jane Smith"},
		{"markup stripped", "<div><b>Math</b> Department</div>", "Math Department"},
		{"whitespace collapsed", "  too   many\n\t spaces ", "too many spaces"},
		{"non ascii dropped", "great prof \U0001F600 really", "great prof really"},
		{"mixed", "<span>A+  grade</span>", "A+ grade"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, CleanText(tc.in))
		})
	}
}

func TestCleanText_Idempotent(t *testing.T) {
	t.Parallel()
	inputs := []string{"", "plain", "<b>x</b>  y", "emoji \U0001F4A9 here", "  padded  "}
	for _, in := range inputs {
		once := CleanText(in)
		assert.Equal(t, once, CleanText(once), "input %q", in)
	}
}

func TestParseNumber(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		in   string
		want float64
		ok   bool
	}{
		{"simple", "4.5", 4.5, true},
		{"with noise", "1,234 ratings", 1234, true},
		{"negative", "-2.5", -2.5, true},
		{"placeholder na", "N/A", 0, false},
		{"placeholder dashes", "--", 0, false},
		{"placeholder none lowercase", "none", 0, false},
		{"empty", "", 0, false},
		{"garbage", "abc", 0, false},
		{"stray symbols only", "%$", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseNumber(tc.in)
			require.Equal(t, tc.ok, ok)
			if ok {
				assert.InDelta(t, tc.want, got, 1e-9)
			}
		})
	}
}

func TestParseNumber_Idempotent(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"4.5", "0", "5", "87", "-1.25", "3.9/4"} {
		first, ok := ParseNumber(in)
		require.True(t, ok, "input %q", in)
		second, ok := ParseNumber(strconv.FormatFloat(first, 'f', -1, 64))
		require.True(t, ok)
		assert.Equal(t, first, second)
	}
}

func TestParsePercentage(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		in   string
		want int
		ok   bool
	}{
		{"plain percent", "85%", 85, true},
		{"spaced", "85 %", 85, true},
		{"word form", "85 percent", 85, true},
		{"rounded up", "66.7%", 67, true},
		{"boundary low", "0%", 0, true},
		{"boundary high", "100%", 100, true},
		{"over range", "150%", 0, false},
		{"placeholder", "N/A", 0, false},
		{"no number", "unknown", 0, false},
		{"empty", "", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ParsePercentage(tc.in)
			require.Equal(t, tc.ok, ok)
			if ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	t.Parallel()
	trueIn := []string{"true", "Yes", "Y", "1", "on", "ENABLED", " yes "}
	for _, in := range trueIn {
		assert.True(t, ParseBool(in), "input %q", in)
	}
	falseIn := []string{"false", "no", "n", "0", "off", "disabled", "maybe", "", "2"}
	for _, in := range falseIn {
		assert.False(t, ParseBool(in), "input %q", in)
	}
}

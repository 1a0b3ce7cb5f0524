package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTagList(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{name: "empty", value: "", want: nil},
		{name: "single", value: "design", want: []string{"design"}},
		{name: "trims and drops blanks", value: " a, ,b ,", want: []string{"a", "b"}},
		{name: "collapses repeats", value: "a,b,a", want: []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTagList(tt.value))
		})
	}
}

func TestJoinTags(t *testing.T) {
	assert.Equal(t, "", JoinTags(nil))
	assert.Equal(t, "a,b", JoinTags([]Tag{{Label: "a"}, {Label: "b"}}))
}

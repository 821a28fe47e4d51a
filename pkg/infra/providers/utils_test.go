package providers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsContentFilterError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("connection refused"), false},
		{errors.New(`non-200 status: 400 {"error":{"code":"content_filter"}}`), true},
		{errors.New("The response was filtered due to the prompt triggering Azure OpenAI's content management policy"), true},
		{errors.New("ResponsibleAIPolicyViolation: the prompt was blocked"), true},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, IsContentFilterError(c.err), "%v", c.err)
	}
}

func TestFormatInstructions(t *testing.T) {
	out := FormatInstructions([]string{"Answer in Korean", "", "Be concise"})
	assert.Equal(t, "[Instructions]\n- Answer in Korean\n- Be concise\n", out)
}
